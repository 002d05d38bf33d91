// Package prepare re-types raw loaded columns before profiling.
package prepare

import (
	"sort"
	"strconv"
	"time"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// Preparer turns a raw dataset into a profiling-ready one. The result may
// re-type columns or reorder their categories; it never changes row count.
type Preparer interface {
	Prepare(ds *dataset.Dataset) (*dataset.Dataset, error)
}

// Auto converts numeric and date-like columns into ordered categoricals whose
// levels follow natural order. Other columns pass through untouched.
type Auto struct {
	// DecimalSeparator and ThousandsSeparator pin the number locale; 0 auto-detects.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Dates orders columns whose values all parse as dates chronologically.
	Dates bool
}

// NewAuto returns an Auto preparer with date detection enabled.
func NewAuto() Auto { return Auto{Dates: true} }

// Prepare implements Preparer. The input dataset is not modified.
func (a Auto) Prepare(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	cols := make([]*dataset.Column, len(ds.Columns))
	for i, c := range ds.Columns {
		cols[i] = a.prepareColumn(c)
	}
	return ds.WithColumns(cols), nil
}

func (a Auto) prepareColumn(c *dataset.Column) *dataset.Column {
	switch c.Kind {
	case dataset.KindCompound, dataset.KindOrdered:
		return c
	}
	if present(c) == 0 {
		return c
	}
	if out, ok := a.numeric(c); ok {
		return out
	}
	if a.Dates && c.Kind == dataset.KindString {
		if out, ok := chronological(c); ok {
			return out
		}
	}
	return c
}

// numeric rewrites every present value to its canonical number form and
// orders the levels by value.
func (a Auto) numeric(c *dataset.Column) (*dataset.Column, bool) {
	cells := make([]dataset.Cell, len(c.Cells))
	values := make(map[string]float64)
	for i, cell := range c.Cells {
		if cell.Missing {
			cells[i] = cell
			continue
		}
		var f float64
		var ok bool
		if c.Kind == dataset.KindString {
			f, ok = ParseNumber(cell.Value, a.DecimalSeparator, a.ThousandsSeparator)
		} else {
			var err error
			f, err = strconv.ParseFloat(cell.Value, 64)
			ok = err == nil
		}
		if !ok {
			return nil, false
		}
		v := formatNumber(f)
		cells[i] = dataset.ValueCell(v)
		values[v] = f
	}
	levels := make([]string, 0, len(values))
	for v := range values {
		levels = append(levels, v)
	}
	sort.Slice(levels, func(i, j int) bool { return values[levels[i]] < values[levels[j]] })
	return &dataset.Column{Name: c.Name, Kind: dataset.KindOrdered, Levels: levels, Cells: cells}, true
}

// chronological keeps the values as written and orders the levels by time.
func chronological(c *dataset.Column) (*dataset.Column, bool) {
	times := make(map[string]time.Time)
	for _, cell := range c.Cells {
		if cell.Missing {
			continue
		}
		if _, seen := times[cell.Value]; seen {
			continue
		}
		t, ok := ParseTime(cell.Value)
		if !ok {
			return nil, false
		}
		times[cell.Value] = t
	}
	levels := make([]string, 0, len(times))
	for v := range times {
		levels = append(levels, v)
	}
	sort.Slice(levels, func(i, j int) bool {
		ti, tj := times[levels[i]], times[levels[j]]
		if ti.Equal(tj) {
			return levels[i] < levels[j]
		}
		return ti.Before(tj)
	})
	cells := append([]dataset.Cell(nil), c.Cells...)
	return &dataset.Column{Name: c.Name, Kind: dataset.KindOrdered, Levels: levels, Cells: cells}, true
}

func present(c *dataset.Column) int {
	return c.Len() - c.MissingCount()
}
