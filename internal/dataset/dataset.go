// Package dataset holds the in-memory table that every profiling stage reads.
package dataset

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MissingLabel is how a missing cell is rendered in reports.
const MissingLabel = "NA"

// Kind is the element type of a column, decided once at ingestion.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindOrdered
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindOrdered:
		return "ordered-category"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind appear by name in JSON/YAML exports.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Cell is one value of a column. Missing cells carry no value.
type Cell struct {
	Value   string
	Missing bool
}

// MissingCell returns the canonical missing marker.
func MissingCell() Cell { return Cell{Missing: true} }

// ValueCell wraps a present value.
func ValueCell(v string) Cell { return Cell{Value: v} }

func (c Cell) String() string {
	if c.Missing {
		return MissingLabel
	}
	return c.Value
}

// Key is a grouping key that never collides between a missing cell and a
// literal value that happens to read "NA".
func (c Cell) Key() string {
	if c.Missing {
		return "\x00missing"
	}
	return c.Value
}

// Column is a named sequence of cells.
type Column struct {
	Name string
	Kind Kind
	// Levels is the caller-provided category order of an ordered column.
	Levels []string
	Cells  []Cell
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Cells) }

// MissingCount counts missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if cell.Missing {
			n++
		}
	}
	return n
}

// Ordered reports whether the column carries an explicit category ordering.
func (c *Column) Ordered() bool { return c.Kind == KindOrdered && len(c.Levels) > 0 }

// Dataset is an ordered set of equal-length columns.
type Dataset struct {
	Name    string
	Columns []*Column
}

// New returns an empty dataset.
func New(name string) *Dataset { return &Dataset{Name: name} }

// AddColumn appends a column.
func (d *Dataset) AddColumn(c *Column) { d.Columns = append(d.Columns, c) }

// Rows returns the row count (length of the first column).
func (d *Dataset) Rows() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// Column looks a column up by name.
func (d *Dataset) Column(name string) *Column {
	for _, c := range d.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Names returns column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// WithColumns returns a new dataset sharing the given columns.
func (d *Dataset) WithColumns(cols []*Column) *Dataset {
	return &Dataset{Name: d.Name, Columns: cols}
}

// MissingCount totals missing cells over all columns.
func (d *Dataset) MissingCount() int {
	n := 0
	for _, c := range d.Columns {
		n += c.MissingCount()
	}
	return n
}

// Validate checks the table invariants: named, unique, equal-length columns.
func (d *Dataset) Validate() error {
	if d == nil {
		return &InputTypeError{Reason: "dataset is nil", Column: -1}
	}
	seen := make(map[string]struct{}, len(d.Columns))
	rows := -1
	for i, c := range d.Columns {
		if c == nil {
			return &InputTypeError{Reason: "column is nil", Column: i}
		}
		if strings.TrimSpace(c.Name) == "" {
			return &InputTypeError{Reason: "column has no name", Column: i}
		}
		if _, dup := seen[c.Name]; dup {
			return &InputTypeError{Reason: "duplicate column name " + c.Name, Column: i}
		}
		seen[c.Name] = struct{}{}
		if rows >= 0 && c.Len() != rows {
			return &InputTypeError{Reason: "column " + c.Name + " has a different length", Column: i}
		}
		rows = c.Len()
	}
	return nil
}

// FromRecords builds a string-typed dataset from a header and rows.
// Short rows are padded with missing cells; empty strings are missing.
// A column whose present values are all JSON arrays or objects is compound.
func FromRecords(name string, header []string, rows [][]string) *Dataset {
	ds := New(name)
	for j, h := range header {
		col := &Column{Name: strings.TrimSpace(h), Kind: KindString, Cells: make([]Cell, len(rows))}
		if col.Name == "" {
			col.Name = "column_" + strconv.Itoa(j+1)
		}
		compound, present := true, 0
		for i, rec := range rows {
			var v string
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			if v == "" {
				col.Cells[i] = MissingCell()
				continue
			}
			col.Cells[i] = ValueCell(v)
			present++
			if compound && !looksCompound(v) {
				compound = false
			}
		}
		if compound && present > 0 {
			col.Kind = KindCompound
		}
		ds.AddColumn(col)
	}
	return ds
}

func looksCompound(v string) bool {
	if len(v) < 2 {
		return false
	}
	open, end := v[0], v[len(v)-1]
	if !(open == '[' && end == ']') && !(open == '{' && end == '}') {
		return false
	}
	return json.Valid([]byte(v))
}
