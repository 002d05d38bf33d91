package profile

import (
	"math"
	"sort"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// CategoryCount is one row of a column's frequency table.
type CategoryCount struct {
	Category string  `json:"category" yaml:"category"`
	Count    int     `json:"count" yaml:"count"`
	Percent  float64 `json:"percent" yaml:"percent"`
	// Width is the bar fill relative to the most frequent category, in percent.
	Width   float64 `json:"width" yaml:"width"`
	Missing bool    `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// ColumnProfile summarizes one retained column.
type ColumnProfile struct {
	Name       string          `json:"name" yaml:"name"`
	Kind       dataset.Kind    `json:"kind" yaml:"kind"`
	Categories []CategoryCount `json:"categories" yaml:"categories"`
	Rows       int             `json:"rows" yaml:"rows"`
	Missing    int             `json:"missing" yaml:"missing"`
	// MemoryBytes is the estimated in-memory footprint of the column.
	MemoryBytes   int64          `json:"memory_bytes" yaml:"memory_bytes"`
	Ordered       bool           `json:"ordered" yaml:"ordered"`
	MostFrequent  *CategoryCount `json:"most_frequent,omitempty" yaml:"most_frequent,omitempty"`
	LeastFrequent *CategoryCount `json:"least_frequent,omitempty" yaml:"least_frequent,omitempty"`
}

// Present returns the number of non-missing cells.
func (p ColumnProfile) Present() int { return p.Rows - p.Missing }

// MissingPercent is the missing share of all rows, in percent.
func (p ColumnProfile) MissingPercent() float64 {
	if p.Rows == 0 {
		return 0
	}
	return float64(p.Missing) / float64(p.Rows) * 100
}

// ProfileColumn builds the frequency profile of c. Categories, the missing
// marker included, are sorted by descending count; ties keep the order in
// which values were first seen. Most and least frequent ignore the missing
// marker. An empty column yields a profile without categories.
func ProfileColumn(c *dataset.Column) ColumnProfile {
	p := ColumnProfile{
		Name:        c.Name,
		Kind:        c.Kind,
		Rows:        c.Len(),
		MemoryBytes: dataset.MemoryUsage(c),
		Ordered:     c.Ordered(),
	}
	if c.Len() == 0 {
		return p
	}

	index := make(map[string]int)
	for _, cell := range c.Cells {
		if cell.Missing {
			p.Missing++
		}
		i, ok := index[cell.Key()]
		if !ok {
			i = len(p.Categories)
			index[cell.Key()] = i
			p.Categories = append(p.Categories, CategoryCount{Category: cell.String(), Missing: cell.Missing})
		}
		p.Categories[i].Count++
	}
	sort.SliceStable(p.Categories, func(i, j int) bool { return p.Categories[i].Count > p.Categories[j].Count })

	widest := p.Categories[0].Count
	total := float64(p.Rows)
	for i := range p.Categories {
		cc := &p.Categories[i]
		cc.Percent = round2(float64(cc.Count) / total * 100)
		cc.Width = round2(float64(cc.Count) / float64(widest) * 100)
	}
	for i := range p.Categories {
		cc := p.Categories[i]
		if cc.Missing {
			continue
		}
		if p.MostFrequent == nil {
			most := cc
			p.MostFrequent = &most
		}
		if p.LeastFrequent == nil || cc.Count < p.LeastFrequent.Count {
			least := cc
			p.LeastFrequent = &least
		}
	}
	return p
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

func round3(f float64) float64 {
	if math.IsNaN(f) {
		return f
	}
	return math.Round(f*1000) / 1000
}
