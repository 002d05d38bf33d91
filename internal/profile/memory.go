package profile

import "fmt"

// ColumnSize pairs a column with its estimated footprint.
type ColumnSize struct {
	Name  string
	Bytes int64
}

// MemorySeries is the chart-ready memory breakdown: every column scaled to a
// single decimal unit picked from the total.
type MemorySeries struct {
	Unit   string    `json:"unit" yaml:"unit"`
	Names  []string  `json:"names" yaml:"names"`
	Values []float64 `json:"values" yaml:"values"`
	Total  int64     `json:"total" yaml:"total"`
}

// memoryUnits is ordered largest first; a unit is chosen once the total
// reaches three of it.
var memoryUnits = []struct {
	label string
	scale float64
}{
	{"TB", 1e12},
	{"GB", 1e9},
	{"MB", 1e6},
	{"KB", 1e3},
}

const unitSplitter = 3

// SummarizeMemory scales the sizes to Bytes, KB, MB, GB or TB (powers of
// 1000) by comparing their total against 3e3, 3e6, 3e9 and 3e12. Order is
// preserved.
func SummarizeMemory(sizes []ColumnSize) MemorySeries {
	s := MemorySeries{Unit: "Bytes", Names: make([]string, len(sizes)), Values: make([]float64, len(sizes))}
	for _, cs := range sizes {
		s.Total += cs.Bytes
	}
	scale := 1.0
	for _, u := range memoryUnits {
		if float64(s.Total) >= unitSplitter*u.scale {
			s.Unit, scale = u.label, u.scale
			break
		}
	}
	for i, cs := range sizes {
		s.Names[i] = cs.Name
		s.Values[i] = float64(cs.Bytes) / scale
	}
	return s
}

var humanLabels = []string{"B", "KB", "MB", "GB", "TB"}

// HumanBytes formats b with binary (1024) steps, e.g. "1.50 KB".
func HumanBytes(b int64) string {
	v := float64(b)
	n := 0
	for v > 1024 && n < len(humanLabels)-1 {
		v /= 1024
		n++
	}
	return fmt.Sprintf("%.2f %s", v, humanLabels[n])
}
