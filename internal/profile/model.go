package profile

import (
	"encoding/base64"
	"time"
)

// Version is stamped into every report.
const Version = "0.1.1"

// OverallKey is the correlation payload holding the association matrix in
// the interactive report.
const OverallKey = "Overall Correlations"

// PairKey names the raw-count payload of a column pair.
func PairKey(a, b string) string { return a + " x " + b }

// Chart is an encoded image produced by a ChartRenderer.
type Chart struct {
	MIME string `json:"mime" yaml:"mime"`
	Data []byte `json:"data" yaml:"-"`
}

// DataURI returns the chart as an inline data: URI.
func (c *Chart) DataURI() string {
	if c == nil {
		return ""
	}
	return "data:" + c.MIME + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// Summary is the dataset-level overview.
type Summary struct {
	Records     int    `json:"records" yaml:"records"`
	Columns     int    `json:"columns" yaml:"columns"`
	Missing     int    `json:"missing" yaml:"missing"`
	MemoryBytes int64  `json:"memory_bytes" yaml:"memory_bytes"`
	Memory      string `json:"memory" yaml:"memory"`
}

// VariableSummary is one row of the default report's variable table.
type VariableSummary struct {
	Attribute    string `json:"attribute" yaml:"attribute"`
	Categories   int    `json:"categories" yaml:"categories"`
	CategoryList string `json:"category_list" yaml:"category_list"`
	MemoryBytes  int64  `json:"memory_bytes" yaml:"memory_bytes"`
	Memory       string `json:"memory" yaml:"memory"`
}

// SummaryTable is the formatted per-variable fact sheet.
type SummaryTable struct {
	Categories    string `json:"categories" yaml:"categories"`
	MostFrequent  string `json:"most_frequent" yaml:"most_frequent"`
	LeastFrequent string `json:"least_frequent" yaml:"least_frequent"`
	Missings      string `json:"missings" yaml:"missings"`
	Memory        string `json:"memory" yaml:"memory"`
}

// VariableDetail is the default report's section for one variable.
type VariableDetail struct {
	Index     int           `json:"index" yaml:"index"`
	Profile   ColumnProfile `json:"profile" yaml:"profile"`
	Summary   SummaryTable  `json:"summary" yaml:"summary"`
	Histogram *Chart        `json:"histogram,omitempty" yaml:"histogram,omitempty"`
}

// PairHeatmap is the dense contingency grid of one ordered column pair.
type PairHeatmap struct {
	Row       string   `json:"row" yaml:"row"`
	Col       string   `json:"col" yaml:"col"`
	RowLabels []string `json:"row_labels" yaml:"row_labels"`
	ColLabels []string `json:"col_labels" yaml:"col_labels"`
	Counts    [][]int  `json:"counts" yaml:"counts"`
	Chart     *Chart   `json:"chart,omitempty" yaml:"chart,omitempty"`
}

// VariableCorrelations groups the heatmaps of one variable against all others.
type VariableCorrelations struct {
	Variable string        `json:"variable" yaml:"variable"`
	Pairs    []PairHeatmap `json:"pairs" yaml:"pairs"`
}

// DefaultReport is the static report model.
type DefaultReport struct {
	RunID        string                 `json:"run_id" yaml:"run_id"`
	Version      string                 `json:"version" yaml:"version"`
	Title        string                 `json:"title" yaml:"title"`
	Generated    time.Time              `json:"generated" yaml:"generated"`
	CatLimit     int                    `json:"cat_limit" yaml:"cat_limit"`
	Warnings     []Rejection            `json:"warnings" yaml:"warnings"`
	Summary      Summary                `json:"summary" yaml:"summary"`
	Variables    []VariableSummary      `json:"variables" yaml:"variables"`
	Memory       MemorySeries           `json:"memory" yaml:"memory"`
	MemoryChart  *Chart                 `json:"memory_chart,omitempty" yaml:"memory_chart,omitempty"`
	Details      []VariableDetail       `json:"details" yaml:"details"`
	Associations *AssociationMatrix     `json:"associations" yaml:"associations"`
	OverallChart *Chart                 `json:"overall_chart,omitempty" yaml:"overall_chart,omitempty"`
	Correlations []VariableCorrelations `json:"correlations" yaml:"correlations"`
}

// AttributeProfile is the interactive report's view of a column: present
// categories by descending count with percentages of all rows.
type AttributeProfile struct {
	Attribute   string    `json:"attribute" yaml:"attribute"`
	Categories  []string  `json:"categories" yaml:"categories"`
	Counts      []int     `json:"counts" yaml:"counts"`
	Percentages []float64 `json:"percentages" yaml:"percentages"`
	Missing     int       `json:"missing" yaml:"missing"`
	RAM         string    `json:"ram" yaml:"ram"`
}

// Record is one cell of a flattened heatmap.
type Record struct {
	X string `json:"x" yaml:"x"`
	Y string `json:"y" yaml:"y"`
	V Value  `json:"v" yaml:"v"`
}

// InteractiveReport is the model behind the client-side report.
type InteractiveReport struct {
	RunID             string             `json:"run_id" yaml:"run_id"`
	Version           string             `json:"version" yaml:"version"`
	Title             string             `json:"title" yaml:"title"`
	Generated         time.Time          `json:"generated" yaml:"generated"`
	AttributeProfiles []AttributeProfile `json:"attribute_profiles" yaml:"attribute_profiles"`
	// CorrelationKeys lists the payload keys in emission order.
	CorrelationKeys  []string            `json:"correlation_keys" yaml:"correlation_keys"`
	CorrelationsData map[string][]Record `json:"correlations_data" yaml:"correlations_data"`
	AttributeCount   int                 `json:"attribute_count" yaml:"attribute_count"`
	RecordsCount     int                 `json:"records_count" yaml:"records_count"`
	MissingCount     int                 `json:"missing_count" yaml:"missing_count"`
	TotalRAM         string              `json:"total_ram" yaml:"total_ram"`
}
