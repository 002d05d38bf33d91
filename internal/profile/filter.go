package profile

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// DefaultCatLimit is the category ceiling applied when none is configured.
const DefaultCatLimit = 20

// Reason tags why a column was dropped before profiling.
type Reason string

const (
	ReasonTooManyCategories Reason = "too-many-categories"
	ReasonEmpty             Reason = "empty"
	ReasonUnsupportedType   Reason = "unsupported-type"
)

// Rejection is the diagnostic for one dropped column. A column matching
// several rules is reported once with every matching reason.
type Rejection struct {
	Column     string   `json:"column" yaml:"column"`
	Reasons    []Reason `json:"reasons" yaml:"reasons"`
	Categories int      `json:"categories" yaml:"categories"`
	Limit      int      `json:"limit" yaml:"limit"`
	Message    string   `json:"message" yaml:"message"`
}

// Has reports whether r carries the given reason.
func (r Rejection) Has(reason Reason) bool {
	for _, x := range r.Reasons {
		if x == reason {
			return true
		}
	}
	return false
}

// Error lets a Rejection travel as a non-fatal error value.
func (r Rejection) Error() string { return r.Message }

// FilterColumns drops columns that cannot be profiled and returns the reduced
// dataset with one Rejection per dropped column, in column order. Distinct
// categories count the missing marker as one category.
func FilterColumns(ds *dataset.Dataset, catLimit int) (*dataset.Dataset, []Rejection) {
	if catLimit <= 0 {
		catLimit = DefaultCatLimit
	}
	var kept []*dataset.Column
	var rejected []Rejection
	for _, c := range ds.Columns {
		distinct, onlyMissing := distinctCategories(c, true)
		var reasons []Reason
		var msgs []string
		if distinct > catLimit {
			reasons = append(reasons, ReasonTooManyCategories)
			msgs = append(msgs, fmt.Sprintf("variable %s has been removed from profiling because it has %d categories, which is over the limit of %d categories.", c.Name, distinct, catLimit))
		}
		switch {
		case distinct == 1 && onlyMissing:
			reasons = append(reasons, ReasonEmpty)
			msgs = append(msgs, fmt.Sprintf("variable %s has been removed from profiling because it has only empty value.", c.Name))
		case distinct == 0:
			reasons = append(reasons, ReasonEmpty)
			msgs = append(msgs, fmt.Sprintf("variable %s has been removed from profiling because it has 0 categories.", c.Name))
		}
		if c.Kind == dataset.KindCompound {
			reasons = append(reasons, ReasonUnsupportedType)
			msgs = append(msgs, fmt.Sprintf("variable %s has been removed from profiling because it has unsupported type (%s).", c.Name, c.Kind))
		}
		if len(reasons) == 0 {
			kept = append(kept, c)
			continue
		}
		rejected = append(rejected, Rejection{
			Column:     c.Name,
			Reasons:    reasons,
			Categories: distinct,
			Limit:      catLimit,
			Message:    strings.Join(msgs, " "),
		})
	}
	return ds.WithColumns(kept), rejected
}

// DropOverLimit is the silent filter of the interactive report: it removes
// columns with more than catLimit distinct present values and columns of
// compound kind, without producing diagnostics. Empty columns are kept.
func DropOverLimit(ds *dataset.Dataset, catLimit int) *dataset.Dataset {
	if catLimit <= 0 {
		catLimit = DefaultCatLimit
	}
	var kept []*dataset.Column
	for _, c := range ds.Columns {
		if c.Kind == dataset.KindCompound {
			continue
		}
		if n, _ := distinctCategories(c, false); n > catLimit {
			continue
		}
		kept = append(kept, c)
	}
	return ds.WithColumns(kept)
}

// distinctCategories counts distinct values, optionally counting the missing
// marker as one more category. onlyMissing is true when no value is present
// but at least one cell is missing.
func distinctCategories(c *dataset.Column, withMissing bool) (n int, onlyMissing bool) {
	seen := make(map[string]struct{})
	hasMissing := false
	for _, cell := range c.Cells {
		if cell.Missing {
			hasMissing = true
			continue
		}
		seen[cell.Value] = struct{}{}
	}
	n = len(seen)
	if withMissing && hasMissing {
		n++
	}
	return n, hasMissing && len(seen) == 0
}
