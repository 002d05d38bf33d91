package profile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// DefaultMissingValues are the tokens always read as missing, compared
// case-insensitively.
var DefaultMissingValues = []string{"na", "n/a", "nan", "null", "none", "missing", "undefined"}

// NormalizeMissing replaces every cell whose lower-cased value matches a
// missing token with the missing marker. extra extends DefaultMissingValues.
// It mutates ds in place, drops matching tokens from ordered levels and
// returns the number of cells replaced. Running it twice is a no-op.
func NormalizeMissing(ds *dataset.Dataset, extra []string) int {
	if ds == nil {
		return 0
	}
	lower := cases.Lower(language.Und)
	tokens := make(map[string]struct{}, len(DefaultMissingValues)+len(extra))
	for _, v := range DefaultMissingValues {
		tokens[v] = struct{}{}
	}
	for _, v := range extra {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		tokens[lower.String(v)] = struct{}{}
	}
	isToken := func(v string) bool {
		_, ok := tokens[lower.String(v)]
		return ok
	}

	replaced := 0
	for _, c := range ds.Columns {
		for i, cell := range c.Cells {
			if cell.Missing {
				continue
			}
			if isToken(cell.Value) {
				c.Cells[i] = dataset.MissingCell()
				replaced++
			}
		}
		if len(c.Levels) > 0 {
			levels := c.Levels[:0:0]
			for _, l := range c.Levels {
				if !isToken(l) {
					levels = append(levels, l)
				}
			}
			c.Levels = levels
		}
	}
	return replaced
}
