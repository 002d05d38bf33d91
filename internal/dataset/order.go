package dataset

import (
	"sort"
	"strconv"
)

// Categories returns the distinct cells of a column in natural order: level
// order for ordered columns, numeric order for int/float columns, lexical
// order otherwise. Values absent from the levels follow in first-seen order
// and the missing marker, when present, comes last.
func Categories(c *Column) []Cell {
	seen := make(map[string]struct{})
	var values []string
	hasMissing := false
	for _, cell := range c.Cells {
		if cell.Missing {
			hasMissing = true
			continue
		}
		if _, ok := seen[cell.Value]; ok {
			continue
		}
		seen[cell.Value] = struct{}{}
		values = append(values, cell.Value)
	}

	var ordered []string
	switch {
	case c.Ordered():
		for _, l := range c.Levels {
			if _, ok := seen[l]; ok {
				ordered = append(ordered, l)
				delete(seen, l)
			}
		}
		for _, v := range values {
			if _, ok := seen[v]; ok {
				ordered = append(ordered, v)
			}
		}
	case c.Kind == KindInt || c.Kind == KindFloat:
		ordered = values
		sort.SliceStable(ordered, func(i, j int) bool { return numericLess(ordered[i], ordered[j]) })
	default:
		ordered = values
		sort.Strings(ordered)
	}

	out := make([]Cell, 0, len(ordered)+1)
	for _, v := range ordered {
		out = append(out, ValueCell(v))
	}
	if hasMissing {
		out = append(out, MissingCell())
	}
	return out
}

func numericLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return fa < fb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
