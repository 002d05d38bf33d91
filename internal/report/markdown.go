package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/catprofile/internal/profile"
)

// Markdown renders a compact text summary of either report model.
func Markdown(res *profile.Result) string {
	if res.Mode == profile.ModeInteractive {
		return interactiveMarkdown(res.Interactive)
	}
	return defaultMarkdown(res.Default)
}

func defaultMarkdown(r *profile.DefaultReport) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Title))
	b.WriteString(fmt.Sprintf("Records: %s\n", humanize.Comma(int64(r.Summary.Records))))
	b.WriteString(fmt.Sprintf("Columns: %d (category limit %d)\n", r.Summary.Columns, r.CatLimit))
	b.WriteString(fmt.Sprintf("Missing cells: %s\n", humanize.Comma(int64(r.Summary.Missing))))
	b.WriteString(fmt.Sprintf("Memory: %s\n\n", r.Summary.Memory))

	b.WriteString("[VARIABLES]\n")
	for _, d := range r.Details {
		b.WriteString(fmt.Sprintf("- %s: %s categories, missing %s", safeVal(d.Profile.Name), d.Summary.Categories, d.Summary.Missings))
		if d.Summary.MostFrequent != "" {
			b.WriteString(" — most frequent " + safeVal(d.Summary.MostFrequent))
		}
		b.WriteString("\n")
	}

	if m := r.Associations; m != nil && len(m.Columns) >= 2 {
		b.WriteString("\n[ASSOCIATIONS]\n")
		writePairs(&b, m)
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w.Message)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// writePairs lists up to ten column pairs by descending Cramér's V. Undefined
// pairs are skipped.
func writePairs(b *strings.Builder, m *profile.AssociationMatrix) {
	type pair struct {
		A, B string
		V    float64
	}
	var pairs []pair
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if v := m.Values[i][j]; !math.IsNaN(v) {
				pairs = append(pairs, pair{A: m.Columns[i], B: m.Columns[j], V: v})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].V > pairs[j].V })
	if len(pairs) > 10 {
		pairs = pairs[:10]
	}
	for _, p := range pairs {
		b.WriteString(fmt.Sprintf("- %s ~ %s: V=%.3f\n", safeVal(p.A), safeVal(p.B), p.V))
	}
}

func interactiveMarkdown(r *profile.InteractiveReport) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Title))
	b.WriteString(fmt.Sprintf("Records: %s\n", humanize.Comma(int64(r.RecordsCount))))
	b.WriteString(fmt.Sprintf("Attributes: %d\n", r.AttributeCount))
	b.WriteString(fmt.Sprintf("Missing cells: %s\n", humanize.Comma(int64(r.MissingCount))))
	b.WriteString(fmt.Sprintf("Memory: %s\n\n", r.TotalRAM))

	b.WriteString("[ATTRIBUTES]\n")
	for _, p := range r.AttributeProfiles {
		b.WriteString(fmt.Sprintf("- %s: missing %d, memory %s", safeVal(p.Attribute), p.Missing, p.RAM))
		if len(p.Categories) > 0 {
			b.WriteString(" — top: ")
			for i := range p.Categories {
				if i == 5 {
					b.WriteString(fmt.Sprintf("; unique=%d", len(p.Categories)))
					break
				}
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(p.Categories[i]), p.Counts[i]))
			}
		}
		b.WriteString("\n")
	}

	if overall := r.CorrelationsData[profile.OverallKey]; len(overall) > 0 {
		names := make([]string, 0, len(r.AttributeProfiles))
		for _, p := range r.AttributeProfiles {
			names = append(names, p.Attribute)
		}
		m := profile.NewAssociationMatrix(names)
		idx := make(map[string]int, len(names))
		for i, n := range names {
			idx[n] = i
		}
		for _, rec := range overall {
			i, ok1 := idx[rec.X]
			j, ok2 := idx[rec.Y]
			if ok1 && ok2 {
				m.Values[i][j] = float64(rec.V)
			}
		}
		if len(names) >= 2 {
			b.WriteString("\n[ASSOCIATIONS]\n")
			writePairs(&b, m)
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
