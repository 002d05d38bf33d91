// Package chart draws the static report charts as standalone SVG documents.
package chart

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/catprofile/internal/profile"
)

// MIME is the media type of every chart produced here.
const MIME = "image/svg+xml"

// Renderer implements profile.ChartRenderer. The zero value uses the default
// geometry.
type Renderer struct {
	// Width and Height of bar charts in pixels.
	Width, Height int
	// Cell is the side of one heatmap cell in pixels.
	Cell int
}

var _ profile.ChartRenderer = Renderer{}

const (
	defaultWidth  = 640
	defaultHeight = 320
	defaultCell   = 36
	marginLeft    = 70
	marginBottom  = 90
	marginTop     = 30
	marginRight   = 20
	barColor      = "#4c72b0"
)

func (r Renderer) geometry() (w, h, cell int) {
	w, h, cell = r.Width, r.Height, r.Cell
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	if cell <= 0 {
		cell = defaultCell
	}
	return w, h, cell
}

// MemoryBar draws one bar per column, scaled to the series unit.
func (r Renderer) MemoryBar(s profile.MemorySeries) (*profile.Chart, error) {
	if len(s.Names) != len(s.Values) {
		return nil, fmt.Errorf("memory chart: %d names for %d values", len(s.Names), len(s.Values))
	}
	return r.bars("Memory usage", "Memory ("+s.Unit+")", s.Names, s.Values)
}

// Histogram draws the category counts of one variable.
func (r Renderer) Histogram(title string, labels []string, counts []int) (*profile.Chart, error) {
	if len(labels) != len(counts) {
		return nil, fmt.Errorf("histogram %s: %d labels for %d counts", title, len(labels), len(counts))
	}
	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}
	return r.bars(title, "Count", labels, values)
}

func (r Renderer) bars(title, yLabel string, labels []string, values []float64) (*profile.Chart, error) {
	w, h, _ := r.geometry()
	var buf bytes.Buffer
	openSVG(&buf, w, h)
	text(&buf, w/2, marginTop/2+5, "middle", 14, title)
	text(&buf, 15, h/2, "middle", 12, yLabel, fmt.Sprintf(`transform="rotate(-90 15 %d)"`, h/2))

	plotW := w - marginLeft - marginRight
	plotH := h - marginTop - marginBottom
	top := maxOf(values)
	fmt.Fprintf(&buf, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#333"/>`+"\n",
		marginLeft, marginTop+plotH, marginLeft+plotW, marginTop+plotH)
	fmt.Fprintf(&buf, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#333"/>`+"\n",
		marginLeft, marginTop, marginLeft, marginTop+plotH)
	text(&buf, marginLeft-5, marginTop+5, "end", 10, formatTick(top))
	text(&buf, marginLeft-5, marginTop+plotH, "end", 10, "0")

	if n := len(values); n > 0 {
		slot := float64(plotW) / float64(n)
		barW := slot * 0.8
		for i, v := range values {
			bh := 0.0
			if top > 0 {
				bh = v / top * float64(plotH)
			}
			x := float64(marginLeft) + float64(i)*slot + (slot-barW)/2
			y := float64(marginTop+plotH) - bh
			fmt.Fprintf(&buf, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s: %s</title></rect>`+"\n",
				x, y, barW, bh, barColor, escape(labels[i]), formatTick(v))
			cx := int(x + barW/2)
			ly := marginTop + plotH + 12
			text(&buf, cx, ly, "end", 10, labels[i], fmt.Sprintf(`transform="rotate(-45 %d %d)"`, cx, ly))
		}
	}
	closeSVG(&buf)
	return &profile.Chart{MIME: MIME, Data: buf.Bytes()}, nil
}

// AssociationHeatmap draws the Cramér's V matrix on a 0..1 scale with
// two-decimal annotations. Undefined cells stay blank.
func (r Renderer) AssociationHeatmap(m *profile.AssociationMatrix) (*profile.Chart, error) {
	if m == nil {
		return nil, fmt.Errorf("association heatmap: nil matrix")
	}
	return r.heatmap("Overall correlations", m.Columns, m.Columns, m.Values, 1, func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	})
}

// CountHeatmap draws a contingency table annotated with integer counts and
// shaded relative to its largest cell.
func (r Renderer) CountHeatmap(t *profile.ContingencyTable) (*profile.Chart, error) {
	if t == nil {
		return nil, fmt.Errorf("count heatmap: nil table")
	}
	dense := t.Dense()
	values := make([][]float64, len(dense))
	top := 0.0
	for i, row := range dense {
		values[i] = make([]float64, len(row))
		for j, c := range row {
			values[i][j] = float64(c)
			top = math.Max(top, float64(c))
		}
	}
	title := t.RowName + " x " + t.ColName
	return r.heatmap(title, t.RowLabels(), t.ColLabels(), values, top, func(v float64) string {
		return fmt.Sprintf("%d", int(v))
	})
}

func (r Renderer) heatmap(title string, rows, cols []string, values [][]float64, top float64, format func(float64) string) (*profile.Chart, error) {
	if len(values) != len(rows) {
		return nil, fmt.Errorf("heatmap %s: %d rows for %d labels", title, len(values), len(rows))
	}
	_, _, cell := r.geometry()
	w := marginLeft + len(cols)*cell + marginRight
	h := marginTop + len(rows)*cell + marginBottom
	var buf bytes.Buffer
	openSVG(&buf, w, h)
	text(&buf, w/2, marginTop/2+5, "middle", 14, title)

	for i, row := range values {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("heatmap %s: row %d has %d cells for %d columns", title, i, len(row), len(cols))
		}
		y := marginTop + i*cell
		text(&buf, marginLeft-5, y+cell/2+4, "end", 10, rows[i])
		for j, v := range row {
			x := marginLeft + j*cell
			if math.IsNaN(v) {
				fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#eee"/>`+"\n", x, y, cell, cell)
				continue
			}
			share := 0.0
			if top > 0 {
				share = v / top
			}
			fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="#fff"/>`+"\n", x, y, cell, cell, shade(share))
			ink := "#000"
			if share > 0.6 {
				ink = "#fff"
			}
			fmt.Fprintf(&buf, `<text x="%d" y="%d" text-anchor="middle" font-size="10" fill="%s">%s</text>`+"\n",
				x+cell/2, y+cell/2+4, ink, escape(format(v)))
		}
	}
	ly := marginTop + len(rows)*cell + 12
	for j, c := range cols {
		cx := marginLeft + j*cell + cell/2
		text(&buf, cx, ly, "end", 10, c, fmt.Sprintf(`transform="rotate(-45 %d %d)"`, cx, ly))
	}
	closeSVG(&buf)
	return &profile.Chart{MIME: MIME, Data: buf.Bytes()}, nil
}

// shade maps 0..1 onto a white-to-navy ramp.
func shade(f float64) string {
	f = math.Max(0, math.Min(1, f))
	lerp := func(a, b int) int { return int(math.Round(float64(a) + (float64(b)-float64(a))*f)) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(0xf7, 0x08), lerp(0xfb, 0x30), lerp(0xff, 0x6b))
}

func openSVG(buf *bytes.Buffer, w, h int) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`+"\n", w, h, w, h)
	fmt.Fprintf(buf, `<rect width="%d" height="%d" fill="#fff"/>`+"\n", w, h)
}

func closeSVG(buf *bytes.Buffer) { buf.WriteString("</svg>\n") }

func text(buf *bytes.Buffer, x, y int, anchor string, size int, s string, attrs ...string) {
	extra := ""
	if len(attrs) > 0 {
		extra = " " + strings.Join(attrs, " ")
	}
	fmt.Fprintf(buf, `<text x="%d" y="%d" text-anchor="%s" font-size="%d"%s>%s</text>`+"\n", x, y, anchor, size, extra, escape(s))
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func maxOf(vs []float64) float64 {
	top := 0.0
	for _, v := range vs {
		if v > top {
			top = v
		}
	}
	return top
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// Base64 encodes a chart for inline embedding.
func Base64(c *profile.Chart) string {
	if c == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(c.Data)
}
