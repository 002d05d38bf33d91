// Package render turns report models into self-contained HTML documents.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/catprofile/internal/profile"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"datauri": func(c *profile.Chart) template.URL { return template.URL(c.DataURI()) },
	"comma":   func(n int) string { return humanize.Comma(int64(n)) },
	"add":     func(a, b int) int { return a + b },
	"assoc": func(v float64) string {
		if math.IsNaN(v) {
			return ""
		}
		return fmt.Sprintf("%.2f", v)
	},
	"reasons": func(r profile.Rejection) string {
		names := make([]string, len(r.Reasons))
		for i, x := range r.Reasons {
			names[i] = string(x)
		}
		return strings.Join(names, ", ")
	},
}).ParseFS(templateFS, "templates/*.html"))

// Default writes the static report.
func Default(w io.Writer, rep *profile.DefaultReport) error {
	if rep == nil {
		return fmt.Errorf("render default report: nil model")
	}
	if err := templates.ExecuteTemplate(w, "default.html", rep); err != nil {
		return fmt.Errorf("render default report: %w", err)
	}
	return nil
}

// Interactive writes the client-side report; the model is embedded as JSON.
func Interactive(w io.Writer, rep *profile.InteractiveReport) error {
	if rep == nil {
		return fmt.Errorf("render interactive report: nil model")
	}
	if err := templates.ExecuteTemplate(w, "interactive.html", rep); err != nil {
		return fmt.Errorf("render interactive report: %w", err)
	}
	return nil
}

// HTML renders whichever model res carries.
func HTML(res *profile.Result) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("render: nil result")
	}
	var buf bytes.Buffer
	var err error
	if res.Mode == profile.ModeInteractive {
		err = Interactive(&buf, res.Interactive)
	} else {
		err = Default(&buf, res.Default)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
