// Package report writes rendered profiles to disk and exports report models
// in machine-readable formats.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/catprofile/internal/profile"
	"github.com/KaramelBytes/catprofile/internal/render"
	"github.com/KaramelBytes/catprofile/internal/utils"
)

// Format is an output encoding of a report.
type Format string

const (
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name; empty means html.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatHTML, nil
	case FormatHTML, FormatJSON, FormatYAML, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (use html, json, yaml or markdown)", s)
	}
}

// Ext is the file extension of f.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".html"
	}
}

// Export encodes the model carried by res.
func Export(res *profile.Result, f Format) ([]byte, error) {
	if res == nil {
		return nil, fmt.Errorf("export: nil result")
	}
	switch f {
	case FormatHTML, "":
		return render.HTML(res)
	case FormatJSON:
		return utils.PrettyJSON(res.Model())
	case FormatYAML:
		b, err := yaml.Marshal(res.Model())
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return b, nil
	case FormatMarkdown:
		return []byte(Markdown(res)), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", f)
	}
}

// Writer places reports under Dir.
type Writer struct {
	Dir string
}

// Path returns the destination of a report named name: the lower-cased,
// sanitized name with the format extension.
func (w Writer) Path(name string, f Format) string {
	dir := w.Dir
	if dir == "" {
		dir = "report"
	}
	return filepath.Join(dir, utils.SafeFileName(name)+f.Ext())
}

// Write stores data for name and returns the written path. The directory is
// created when missing and the file is replaced atomically.
func (w Writer) Write(name string, f Format, data []byte) (string, error) {
	path := w.Path(name, f)
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Save exports res in format f and writes it under the report title.
func (w Writer) Save(res *profile.Result, f Format) (string, error) {
	data, err := Export(res, f)
	if err != nil {
		return "", err
	}
	return w.Write(res.Title(), f, data)
}
