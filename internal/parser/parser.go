package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

// Options tunes how a source is read into a dataset.
type Options struct {
	// Name overrides the dataset display name (defaults to the file base name).
	Name string
	// Delimiter for CSV. If 0, sniffs among ',', ';', '\t'.
	Delimiter rune
	// SheetName / SheetIndex select an XLSX sheet; SheetIndex is 1-based.
	SheetName  string
	SheetIndex int
	// Selector picks the HTML table (CSS selector, default "table").
	Selector string
	// Table or Query select rows from a SQL source. Query wins when both are set.
	Table string
	Query string
}

// Parser reads one kind of tabular source.
type Parser interface {
	CanParse(filename string) bool
	Parse(ctx context.Context, path string, opt Options) (*dataset.Dataset, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseFile selects a parser based on filename and loads the dataset.
func ParseFile(ctx context.Context, path string, opt Options) (*dataset.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	for _, p := range registry {
		if p.CanParse(path) {
			ds, err := p.Parse(ctx, path, opt)
			if err != nil {
				return nil, err
			}
			if opt.Name != "" {
				ds.Name = opt.Name
			}
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}

// DatasetName derives a display name from a path: base name without extension.
func DatasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	// Register default parsers
	Register(csvParser{})
	Register(xlsxParser{})
	Register(htmlParser{})
	Register(sqliteParser{})
}

// ErrUnsupported indicates a format is not supported yet.
var ErrUnsupported = errors.New("unsupported dataset format")
