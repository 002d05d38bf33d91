package cmd

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/catprofile/internal/dataset"
	"github.com/KaramelBytes/catprofile/internal/parser"
)

// sourceFlags are the loading flags shared by profile and profile-batch.
type sourceFlags struct {
	name       string
	delimiter  string
	sheetName  string
	sheetIndex int
	selector   string
	table      string
	query      string
	driver     string
}

func (s sourceFlags) parserOptions(fallbackDelim string) (parser.Options, error) {
	d, err := parseDelimiter(s.delimiter, fallbackDelim)
	if err != nil {
		return parser.Options{}, err
	}
	return parser.Options{
		Name:       s.name,
		Delimiter:  d,
		SheetName:  s.sheetName,
		SheetIndex: s.sheetIndex,
		Selector:   s.selector,
		Table:      s.table,
		Query:      s.query,
	}, nil
}

// loadDataset reads src as a file, or as a DSN when --driver is set.
func loadDataset(ctx context.Context, src string, s sourceFlags, fallbackDelim string) (*dataset.Dataset, error) {
	opt, err := s.parserOptions(fallbackDelim)
	if err != nil {
		return nil, err
	}
	if s.driver == "" {
		return parser.ParseFile(ctx, src, opt)
	}
	query, err := parser.SelectQuery(s.table, s.query)
	if err != nil {
		return nil, err
	}
	db, err := parser.OpenSQL(ctx, s.driver, src)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	name := s.name
	if name == "" {
		name = s.table
	}
	return parser.LoadSQL(ctx, db, name, query)
}

// parseDelimiter accepts a single character, "tab" or `\t`. Empty means sniff.
func parseDelimiter(flag, fallback string) (rune, error) {
	v := flag
	if v == "" {
		v = fallback
	}
	switch strings.ToLower(v) {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(v) != 1 {
		return 0, fmt.Errorf("invalid --delimiter %q: use a single character or 'tab'", v)
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r, nil
}
