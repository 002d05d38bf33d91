package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/KaramelBytes/catprofile/internal/dataset"
)

type htmlParser struct{}

func (htmlParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm")
}

func (htmlParser) Parse(_ context.Context, path string, opt Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html: %w", err)
	}
	defer f.Close()
	return ReadHTMLTable(f, DatasetName(path), opt.Selector)
}

// ReadHTMLTable loads the first table matching selector (default "table").
// The first row holding cells is the header; th and td cells are both read.
func ReadHTMLTable(r io.Reader, name, selector string) (*dataset.Dataset, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if strings.TrimSpace(selector) == "" {
		selector = "table"
	}
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table matches selector %q", selector)
	}

	var header []string
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// skip rows that belong to a nested table
		if tr.Closest("table").Get(0) != table.Get(0) {
			return
		}
		var rec []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			rec = append(rec, strings.TrimSpace(cell.Text()))
		})
		if len(rec) == 0 {
			return
		}
		if header == nil {
			header = rec
			return
		}
		rows = append(rows, rec)
	})
	if header == nil {
		return dataset.New(name), nil
	}
	return dataset.FromRecords(name, header, rows), nil
}
