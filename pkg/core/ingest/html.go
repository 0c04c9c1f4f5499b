package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"controlbot/pkg/models"
)

// ReadHTML reads the first <table> of an HTML page, e.g. a project list
// saved from an intranet wiki.
func ReadHTML(r io.Reader, name string) (models.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return models.RawTable{Name: name}, fmt.Errorf("parse html %s: %w", name, err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return models.RawTable{Name: name}, fmt.Errorf("NO_TABLE: %s contains no <table>", name)
	}

	var grid [][]any
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Skip rows of nested tables.
		if tr.Closest("table").Get(0) != table.Get(0) {
			return
		}
		var row []any
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			row = append(row, strings.Join(strings.Fields(cell.Text()), " "))
		})
		grid = append(grid, row)
	})
	return buildTable(name, grid)
}
