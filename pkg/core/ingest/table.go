// Package ingest reads uploaded project lists (CSV, Excel, HTML tables)
// into models.RawTable. It only splits cells; every interpretation of the
// values is left to the validator.
package ingest

import (
	"errors"
	"fmt"
	"strings"

	"controlbot/pkg/models"
)

// ErrNoHeader is returned for inputs without any non-empty row.
var ErrNoHeader = errors.New("NO_HEADER_ROW: input contains no non-empty row")

// buildTable turns a grid of cells into a RawTable. The first row with a
// non-empty cell is the header; blank header cells become "column_N" and
// repeated names get a " (2)" suffix so every header stays unique.
func buildTable(name string, grid [][]any) (models.RawTable, error) {
	start := -1
	for i, row := range grid {
		if !blankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return models.RawTable{Name: name}, ErrNoHeader
	}

	headers := uniqueHeaders(grid[start])
	table := models.RawTable{Name: name, Headers: headers}
	for _, cells := range grid[start+1:] {
		row := make(models.RawRow, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = nil
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func uniqueHeaders(cells []any) []string {
	// Trailing blank header cells carry no column.
	last := len(cells) - 1
	for last >= 0 && cellString(cells[last]) == "" {
		last--
	}
	headers := make([]string, 0, last+1)
	seen := make(map[string]int)
	for i := 0; i <= last; i++ {
		h := strings.Join(strings.Fields(cellString(cells[i])), " ")
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		headers = append(headers, h)
	}
	return headers
}

func blankRow(row []any) bool {
	for _, c := range row {
		if cellString(c) != "" {
			return false
		}
	}
	return true
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	default:
		return fmt.Sprint(c)
	}
}

func stringsToCells(records [][]string) [][]any {
	grid := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, c := range rec {
			row[j] = c
		}
		grid[i] = row
	}
	return grid
}
