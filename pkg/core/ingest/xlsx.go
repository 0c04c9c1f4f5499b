package ingest

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"controlbot/pkg/models"
)

// ReadXLSX reads one sheet of a workbook, the first one when sheet is
// empty. Numeric cells (including dates, which Excel stores as serial
// numbers) come back as float64; text cells stay strings, so an id typed
// as "007" keeps its zeros.
func ReadXLSX(r io.Reader, name, sheet string) (models.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.RawTable{Name: name}, fmt.Errorf("open workbook %s: %w", name, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return models.RawTable{Name: name}, ErrNoHeader
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return models.RawTable{Name: name}, fmt.Errorf("read sheet %q of %s: %w", sheet, name, err)
	}

	grid := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, raw := range row {
			cells[j] = raw
			if raw == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			if numericCell(f, sheet, ref) {
				if v, err := strconv.ParseFloat(raw, 64); err == nil {
					cells[j] = v
				}
			}
		}
		grid[i] = cells
	}
	return buildTable(name, grid)
}

func numericCell(f *excelize.File, sheet, ref string) bool {
	t, err := f.GetCellType(sheet, ref)
	if err != nil {
		return false
	}
	switch t {
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeUnset:
		return true
	}
	return false
}
