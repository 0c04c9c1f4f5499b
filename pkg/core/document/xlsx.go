package document

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"controlbot/pkg/core/i18n"
	"controlbot/pkg/models"
)

// XLSXWriter exports the tables into a workbook: summary figures, top
// risk, top performers, all projects and the narrative.
type XLSXWriter struct{}

func (XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXWriter) Extension() string { return ".xlsx" }

func (XLSXWriter) Write(ctx context.Context, payload *models.ReportPayload) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload is nil")
	}
	p := i18n.New(payload.Language)

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("XLSX_STYLE_ERROR: %w", err)
	}
	w := &sheetWriter{f: f, bold: bold}

	summary := p.T("sheet.summary")
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, fmt.Errorf("XLSX_SHEET_ERROR: %w", err)
	}
	w.sheet, w.row = summary, 1
	w.line(true, payload.Title)
	w.line(false, p.T("doc.generated"), p.Timestamp(payload.GeneratedAt))
	w.row++
	for _, key := range []string{"overview", "status", "risk", "issues"} {
		if t, ok := table(payload, key); ok {
			w.table(t)
		}
	}

	for _, sh := range []struct{ table, sheet string }{
		{"top_risk", "sheet.top_risk"},
		{"top_performers", "sheet.top_performers"},
		{"projects", "sheet.projects"},
	} {
		t, ok := table(payload, sh.table)
		if !ok {
			continue
		}
		if err := w.newSheet(p.T(sh.sheet)); err != nil {
			return nil, err
		}
		w.grid(t)
	}

	if err := w.newSheet(p.T("sheet.narrative")); err != nil {
		return nil, err
	}
	for _, s := range payload.Sections {
		w.line(true, s.Title)
		w.line(false, s.Body)
		w.row++
	}
	if err := f.SetColWidth(w.sheet, "A", "A", 100); err != nil {
		return nil, fmt.Errorf("XLSX_LAYOUT_ERROR: %w", err)
	}

	if w.err != nil {
		return nil, fmt.Errorf("XLSX_WRITE_ERROR: %w", w.err)
	}
	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("XLSX_WRITE_ERROR: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter appends rows to the current sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	bold  int
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) newSheet(name string) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("XLSX_SHEET_ERROR: %w", err)
	}
	w.sheet, w.row = name, 1
	return nil
}

func (w *sheetWriter) line(header bool, cells ...string) {
	if w.err != nil {
		return
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	start, _ := excelize.CoordinatesToCellName(1, w.row)
	if err := w.f.SetSheetRow(w.sheet, start, &values); err != nil {
		w.err = err
		return
	}
	if header && len(cells) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(cells), w.row)
		w.err = w.f.SetCellStyle(w.sheet, start, end, w.bold)
	}
	w.row++
}

// table writes a titled block followed by a blank row.
func (w *sheetWriter) table(t models.Table) {
	w.line(true, t.Title)
	w.grid(t)
	w.row++
}

func (w *sheetWriter) grid(t models.Table) {
	w.line(true, t.Columns...)
	for _, r := range t.Rows {
		w.line(false, r...)
	}
	if w.err == nil && len(t.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(t.Columns))
		w.err = w.f.SetColWidth(w.sheet, "A", last, 18)
	}
}
