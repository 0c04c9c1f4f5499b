package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"controlbot/pkg/models"
)

func TestReadCSVDetectsSemicolonAndBOM(t *testing.T) {
	input := "\ufeffProjekt-Nr;Kosten Plan;Kosten Ist;Status\nP-001;150.000;\"165.000,50\";In Arbeit\nP-002;80.000;;Abgeschlossen\n"

	table, err := ReadCSV(strings.NewReader(input), "export.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Projekt-Nr", "Kosten Plan", "Kosten Ist", "Status"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "165.000,50", table.Rows[0]["Kosten Ist"])
	assert.Equal(t, "", table.Rows[1]["Kosten Ist"])
	assert.Equal(t, "Abgeschlossen", table.Rows[1]["Status"])
}

func TestReadCSVDecodesWindows1252(t *testing.T) {
	// "Verantwortlich;Budget\nMüller;100\n" with ü as 0xFC
	input := []byte("Verantwortlich;Budget\nM\xfcller;100\n")

	table, err := ReadCSV(bytes.NewReader(input), "legacy.csv")
	require.NoError(t, err)
	assert.Equal(t, "Müller", table.Rows[0]["Verantwortlich"])
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"id,plan,actual", ','},
		{"id;plan;actual", ';'},
		{"id\tplan\tactual", '\t'},
		{`"a,b";c;d`, ';'},
		{"single", ','},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sniffDelimiter([]byte(tt.line+"\n")), tt.line)
	}
}

func TestBuildTableHeaders(t *testing.T) {
	table, err := buildTable("t", [][]any{
		{"", ""},
		{"Plan", "", "Plan", ""},
		{"1", "x", "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan", "column_2", "Plan (2)"}, table.Headers)
	assert.Equal(t, models.RawRow{"Plan": "1", "column_2": "x", "Plan (2)": "2"}, table.Rows[0])

	_, err = buildTable("empty", [][]any{{"", " "}})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Projekt-ID", "Plankosten", "Istkosten", "Start"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"007", 150000, 165000.5, 45366}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	table, err := ReadXLSX(bytes.NewReader(workbook(t)), "plan.xlsx", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Projekt-ID", "Plankosten", "Istkosten", "Start"}, table.Headers)
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "007", row["Projekt-ID"])
	assert.Equal(t, 150000.0, row["Plankosten"])
	assert.Equal(t, 165000.5, row["Istkosten"])
	assert.Equal(t, 45366.0, row["Start"])
}

func TestReadXLSXUnknownSheet(t *testing.T) {
	_, err := ReadXLSX(bytes.NewReader(workbook(t)), "plan.xlsx", "Missing")
	assert.Error(t, err)
}

func TestReadHTML(t *testing.T) {
	page := `<html><body><p>Intro</p>
<table>
  <thead><tr><th>Project</th><th>Budget</th><th>Actual cost</th></tr></thead>
  <tbody>
    <tr><td>CRM</td><td>80,000</td><td> 120,000 </td></tr>
    <tr><td>Web</td><td>50,000</td></tr>
  </tbody>
</table>
<table><tr><td>ignored</td></tr></table>
</body></html>`

	table, err := ReadHTML(strings.NewReader(page), "list.html")
	require.NoError(t, err)
	assert.Equal(t, []string{"Project", "Budget", "Actual cost"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "120,000", table.Rows[0]["Actual cost"])
	assert.Nil(t, table.Rows[1]["Actual cost"])

	_, err = ReadHTML(strings.NewReader("<p>no table</p>"), "x.html")
	assert.Error(t, err)
}

func TestReadFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, fmt.Sprintf("part%d.csv", i))
		require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf("id,plan\nP%d,%d\n", i, i*100)), 0o644))
		paths = append(paths, p)
	}

	tables, err := ReadFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, tables, 6)
	for i, tb := range tables {
		assert.Equal(t, fmt.Sprintf("part%d.csv", i), tb.Name)
		assert.Equal(t, fmt.Sprintf("P%d", i), tb.Rows[0]["id"])
	}

	_, err = ReadFiles(context.Background(), append(paths, filepath.Join(dir, "missing.csv")))
	assert.Error(t, err)

	_, err = ReadFiles(context.Background(), []string{filepath.Join(dir, "notes.pdf")})
	assert.ErrorContains(t, err, "UNSUPPORTED_FORMAT")
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/export":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			fmt.Fprint(w, "id;plan\nCRM;80000\n")
		case "/list.html":
			w.Header().Set("Content-Type", "application/octet-stream")
			fmt.Fprint(w, "<table><tr><th>id</th></tr><tr><td>Web</td></tr></table>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	table, err := f.Fetch(context.Background(), srv.URL+"/export?format=csv")
	require.NoError(t, err)
	assert.Equal(t, "export", table.Name)
	assert.Equal(t, "CRM", table.Rows[0]["id"])

	table, err = f.Fetch(context.Background(), srv.URL+"/list.html")
	require.NoError(t, err)
	assert.Equal(t, "Web", table.Rows[0]["id"])

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.csv")
	assert.ErrorContains(t, err, "status 404")
}
