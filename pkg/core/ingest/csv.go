package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"controlbot/pkg/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a delimited text export. The delimiter is detected among
// ',', ';' and tab from the header line. Input that is not valid UTF-8 is
// decoded as Windows-1252, which is what German Excel writes.
func ReadCSV(r io.Reader, name string) (models.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.RawTable{Name: name}, fmt.Errorf("read csv %s: %w", name, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		if data, err = charmap.Windows1252.NewDecoder().Bytes(data); err != nil {
			return models.RawTable{Name: name}, fmt.Errorf("decode csv %s: %w", name, err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return models.RawTable{Name: name}, fmt.Errorf("parse csv %s: %w", name, err)
	}
	return buildTable(name, stringsToCells(records))
}

// sniffDelimiter counts candidate separators outside quotes on the first
// non-empty line and picks the most frequent one. Ties go to ';' before
// ',' since German exports use the comma as decimal separator.
func sniffDelimiter(data []byte) rune {
	line := firstLine(data)
	counts := map[rune]int{}
	inQuotes := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ',' || r == ';' || r == '\t'):
			counts[r]++
		}
	}
	best, bestCount := ',', 0
	for _, c := range []rune{'\t', ';', ','} {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

func firstLine(data []byte) []byte {
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		var line []byte
		if i < 0 {
			line, data = data, nil
		} else {
			line, data = data[:i], data[i+1:]
		}
		if len(bytes.TrimSpace(line)) > 0 {
			return line
		}
	}
	return nil
}
