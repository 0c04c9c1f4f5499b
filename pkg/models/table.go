package models

// RawTable is one uploaded sheet: a header row and data rows keyed by header.
// Cell values are nil, string, float64, int, int64 or time.Time.
type RawTable struct {
	Name    string   `json:"name,omitempty"`
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"rows"`
}

// RawRow maps a header to its cell value.
type RawRow map[string]any

// Len returns the number of data rows.
func (t RawTable) Len() int { return len(t.Rows) }

// HasHeader reports whether h is one of the table's headers (exact match).
func (t RawTable) HasHeader(h string) bool {
	for _, header := range t.Headers {
		if header == h {
			return true
		}
	}
	return false
}

// ConcatTables merges tables read from several files into one.
// Headers are unioned in first-seen order; rows keep file order.
func ConcatTables(name string, tables ...RawTable) RawTable {
	out := RawTable{Name: name}
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, h := range t.Headers {
			if !seen[h] {
				seen[h] = true
				out.Headers = append(out.Headers, h)
			}
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out
}
