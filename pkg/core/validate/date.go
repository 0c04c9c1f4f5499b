package validate

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidDate is returned when no supported layout matches.
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts are tried in order; US month/day comes before day/month,
// so "03/04/2024" is March 4th.
var dateLayouts = []string{
	"02.01.2006",
	"2.1.2006",
	"02.01.06",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-01-2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"02/01/2006",
	"2006/01/02",
	"January 2006",
	"Jan 2006",
	"01.2006",
	"2006",
}

var germanMonths = map[string]string{
	"januar": "January", "februar": "February", "märz": "March", "maerz": "March",
	"mai": "May", "juni": "June", "juli": "July", "oktober": "October", "dezember": "December",
	"jän": "Jan", "mär": "Mar", "okt": "Oct", "dez": "Dec",
}

// ParseDate reads a date cell. time.Time values pass through, numbers are
// a year (1900..2200) or an Excel serial date, strings are matched against
// the supported layouts.
func ParseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, ErrBlank
	case time.Time:
		return d, nil
	case int:
		return ParseDate(float64(d))
	case int64:
		return ParseDate(float64(d))
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return time.Time{}, ErrInvalidDate
		}
		if d == math.Trunc(d) && d >= 1900 && d <= 2200 {
			return time.Date(int(d), time.January, 1, 0, 0, 0, 0, time.UTC), nil
		}
		if d > 0 {
			t, err := excelize.ExcelDateToTime(d, false)
			if err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, d)
	case string:
		return parseDateString(d)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported cell type %T", ErrInvalidDate, v)
	}
}

func parseDateString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrBlank
	}
	words := strings.Fields(s)
	for i, w := range words {
		if en, ok := germanMonths[strings.ToLower(strings.TrimSuffix(w, "."))]; ok {
			words[i] = en
		}
	}
	s = strings.Join(words, " ")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}
