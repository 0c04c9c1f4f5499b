package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrBlank is returned for nil cells and cells holding only whitespace.
	ErrBlank = errors.New("blank value")
	// ErrNotNumeric is returned when a cell cannot be read as a number.
	ErrNotNumeric = errors.New("not numeric")
)

var (
	currencySymbols = strings.NewReplacer("€", "", "$", "", "£", "", "¥", "")
	currencyPrefix  = regexp.MustCompile(`(?i)^(euro|eur|usd|gbp|chf|jpy)\.?\s*`)
	currencySuffix  = regexp.MustCompile(`(?i)\s*(euro|eur|usd|gbp|chf|jpy)\.?$`)
	thousandCodes   = regexp.MustCompile(`(?i)^(teur|tusd)\.?\s*|\s*(teur|tusd|t€)\.?$`)
	numericBody     = regexp.MustCompile(`^[0-9]*\.?[0-9]+$|^[0-9]+\.$`)
	groupingRunes   = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "", "\u2019", "")
)

// suffix multipliers, longest first so "mio" is tried before "m".
var multipliers = []struct {
	suffix string
	factor int64
}{
	{"mrd", 1_000_000_000},
	{"mio.", 1_000_000},
	{"mio", 1_000_000},
	{"tsd.", 1_000},
	{"tsd", 1_000},
	{"m", 1_000_000},
	{"k", 1_000},
}

// ParseNumber reads a monetary cell.
//
// Strings lose currency symbols and codes, whitespace and apostrophe
// grouping. Of the remaining '.' and ',' the last one is the decimal
// separator, unless that character occurs more than once, in which case
// every separator is grouping ("1.234.567" is one million and more).
// A trailing k, M, Mio, Mrd or TEUR scales the value. Parentheses and a
// trailing minus (SAP style) mark negatives.
func ParseNumber(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, ErrBlank
	case decimal.Decimal:
		return n, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, ErrNotNumeric
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		return ParseNumber(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int32:
		return decimal.NewFromInt(int64(n)), nil
	case json.Number:
		return parseNumberString(n.String())
	case string:
		return parseNumberString(n)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported cell type %T", ErrNotNumeric, v)
	}
}

func parseNumberString(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrBlank
	}

	factor := decimal.NewFromInt(1)
	if thousandCodes.MatchString(s) {
		factor = decimal.NewFromInt(1_000)
		s = thousandCodes.ReplaceAllString(s, "")
	}
	s = currencySymbols.Replace(s)
	s = currencyPrefix.ReplaceAllString(s, "")
	s = currencySuffix.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = s[:len(s)-1]
	}
	s = strings.TrimSpace(s)

	lower := strings.ToLower(s)
	for _, m := range multipliers {
		if strings.HasSuffix(lower, m.suffix) {
			factor = factor.Mul(decimal.NewFromInt(m.factor))
			s = strings.TrimSpace(s[:len(s)-len(m.suffix)])
			break
		}
	}

	s = normalizeSeparators(groupingRunes.Replace(s))
	if !numericBody.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	d = d.Mul(factor)
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators rewrites s so that '.' is the only (decimal) separator.
func normalizeSeparators(s string) string {
	last := strings.LastIndexAny(s, ".,")
	if last < 0 {
		return s
	}
	sep := s[last]
	if strings.Count(s, string(sep)) > 1 {
		return strings.NewReplacer(".", "", ",", "").Replace(s)
	}
	intPart := strings.NewReplacer(".", "", ",", "").Replace(s[:last])
	return intPart + "." + s[last+1:]
}
