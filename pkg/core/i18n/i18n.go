// Package i18n localizes report labels and formats numbers for the
// supported report languages.
package i18n

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"controlbot/pkg/models"
)

// Supported report languages; the first one is the default.
var supported = []language.Tag{language.German, language.English}

var matcher = language.NewMatcher(supported)

var messages = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, t := range texts {
		// SetString only fails for malformed tags.
		_ = b.SetString(language.German, key, t.de)
		_ = b.SetString(language.English, key, t.en)
	}
	return b
}

// Languages lists the supported language codes.
func Languages() []string {
	out := make([]string, len(supported))
	for i, t := range supported {
		out[i] = base(t)
	}
	return out
}

// Match resolves a BCP 47 tag ("de-DE", "en_US", "EN") to a supported
// language code. Unsupported languages are an error.
func Match(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", tag, err)
	}
	_, idx, conf := matcher.Match(t)
	if conf < language.High {
		return "", fmt.Errorf("unsupported language %q (supported: %v)", tag, Languages())
	}
	return base(supported[idx]), nil
}

func base(t language.Tag) string {
	b, _ := t.Base()
	return b.String()
}

// Printer renders labels and numbers for one language.
type Printer struct {
	lang string
	tag  language.Tag
	p    *message.Printer
}

// New returns a printer for a supported language code; anything else
// falls back to English.
func New(lang string) *Printer {
	code, err := Match(lang)
	if err != nil {
		code = "en"
	}
	tag := language.MustParse(code)
	return &Printer{lang: code, tag: tag, p: message.NewPrinter(tag, message.Catalog(messages))}
}

// Lang returns the language code.
func (p *Printer) Lang() string { return p.lang }

// T looks key up in the catalog and formats args into it.
func (p *Printer) T(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

// Int formats n with the language's digit grouping.
func (p *Printer) Int(n int) string {
	return p.p.Sprintf("%d", n)
}

// Money formats an amount with grouping; whole amounts have no decimals.
func (p *Printer) Money(d decimal.Decimal, currency string) string {
	var amount string
	if d.Equal(d.Truncate(0)) {
		amount = p.p.Sprintf("%d", d.IntPart())
	} else {
		amount = p.p.Sprintf("%.2f", d.Round(2).InexactFloat64())
	}
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}

// Percent formats a fraction (0.1 -> "+10.0 %").
func (p *Printer) Percent(f float64) string {
	sign := ""
	if f > 0 {
		sign = "+"
	}
	return sign + p.p.Sprintf("%.1f", math.Round(f*1000)/10) + " %"
}

// VariancePct formats a metric percentage including the undefined and
// infinite cases.
func (p *Printer) VariancePct(class models.PctClass, pct *float64) string {
	switch class {
	case models.PctInfinite:
		return p.T("pct.infinite")
	case models.PctUndefined:
		return p.T("pct.undefined")
	}
	if pct == nil {
		return p.T("pct.undefined")
	}
	return p.Percent(*pct)
}

// Date formats t in the language's short date form.
func (p *Printer) Date(t time.Time) string {
	if p.lang == "de" {
		return t.Format("02.01.2006")
	}
	return t.Format("2006-01-02")
}

// Timestamp formats a date with minutes.
func (p *Printer) Timestamp(t time.Time) string {
	if p.lang == "de" {
		return t.Format("02.01.2006 15:04")
	}
	return t.Format("2006-01-02 15:04")
}

// Status returns the localized status name.
func (p *Printer) Status(s models.Status) string { return p.T("status." + s.String()) }

// Risk returns the localized risk level name.
func (p *Printer) Risk(r models.RiskLevel) string { return p.T("risk." + r.String()) }

// ReportTitle returns the localized title of a report type.
func (p *Printer) ReportTitle(t models.ReportType) string { return p.T("title." + string(t)) }

// Insight renders a deterministic finding as a sentence.
func (p *Printer) Insight(in models.Insight) string {
	key := "insight." + string(in.Code)
	switch in.Code {
	case models.InsightCriticalProjects, models.InsightZeroPlanWithSpending:
		return p.T(key, p.Int(int(in.Value)))
	case models.InsightExtremeDeviation, models.InsightBestPractice:
		return p.T(key, in.ProjectID, p.Percent(in.Value))
	default:
		return p.T(key, p.Percent(in.Value))
	}
}
