package i18n

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlbot/pkg/models"
)

func TestMatch(t *testing.T) {
	for tag, want := range map[string]string{"de": "de", "de-DE": "de", "de-AT": "de", "en": "en", "en-GB": "en"} {
		got, err := Match(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, got, tag)
	}
	_, err := Match("fr")
	assert.Error(t, err)
	_, err = Match("not a tag!")
	assert.Error(t, err)
}

func TestPrinterLocalizesLabels(t *testing.T) {
	de := New("de")
	en := New("en")
	assert.Equal(t, "In Arbeit", de.Status(models.StatusInProgress))
	assert.Equal(t, "In progress", en.Status(models.StatusInProgress))
	assert.Equal(t, "Kritisch", de.Risk(models.RiskCritical))
	assert.Equal(t, "Projekt ERP", de.T("section.project", "ERP"))
	assert.Equal(t, "en", New("xx").Lang())
}

func TestPrinterFormatsNumbers(t *testing.T) {
	de := New("de")
	en := New("en")
	assert.Equal(t, "165.000", de.Money(decimal.NewFromInt(165000), ""))
	assert.Equal(t, "165,000 EUR", en.Money(decimal.NewFromInt(165000), "EUR"))
	assert.Equal(t, "1.234.567", de.Int(1234567))
	assert.Equal(t, en.T("pct.infinite"), en.VariancePct(models.PctInfinite, nil))
	assert.Contains(t, en.Percent(0.1), "+10")
}

func TestCatalogIsComplete(t *testing.T) {
	for key, tx := range texts {
		assert.NotEmpty(t, tx.de, key)
		assert.NotEmpty(t, tx.en, key)
	}
	for _, s := range models.AllStatuses {
		_, ok := texts["status."+s.String()]
		assert.True(t, ok, s.String())
	}
	for _, rt := range models.ReportTypes {
		_, ok := texts["title."+string(rt)]
		assert.True(t, ok, rt)
	}
}
