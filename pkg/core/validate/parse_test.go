package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlbot/pkg/models"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"plain integer", "150000", "150000"},
		{"float cell", 165000.0, "165000"},
		{"int cell", 42, "42"},
		{"german grouping and decimal", "1.234,56", "1234.56"},
		{"english grouping and decimal", "1,234.56", "1234.56"},
		{"last separator is decimal", "150.000", "150"},
		{"comma decimal", "0,5", "0.5"},
		{"repeated dots are grouping", "1.234.567", "1234567"},
		{"repeated commas are grouping", "1,234,567", "1234567"},
		{"euro symbol", "€ 1.200,00", "1200"},
		{"currency code suffix", "2.500,75 EUR", "2500.75"},
		{"attached code suffix", "150000EUR", "150000"},
		{"attached code prefix", "EUR150000", "150000"},
		{"attached code after decimals", "150.000,00EUR", "150000"},
		{"attached swiss code", "CHF150000", "150000"},
		{"attached euro word", "150000Euro", "150000"},
		{"code after multiplier", "1,5 Mio. EUR", "1500000"},
		{"attached teur", "250TEUR", "250000"},
		{"dollar", "$1,500.25", "1500.25"},
		{"swiss apostrophe", "CHF 1'250'000", "1250000"},
		{"non-breaking space", "1 250,5", "1250.5"},
		{"k suffix", "12k", "12000"},
		{"mio suffix", "1,5 Mio. €", "1500000"},
		{"teur", "250 TEUR", "250000"},
		{"negative", "-500", "-500"},
		{"accounting negative", "(1.000,00)", "-1000"},
		{"sap trailing minus", "300-", "-300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNumber(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestParseNumberRejects(t *testing.T) {
	for _, input := range []any{"n/a", "abc", "12%", "1.2.3,4,5x", true} {
		_, err := ParseNumber(input)
		assert.ErrorIs(t, err, ErrNotNumeric, "input %v", input)
	}
	_, err := ParseNumber("   ")
	assert.True(t, errors.Is(err, ErrBlank))
	_, err = ParseNumber(nil)
	assert.True(t, errors.Is(err, ErrBlank))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	for _, input := range []any{"15.03.2024", "2024-03-15", "15-03-2024", "03/15/2024", "15/03/2024", "2024/03/15", want} {
		got, err := ParseDate(input)
		require.NoError(t, err, "input %v", input)
		assert.True(t, want.Equal(got), "input %v gave %v", input, got)
	}

	month, err := ParseDate("März 2024")
	require.NoError(t, err)
	assert.Equal(t, time.March, month.Month())

	year, err := ParseDate(2025.0)
	require.NoError(t, err)
	assert.Equal(t, 2025, year.Year())

	serial, err := ParseDate(45366.0)
	require.NoError(t, err)
	assert.Equal(t, 2024, serial.Year())

	_, err = ParseDate("sometime soon")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseStatus(t *testing.T) {
	tests := map[string]models.Status{
		"In Arbeit":      models.StatusInProgress,
		"in_progress":    models.StatusInProgress,
		"Abgeschlossen":  models.StatusCompleted,
		"DONE":           models.StatusCompleted,
		"On Hold":        models.StatusOnHold,
		"zurückgestellt": models.StatusOnHold,
		"Storniert":      models.StatusCancelled,
		"canceled":       models.StatusCancelled,
		"geplant":        models.StatusPlanned,
		"TEIL":           models.StatusInProgress,
	}
	for input, want := range tests {
		got, ok := ParseStatus(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	got, ok := ParseStatus("irgendwas")
	assert.False(t, ok)
	assert.Equal(t, models.StatusUnknown, got)
}
