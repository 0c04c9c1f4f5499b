package analysis

import (
	"math"

	"github.com/shopspring/decimal"

	"controlbot/pkg/models"
)

const (
	// DefaultTopN is the length of the top risk and top performer lists.
	DefaultTopN = 5
	// MaxTopN bounds the ranking lists.
	MaxTopN = 100
)

// ValidateThresholds requires finite, strictly ascending bounds.
func ValidateThresholds(t models.Thresholds) error {
	for _, b := range []struct {
		name string
		v    float64
	}{{"low", t.Low}, {"medium", t.Medium}, {"high", t.High}} {
		if math.IsNaN(b.v) || math.IsInf(b.v, 0) {
			return &models.ConfigurationError{Field: "analysis.thresholds." + b.name, Reason: "must be a finite number"}
		}
	}
	if !(t.Low < t.Medium && t.Medium < t.High) {
		return &models.ConfigurationError{
			Field:  "analysis.thresholds",
			Reason: "must be strictly ascending (low < medium < high)",
		}
	}
	return nil
}

// ValidateTopN bounds the ranking length.
func ValidateTopN(n int) error {
	if n < 1 || n > MaxTopN {
		return &models.ConfigurationError{Field: "analysis.top_n", Reason: "must be between 1 and 100"}
	}
	return nil
}

// classifier compares exact decimal percentages against the bounds, so a
// project at exactly 5 % stays Low.
type classifier struct {
	low, medium, high decimal.Decimal
}

func newClassifier(t models.Thresholds) classifier {
	return classifier{
		low:    decimal.NewFromFloat(t.Low),
		medium: decimal.NewFromFloat(t.Medium),
		high:   decimal.NewFromFloat(t.High),
	}
}

func (c classifier) level(pct decimal.Decimal) models.RiskLevel {
	switch {
	case pct.LessThanOrEqual(c.low):
		return models.RiskLow
	case pct.LessThanOrEqual(c.medium):
		return models.RiskMedium
	case pct.LessThanOrEqual(c.high):
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}
