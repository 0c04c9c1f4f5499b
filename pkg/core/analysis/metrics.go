package analysis

import (
	"github.com/shopspring/decimal"

	"controlbot/pkg/models"
)

// pctPrecision is the number of decimal places kept for variance ratios.
const pctPrecision = 12

// metric carries the exact ratio next to the public VarianceMetric.
type metric struct {
	models.VarianceMetric
	pct decimal.Decimal // valid only for PctFinite
}

func computeMetric(rec models.ProjectRecord, c classifier) metric {
	variance := rec.ActualCost.Sub(rec.PlanCost)
	m := metric{VarianceMetric: models.VarianceMetric{Variance: variance}}

	switch {
	case rec.PlanCost.IsZero() && rec.ActualCost.IsZero():
		m.PctClass = models.PctUndefined
		m.RiskLevel = models.RiskLow
	case rec.PlanCost.IsZero():
		m.PctClass = models.PctInfinite
		m.RiskLevel = models.RiskCritical
	default:
		m.pct = variance.DivRound(rec.PlanCost, pctPrecision)
		f := m.pct.InexactFloat64()
		m.VariancePct = &f
		m.PctClass = models.PctFinite
		m.RiskLevel = c.level(m.pct)
	}

	if rec.Status == models.StatusCancelled {
		m.RiskLevel = models.RiskLow
	}
	return m
}

// ComputeMetric derives the variance metric of a single record.
func ComputeMetric(rec models.ProjectRecord, t models.Thresholds) models.VarianceMetric {
	return computeMetric(rec, newClassifier(t)).VarianceMetric
}
