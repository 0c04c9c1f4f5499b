// Package analysis computes per-project variance metrics, the portfolio
// summary and the top risk / top performer rankings.
package analysis

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"controlbot/pkg/models"
)

// AnalysisEngine turns validated records into metrics and a summary.
// It holds only configuration and is safe for concurrent use.
type AnalysisEngine struct {
	thresholds models.Thresholds
	classifier classifier
	topN       int
}

// NewAnalysisEngine validates the configuration up front.
func NewAnalysisEngine(thresholds models.Thresholds, topN int) (*AnalysisEngine, error) {
	if err := ValidateThresholds(thresholds); err != nil {
		return nil, err
	}
	if err := ValidateTopN(topN); err != nil {
		return nil, err
	}
	return &AnalysisEngine{thresholds: thresholds, classifier: newClassifier(thresholds), topN: topN}, nil
}

// Analysis is the numeric result of one run.
type Analysis struct {
	Projects []models.ProjectMetrics  `json:"projects"`
	Summary  *models.PortfolioSummary `json:"summary"`
}

// Analyze computes every metric and aggregate in one pass over records,
// then ranks. The result depends only on records and the configuration.
func (e *AnalysisEngine) Analyze(ctx context.Context, records []models.ProjectRecord) *Analysis {
	acc := newAccumulator()
	projects := make([]models.ProjectMetrics, 0, len(records))

	for _, rec := range records {
		m := computeMetric(rec, e.classifier)
		acc.add(rec, m)
		projects = append(projects, models.ProjectMetrics{ProjectRecord: rec, Metric: m.VarianceMetric})
	}

	summary := acc.summary()
	summary.Thresholds = e.thresholds
	summary.TopN = e.topN
	summary.TopRisk = TopRisk(projects, e.topN)
	summary.TopPerformers = TopPerformers(projects, e.topN)
	summary.Insights = Insights(summary, projects)

	zerolog.Ctx(ctx).Debug().
		Str("stage", "analyze").
		Int("projects", summary.ProjectCount).
		Int("critical", summary.RiskCount(models.RiskCritical)).
		Int("over_budget", summary.OverBudgetCount).
		Msg("portfolio analyzed")

	return &Analysis{Projects: projects, Summary: summary}
}

type accumulator struct {
	count         int
	plan, actual  decimal.Decimal
	forecast      decimal.Decimal
	haveForecast  bool
	pctSum        decimal.Decimal
	pctCount      int
	maxPct        *decimal.Decimal
	minPct        *decimal.Decimal
	overBudget    int
	statusCounts  map[models.Status]int
	riskCounts    map[models.RiskLevel]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		statusCounts: make(map[models.Status]int),
		riskCounts:   make(map[models.RiskLevel]int),
	}
}

func (a *accumulator) add(rec models.ProjectRecord, m metric) {
	a.count++
	a.plan = a.plan.Add(rec.PlanCost)
	a.actual = a.actual.Add(rec.ActualCost)
	if rec.ForecastCost != nil {
		a.forecast = a.forecast.Add(*rec.ForecastCost)
		a.haveForecast = true
	}
	if m.Variance.IsPositive() {
		a.overBudget++
	}
	a.statusCounts[rec.Status]++
	a.riskCounts[m.RiskLevel]++

	if m.PctClass != models.PctFinite {
		return
	}
	pct := m.pct
	a.pctSum = a.pctSum.Add(pct)
	a.pctCount++
	if a.maxPct == nil || pct.GreaterThan(*a.maxPct) {
		a.maxPct = &pct
	}
	if a.minPct == nil || pct.LessThan(*a.minPct) {
		a.minPct = &pct
	}
}

func (a *accumulator) summary() *models.PortfolioSummary {
	s := &models.PortfolioSummary{
		ProjectCount:    a.count,
		TotalPlan:       a.plan,
		TotalActual:     a.actual,
		TotalVariance:   a.actual.Sub(a.plan),
		OverBudgetCount: a.overBudget,
		MaxVariancePct:  floatPtr(a.maxPct),
		MinVariancePct:  floatPtr(a.minPct),
	}
	if a.haveForecast {
		f := a.forecast
		s.TotalForecast = &f
	}

	switch {
	case a.plan.IsZero() && a.actual.IsZero():
		s.OverallPctClass = models.PctUndefined
	case a.plan.IsZero():
		s.OverallPctClass = models.PctInfinite
	default:
		s.OverallPctClass = models.PctFinite
		overall := s.TotalVariance.DivRound(a.plan, pctPrecision)
		s.OverallVariancePct = floatPtr(&overall)
	}

	if a.pctCount > 0 {
		avg := a.pctSum.DivRound(decimal.NewFromInt(int64(a.pctCount)), pctPrecision)
		s.AverageVariancePct = floatPtr(&avg)
	}

	for _, status := range models.AllStatuses {
		s.StatusCounts = append(s.StatusCounts, models.StatusCount{Status: status, Count: a.statusCounts[status]})
	}
	for _, level := range models.AllRiskLevels {
		s.RiskCounts = append(s.RiskCounts, models.RiskCount{Level: level, Count: a.riskCounts[level]})
	}
	return s
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
