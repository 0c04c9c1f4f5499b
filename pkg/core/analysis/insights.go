package analysis

import (
	"controlbot/pkg/models"
)

// Insight rule bounds, as fractions.
const (
	portfolioCriticalPct = 0.10
	systematicAvgPct     = 0.05
	extremeProjectPct    = 0.20
	bestPracticePct      = -0.10
)

// Insights derives the deterministic findings for a summary. The order of
// the returned list is fixed: portfolio, critical count, average, extremes,
// zero-plan projects.
func Insights(s *models.PortfolioSummary, projects []models.ProjectMetrics) []models.Insight {
	var out []models.Insight

	if s.OverallPctClass == models.PctFinite && s.OverallVariancePct != nil {
		pct := *s.OverallVariancePct
		switch {
		case pct > portfolioCriticalPct:
			out = append(out, models.Insight{Code: models.InsightPortfolioOverBudget, Severity: "critical", Value: pct})
		case pct > 0:
			out = append(out, models.Insight{Code: models.InsightPortfolioWarning, Severity: "warning", Value: pct})
		case pct < 0:
			out = append(out, models.Insight{Code: models.InsightPortfolioSavings, Severity: "positive", Value: pct})
		}
	}

	if n := s.RiskCount(models.RiskCritical); n > 0 {
		out = append(out, models.Insight{Code: models.InsightCriticalProjects, Severity: "critical", Value: float64(n)})
	}

	if s.AverageVariancePct != nil && *s.AverageVariancePct > systematicAvgPct {
		out = append(out, models.Insight{Code: models.InsightSystematicDeviation, Severity: "warning", Value: *s.AverageVariancePct})
	}

	if s.MaxVariancePct != nil && *s.MaxVariancePct > extremeProjectPct {
		out = append(out, models.Insight{
			Code: models.InsightExtremeDeviation, Severity: "critical",
			Value: *s.MaxVariancePct, ProjectID: projectWithPct(projects, *s.MaxVariancePct),
		})
	}
	if s.MinVariancePct != nil && *s.MinVariancePct < bestPracticePct {
		out = append(out, models.Insight{
			Code: models.InsightBestPractice, Severity: "positive",
			Value: *s.MinVariancePct, ProjectID: projectWithPct(projects, *s.MinVariancePct),
		})
	}

	zeroPlan := 0
	for _, p := range projects {
		if p.Metric.PctClass == models.PctInfinite {
			zeroPlan++
		}
	}
	if zeroPlan > 0 {
		out = append(out, models.Insight{Code: models.InsightZeroPlanWithSpending, Severity: "warning", Value: float64(zeroPlan)})
	}
	return out
}

// projectWithPct returns the smallest project id having exactly pct.
func projectWithPct(projects []models.ProjectMetrics, pct float64) string {
	id := ""
	for _, p := range projects {
		if p.Metric.VariancePct == nil || *p.Metric.VariancePct != pct {
			continue
		}
		if id == "" || p.ProjectID < id {
			id = p.ProjectID
		}
	}
	return id
}
