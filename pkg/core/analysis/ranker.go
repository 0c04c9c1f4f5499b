package analysis

import (
	"sort"

	"controlbot/pkg/models"
)

// TopRisk returns up to n non-cancelled projects ordered by variance
// percentage descending. Infinite percentages come first, undefined ones
// last. Ties break on larger absolute variance, then on project id.
func TopRisk(projects []models.ProjectMetrics, n int) []models.ProjectMetrics {
	candidates := filter(projects, func(p models.ProjectMetrics) bool {
		return p.Status != models.StatusCancelled
	})
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ra, rb := riskRank(a), riskRank(b); ra != rb {
			return ra > rb
		}
		if a.Metric.PctClass == models.PctFinite && *a.Metric.VariancePct != *b.Metric.VariancePct {
			return *a.Metric.VariancePct > *b.Metric.VariancePct
		}
		return tieBreak(a, b)
	})
	return head(candidates, n)
}

// TopPerformers returns up to n non-cancelled projects with a finite
// percentage, ordered ascending (largest savings first).
func TopPerformers(projects []models.ProjectMetrics, n int) []models.ProjectMetrics {
	candidates := filter(projects, func(p models.ProjectMetrics) bool {
		return p.Status != models.StatusCancelled && p.Metric.PctClass == models.PctFinite
	})
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if *a.Metric.VariancePct != *b.Metric.VariancePct {
			return *a.Metric.VariancePct < *b.Metric.VariancePct
		}
		return tieBreak(a, b)
	})
	return head(candidates, n)
}

func riskRank(p models.ProjectMetrics) int {
	switch p.Metric.PctClass {
	case models.PctInfinite:
		return 2
	case models.PctFinite:
		return 1
	default:
		return 0
	}
}

// tieBreak is a total order on the remaining fields, so the result does
// not depend on input order.
func tieBreak(a, b models.ProjectMetrics) bool {
	va, vb := a.Metric.Variance.Abs(), b.Metric.Variance.Abs()
	if !va.Equal(vb) {
		return va.GreaterThan(vb)
	}
	if a.ProjectID != b.ProjectID {
		return a.ProjectID < b.ProjectID
	}
	if !a.PlanCost.Equal(b.PlanCost) {
		return a.PlanCost.LessThan(b.PlanCost)
	}
	return a.ActualCost.LessThan(b.ActualCost)
}

func filter(projects []models.ProjectMetrics, keep func(models.ProjectMetrics) bool) []models.ProjectMetrics {
	out := make([]models.ProjectMetrics, 0, len(projects))
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func head(projects []models.ProjectMetrics, n int) []models.ProjectMetrics {
	if n < len(projects) {
		return projects[:n]
	}
	return projects
}
