package report

import (
	"strconv"

	"controlbot/pkg/core/i18n"
	"controlbot/pkg/models"
)

// BuildTables renders the tabular evidence of a report. Everything comes
// from the computed analysis; model output never reaches these cells.
func BuildTables(p *i18n.Printer, summary *models.PortfolioSummary, facts []models.Fact, projects []models.ProjectMetrics, issues []models.ValidationIssue, currency string) []models.Table {
	if summary == nil {
		return nil
	}
	tables := []models.Table{
		overviewTable(p, facts),
		{
			Key:     "status",
			Title:   p.T("table.status"),
			Columns: []string{p.T("col.status"), p.T("col.count")},
			Rows:    statusRows(p, summary),
		},
		{
			Key:     "risk",
			Title:   p.T("table.risk"),
			Columns: []string{p.T("col.risk"), p.T("col.count")},
			Rows:    riskRows(p, summary),
		},
		rankedTable(p, "top_risk", summary.TopRisk, currency),
		rankedTable(p, "top_performers", summary.TopPerformers, currency),
	}
	if len(projects) > 0 {
		tables = append(tables, projectTable(p, projects, currency))
	}
	if len(issues) > 0 {
		tables = append(tables, issueTable(p, issues))
	}
	return tables
}

func overviewTable(p *i18n.Printer, facts []models.Fact) models.Table {
	t := models.Table{
		Key:     "overview",
		Title:   p.T("table.overview"),
		Columns: []string{p.T("col.metric"), p.T("col.value")},
	}
	for _, f := range facts {
		t.Rows = append(t.Rows, []string{f.Label, f.Value})
	}
	return t
}

func statusRows(p *i18n.Printer, s *models.PortfolioSummary) [][]string {
	var rows [][]string
	for _, sc := range s.StatusCounts {
		if sc.Count > 0 {
			rows = append(rows, []string{p.Status(sc.Status), p.Int(sc.Count)})
		}
	}
	return rows
}

func riskRows(p *i18n.Printer, s *models.PortfolioSummary) [][]string {
	rows := make([][]string, 0, len(s.RiskCounts))
	for _, rc := range s.RiskCounts {
		rows = append(rows, []string{p.Risk(rc.Level), p.Int(rc.Count)})
	}
	return rows
}

func rankedTable(p *i18n.Printer, key string, projects []models.ProjectMetrics, currency string) models.Table {
	t := models.Table{
		Key:   key,
		Title: p.T("table." + key),
		Columns: []string{
			"#", p.T("col.project"), p.T("col.plan"), p.T("col.actual"),
			p.T("col.variance"), p.T("col.variance_pct"), p.T("col.risk"), p.T("col.status"),
		},
	}
	for i, pm := range projects {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			pm.ProjectID,
			p.Money(pm.PlanCost, currency),
			p.Money(pm.ActualCost, currency),
			p.Money(pm.Metric.Variance, currency),
			p.VariancePct(pm.Metric.PctClass, pm.Metric.VariancePct),
			p.Risk(pm.Metric.RiskLevel),
			p.Status(pm.Status),
		})
	}
	return t
}

func projectTable(p *i18n.Printer, projects []models.ProjectMetrics, currency string) models.Table {
	t := models.Table{
		Key:   "projects",
		Title: p.T("table.projects"),
		Columns: []string{
			p.T("col.project"), p.T("col.plan"), p.T("col.actual"), p.T("col.forecast"),
			p.T("col.variance"), p.T("col.variance_pct"), p.T("col.risk"), p.T("col.status"),
			p.T("col.owner"), p.T("col.department"),
		},
	}
	for _, pm := range projects {
		forecast := ""
		if pm.ForecastCost != nil {
			forecast = p.Money(*pm.ForecastCost, currency)
		}
		t.Rows = append(t.Rows, []string{
			pm.ProjectID,
			p.Money(pm.PlanCost, currency),
			p.Money(pm.ActualCost, currency),
			forecast,
			p.Money(pm.Metric.Variance, currency),
			p.VariancePct(pm.Metric.PctClass, pm.Metric.VariancePct),
			p.Risk(pm.Metric.RiskLevel),
			p.Status(pm.Status),
			pm.Owner,
			pm.Department,
		})
	}
	return t
}

func issueTable(p *i18n.Printer, issues []models.ValidationIssue) models.Table {
	t := models.Table{
		Key:   "issues",
		Title: p.T("table.issues"),
		Columns: []string{
			p.T("col.row"), p.T("col.field"), p.T("col.reason"), p.T("col.severity"), p.T("col.input"),
		},
	}
	for _, is := range issues {
		t.Rows = append(t.Rows, []string{
			p.Int(is.Row),
			is.Field,
			p.T("reason." + string(is.Reason)),
			p.T("severity." + string(is.Severity)),
			is.Value,
		})
	}
	return t
}
