package prompt

import (
	"fmt"
	"strings"

	"controlbot/pkg/core/i18n"
	"controlbot/pkg/models"
)

// ResponseSchemaID names the schema the model answer has to follow.
const ResponseSchemaID = "report_response"

// ReportPromptID returns the registry ID of a report prompt.
func ReportPromptID(t models.ReportType, lang string) string {
	return fmt.Sprintf("report.%s.%s", t, lang)
}

// default output budgets per report type
var defaultMaxTokens = map[models.ReportType]int{
	models.ReportManagementSummary: 2048,
	models.ReportDetailed:          4096,
	models.ReportExecutiveBriefing: 512,
}

// shortList is how many risk and performer entries the shorter reports show.
const shortList = 3

// BriefRequest selects what to write about a summary.
type BriefRequest struct {
	Type                   models.ReportType `json:"type"`
	Language               string            `json:"language"`
	Context                string            `json:"context,omitempty"`
	IncludeRecommendations bool              `json:"include_recommendations"`
	Currency               string            `json:"currency,omitempty"`
	MaxTokens              int               `json:"max_tokens,omitempty"`
}

// ProjectLine is one project as presented to the model.
type ProjectLine struct {
	ID       string
	Plan     string
	Actual   string
	Variance string
	Pct      string
	Risk     string
	Status   string
	Owner    string
}

// Builder renders report briefs from the prompt registry.
type Builder struct {
	registry *Registry
}

// NewBuilder returns a builder reading templates from r.
func NewBuilder(r *Registry) *Builder {
	return &Builder{registry: r}
}

// Build produces the brief for summary. It reads no clock and no global
// state: equal inputs give byte-identical briefs.
func (b *Builder) Build(summary *models.PortfolioSummary, req BriefRequest) (*models.ReportBrief, error) {
	if summary == nil {
		return nil, fmt.Errorf("summary is nil")
	}
	lang, err := i18n.Match(req.Language)
	if err != nil {
		return nil, err
	}
	if _, ok := defaultMaxTokens[req.Type]; !ok {
		return nil, fmt.Errorf("unknown report type %q", req.Type)
	}

	pt, err := b.registry.GetPrompt(ReportPromptID(req.Type, lang))
	if err != nil {
		return nil, err
	}
	schema, err := b.registry.GetSchema(ResponseSchemaID)
	if err != nil {
		return nil, err
	}

	p := i18n.New(lang)
	risk, performers := summary.TopRisk, summary.TopPerformers
	if req.Type != models.ReportDetailed {
		risk, performers = limit(risk, shortList), limit(performers, shortList)
	}

	insights := make([]string, len(summary.Insights))
	for i, in := range summary.Insights {
		insights[i] = p.Insight(in)
	}

	brief := &models.ReportBrief{
		Type:            req.Type,
		Language:        lang,
		Title:           p.ReportTitle(req.Type),
		SystemPrompt:    pt.SystemPrompt,
		Facts:           facts(p, summary, req.Currency),
		KnownProjectIDs: knownIDs(risk, performers, summary.Insights),
		MaxTokens:       req.MaxTokens,
	}
	if brief.MaxTokens <= 0 {
		brief.MaxTokens = defaultMaxTokens[req.Type]
	}
	brief.Sections = sections(p, req, summary, risk, performers, insights)

	vars := NewContext().
		Set("Title", brief.Title).
		Set("Facts", brief.Facts).
		Set("StatusSummary", statusSummary(p, summary)).
		Set("RiskSummary", riskSummary(p, summary)).
		Set("TopRisk", lines(p, risk, req.Currency)).
		Set("TopPerformers", lines(p, performers, req.Currency)).
		Set("Insights", insights).
		Set("Context", strings.TrimSpace(req.Context)).
		Set("IncludeRecommendations", req.IncludeRecommendations).
		Set("Sections", brief.Sections).
		Set("KnownProjectIDs", brief.KnownProjectIDs).
		Set("ResponseSchema", schema.JSONSchema)

	brief.Prompt, err = RenderUserPrompt(pt, vars)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", pt.ID, err)
	}
	return brief, nil
}

func facts(p *i18n.Printer, s *models.PortfolioSummary, currency string) []models.Fact {
	pct := func(v *float64) string {
		if v == nil {
			return p.T("pct.undefined")
		}
		return p.Percent(*v)
	}
	out := []models.Fact{
		{Key: "project_count", Label: p.T("fact.project_count"), Value: p.Int(s.ProjectCount)},
		{Key: "total_plan", Label: p.T("fact.total_plan"), Value: p.Money(s.TotalPlan, currency)},
		{Key: "total_actual", Label: p.T("fact.total_actual"), Value: p.Money(s.TotalActual, currency)},
		{Key: "total_variance", Label: p.T("fact.total_variance"), Value: p.Money(s.TotalVariance, currency)},
		{Key: "overall_pct", Label: p.T("fact.overall_pct"), Value: p.VariancePct(s.OverallPctClass, s.OverallVariancePct)},
		{Key: "average_pct", Label: p.T("fact.average_pct"), Value: pct(s.AverageVariancePct)},
		{Key: "max_pct", Label: p.T("fact.max_pct"), Value: pct(s.MaxVariancePct)},
		{Key: "min_pct", Label: p.T("fact.min_pct"), Value: pct(s.MinVariancePct)},
		{Key: "over_budget", Label: p.T("fact.over_budget"), Value: p.Int(s.OverBudgetCount)},
		{Key: "critical", Label: p.T("fact.critical"), Value: p.Int(s.RiskCount(models.RiskCritical))},
	}
	if s.TotalForecast != nil {
		out = append(out, models.Fact{Key: "total_forecast", Label: p.T("fact.total_forecast"), Value: p.Money(*s.TotalForecast, currency)})
	}
	return out
}

func sections(p *i18n.Printer, req BriefRequest, s *models.PortfolioSummary, risk, performers []models.ProjectMetrics, insights []string) []models.SectionSpec {
	overview := models.SectionSpec{Key: "overview", Title: p.T("section.overview"), Fallback: overviewLine(p, s, req.Currency)}
	status := models.SectionSpec{
		Key: "status", Title: p.T("section.status"),
		Fallback: p.T("fallback.status", statusSummary(p, s), riskSummary(p, s)),
	}
	performerSec := models.SectionSpec{Key: "performers", Title: p.T("section.performers"), Fallback: bulletProjects(p, performers, req.Currency)}
	recommendations := models.SectionSpec{Key: "recommendations", Title: p.T("section.recommendations"), Fallback: bullets(insights, p.T("fallback.no_insight"))}

	switch req.Type {
	case models.ReportExecutiveBriefing:
		lead := []string{overviewLine(p, s, req.Currency)}
		lead = append(lead, insights...)
		if len(lead) > 3 {
			lead = lead[:3]
		}
		return []models.SectionSpec{{Key: "briefing", Title: p.T("section.briefing"), Fallback: bullets(lead, "")}}

	case models.ReportDetailed:
		out := []models.SectionSpec{overview, status}
		for i, pm := range risk {
			out = append(out, models.SectionSpec{
				Key:       fmt.Sprintf("project_%d", i+1),
				Title:     p.T("section.project", pm.ProjectID),
				ProjectID: pm.ProjectID,
				Fallback:  projectLine(p, pm, req.Currency),
			})
		}
		out = append(out, performerSec)
		if req.IncludeRecommendations {
			out = append(out, recommendations)
		}
		atRisk := s.RiskCount(models.RiskHigh) + s.RiskCount(models.RiskCritical)
		return append(out, models.SectionSpec{
			Key: "next_steps", Title: p.T("section.next_steps"), Fallback: p.T("fallback.next_steps", p.Int(atRisk)),
		})

	default:
		out := []models.SectionSpec{
			overview,
			status,
			{Key: "risks", Title: p.T("section.risks"), Fallback: bulletProjects(p, risk, req.Currency)},
			performerSec,
		}
		if req.IncludeRecommendations {
			out = append(out, recommendations)
		}
		return out
	}
}

func overviewLine(p *i18n.Printer, s *models.PortfolioSummary, currency string) string {
	return p.T("fallback.overview",
		p.Int(s.ProjectCount),
		p.Money(s.TotalPlan, currency),
		p.Money(s.TotalActual, currency),
		p.Money(s.TotalVariance, currency),
		p.VariancePct(s.OverallPctClass, s.OverallVariancePct),
	)
}

func projectLine(p *i18n.Printer, pm models.ProjectMetrics, currency string) string {
	return p.T("fallback.project",
		pm.ProjectID,
		p.Money(pm.PlanCost, currency),
		p.Money(pm.ActualCost, currency),
		p.Money(pm.Metric.Variance, currency),
		p.VariancePct(pm.Metric.PctClass, pm.Metric.VariancePct),
		p.Risk(pm.Metric.RiskLevel),
	)
}

func bulletProjects(p *i18n.Printer, projects []models.ProjectMetrics, currency string) string {
	items := make([]string, len(projects))
	for i, pm := range projects {
		items[i] = projectLine(p, pm, currency)
	}
	return bullets(items, p.T("fallback.none"))
}

func bullets(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return "- " + strings.Join(items, "\n- ")
}

func statusSummary(p *i18n.Printer, s *models.PortfolioSummary) string {
	var parts []string
	for _, sc := range s.StatusCounts {
		if sc.Count > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", p.Status(sc.Status), p.Int(sc.Count)))
		}
	}
	if len(parts) == 0 {
		return p.T("fallback.none")
	}
	return strings.Join(parts, ", ")
}

func riskSummary(p *i18n.Printer, s *models.PortfolioSummary) string {
	var parts []string
	// most severe first
	for i := len(s.RiskCounts) - 1; i >= 0; i-- {
		rc := s.RiskCounts[i]
		if rc.Count > 0 {
			parts = append(parts, fmt.Sprintf("%s %s", p.Risk(rc.Level), p.Int(rc.Count)))
		}
	}
	if len(parts) == 0 {
		return p.T("fallback.none")
	}
	return strings.Join(parts, ", ")
}

func lines(p *i18n.Printer, projects []models.ProjectMetrics, currency string) []ProjectLine {
	out := make([]ProjectLine, len(projects))
	for i, pm := range projects {
		out[i] = ProjectLine{
			ID:       pm.ProjectID,
			Plan:     p.Money(pm.PlanCost, currency),
			Actual:   p.Money(pm.ActualCost, currency),
			Variance: p.Money(pm.Metric.Variance, currency),
			Pct:      p.VariancePct(pm.Metric.PctClass, pm.Metric.VariancePct),
			Risk:     p.Risk(pm.Metric.RiskLevel),
			Status:   p.Status(pm.Status),
			Owner:    pm.Owner,
		}
	}
	return out
}

// knownIDs lists every project id the brief presents, in order of
// appearance and without duplicates.
func knownIDs(risk, performers []models.ProjectMetrics, insights []models.Insight) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, pm := range risk {
		add(pm.ProjectID)
	}
	for _, pm := range performers {
		add(pm.ProjectID)
	}
	for _, in := range insights {
		add(in.ProjectID)
	}
	return ids
}

func limit(projects []models.ProjectMetrics, n int) []models.ProjectMetrics {
	if len(projects) > n {
		return projects[:n]
	}
	return projects
}
