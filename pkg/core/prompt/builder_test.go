package prompt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlbot/pkg/core/analysis"
	"controlbot/pkg/models"
)

func portfolio(t *testing.T) *models.PortfolioSummary {
	t.Helper()
	rec := func(id string, plan, actual int64, status models.Status) models.ProjectRecord {
		return models.ProjectRecord{ProjectID: id, PlanCost: decimal.NewFromInt(plan), ActualCost: decimal.NewFromInt(actual), Status: status}
	}
	engine, err := analysis.NewAnalysisEngine(models.DefaultThresholds(), analysis.DefaultTopN)
	require.NoError(t, err)
	return engine.Analyze(context.Background(), []models.ProjectRecord{
		rec("ERP", 150000, 165000, models.StatusInProgress),
		rec("CRM", 80000, 120000, models.StatusInProgress),
		rec("Web", 50000, 48000, models.StatusCompleted),
	}).Summary
}

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	r, err := DefaultRegistry()
	require.NoError(t, err)
	return NewBuilder(r)
}

func sectionKeys(b *models.ReportBrief) []string {
	keys := make([]string, len(b.Sections))
	for i, s := range b.Sections {
		keys[i] = s.Key
	}
	return keys
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, len(models.ReportTypes)*2, r.Count())
	for _, rt := range models.ReportTypes {
		for _, lang := range []string{"de", "en"} {
			pt, err := r.GetPrompt(ReportPromptID(rt, lang))
			require.NoError(t, err)
			assert.Equal(t, "report", pt.Category)
			assert.NotEmpty(t, pt.SystemPrompt)
		}
	}
	_, err = r.GetSchema(ResponseSchemaID)
	assert.NoError(t, err)

	reports := r.ListByCategory(CategoryReport)
	require.Len(t, reports, len(models.ReportTypes)*2)
	for i := 1; i < len(reports); i++ {
		assert.Less(t, reports[i-1].ID, reports[i].ID)
	}
	assert.Empty(t, r.ListByCategory("valuation"))
}

func TestBuildManagementSummary(t *testing.T) {
	b := newBuilder(t)
	summary := portfolio(t)

	brief, err := b.Build(summary, BriefRequest{
		Type: models.ReportManagementSummary, Language: "de-DE", IncludeRecommendations: true, Currency: "EUR",
	})
	require.NoError(t, err)

	assert.Equal(t, "de", brief.Language)
	assert.Equal(t, []string{"overview", "status", "risks", "performers", "recommendations"}, sectionKeys(brief))
	assert.Equal(t, []string{"CRM", "ERP", "Web"}, brief.KnownProjectIDs)
	assert.Equal(t, 2048, brief.MaxTokens)

	assert.Contains(t, brief.SystemPrompt, "Projektcontroller")
	assert.Contains(t, brief.Prompt, "GESAMTÜBERSICHT")
	assert.Contains(t, brief.Prompt, "165.000 EUR")
	assert.Contains(t, brief.Prompt, `"recommendations"`)
	assert.Contains(t, brief.Prompt, "referenced_project_ids")
	assert.NotContains(t, brief.Prompt, "ZUSÄTZLICHER KONTEXT")

	var total string
	for _, f := range brief.Facts {
		if f.Key == "total_actual" {
			total = f.Value
		}
	}
	assert.Equal(t, "333.000 EUR", total)

	for _, s := range brief.Sections {
		assert.NotEmpty(t, s.Fallback, s.Key)
	}
}

func TestBuildIsPure(t *testing.T) {
	b := newBuilder(t)
	summary := portfolio(t)
	req := BriefRequest{Type: models.ReportDetailed, Language: "en", IncludeRecommendations: true, Context: "Q3 review"}

	first, err := b.Build(summary, req)
	require.NoError(t, err)
	second, err := b.Build(summary, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first.Prompt, "ADDITIONAL CONTEXT\nQ3 review")
}

func TestBuildDetailedReportHasSectionPerRiskProject(t *testing.T) {
	brief, err := newBuilder(t).Build(portfolio(t), BriefRequest{Type: models.ReportDetailed, Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, []string{"overview", "status", "project_1", "project_2", "project_3", "performers", "next_steps"}, sectionKeys(brief))
	assert.Equal(t, "CRM", brief.Sections[2].ProjectID)
	assert.Equal(t, "Project CRM", brief.Sections[2].Title)
	assert.Contains(t, brief.Sections[2].Fallback, "risk Critical")
}

func TestBuildExecutiveBriefing(t *testing.T) {
	brief, err := newBuilder(t).Build(portfolio(t), BriefRequest{Type: models.ReportExecutiveBriefing, Language: "en"})
	require.NoError(t, err)

	require.Equal(t, []string{"briefing"}, sectionKeys(brief))
	assert.Equal(t, 512, brief.MaxTokens)
	assert.Contains(t, brief.Prompt, "exactly 3 bullet points")
}

func TestBuildRejectsBadRequests(t *testing.T) {
	b := newBuilder(t)
	_, err := b.Build(portfolio(t), BriefRequest{Type: models.ReportManagementSummary, Language: "fr"})
	assert.Error(t, err)

	_, err = b.Build(portfolio(t), BriefRequest{Type: "weekly", Language: "de"})
	assert.Error(t, err)

	_, err = b.Build(nil, BriefRequest{Type: models.ReportManagementSummary, Language: "de"})
	assert.Error(t, err)
}

func TestLoadFromDirectoryOverridesBuiltins(t *testing.T) {
	dir := t.TempDir()
	promptDir := filepath.Join(dir, "prompts", "report")
	require.NoError(t, os.MkdirAll(promptDir, 0o755))
	custom := `{"system_prompt": "House style.", "user_prompt_template": "Facts: {{len .Facts}}"}`
	require.NoError(t, os.WriteFile(filepath.Join(promptDir, "executive_briefing.en.json"), []byte(custom), 0o644))

	r, err := DefaultRegistry()
	require.NoError(t, err)
	require.NoError(t, LoadFromDirectory(r, dir))

	brief, err := NewBuilder(r).Build(portfolio(t), BriefRequest{Type: models.ReportExecutiveBriefing, Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "House style.", brief.SystemPrompt)
	assert.Equal(t, "Facts: 10", brief.Prompt)

	assert.Error(t, LoadFromDirectory(r, filepath.Join(dir, "missing")))
}
