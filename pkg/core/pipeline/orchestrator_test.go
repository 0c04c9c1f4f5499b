package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlbot/pkg/core/agent"
	"controlbot/pkg/core/analysis"
	"controlbot/pkg/core/config"
	"controlbot/pkg/core/llm"
	"controlbot/pkg/core/prompt"
	"controlbot/pkg/core/report"
	"controlbot/pkg/core/schema"
	"controlbot/pkg/models"
)

// --- Mocks ---

type MockAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, records []models.ProjectRecord) *analysis.Analysis
}

func (m *MockAnalyzer) Analyze(ctx context.Context, records []models.ProjectRecord) *analysis.Analysis {
	return m.AnalyzeFunc(ctx, records)
}

type MockResolver struct {
	ResolveFunc func(agentType string) (llm.Provider, string, llm.Options, error)
	Named       map[string]llm.Provider
}

func (m *MockResolver) Resolve(agentType string) (llm.Provider, string, llm.Options, error) {
	return m.ResolveFunc(agentType)
}

func (m *MockResolver) GetProviderByName(name string) llm.Provider {
	return m.Named[name]
}

type MockGenerator struct {
	GenerateFunc func(ctx context.Context, in report.Input) (*models.ReportPayload, error)
	calls        []report.Input
}

func (m *MockGenerator) Generate(ctx context.Context, in report.Input) (*models.ReportPayload, error) {
	m.calls = append(m.calls, in)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, in)
	}
	return &models.ReportPayload{Type: in.Brief.Type, Language: in.Brief.Language, Provider: in.ProviderName}, nil
}

type MockProvider struct{}

func (MockProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, opts llm.Options) (string, error) {
	return "{}", nil
}

func (MockProvider) AdaptInstructions(prompt string) string { return prompt }

// --- Fixtures ---

func portfolioTable() models.RawTable {
	headers := []string{"Projekt", "Budget", "Ist", "Status", "Bemerkung"}
	rows := [][]any{
		{"ERP", "150.000,00", "165.000,00", "In Arbeit", ""},
		{"CRM", 80000.0, 120000.0, "in progress", "Scope"},
		{"Web", "50000", "48000", "abgeschlossen", ""},
		{"", "", "", "", ""},
		{"BI", "40000", "n/a", "geplant", ""},
	}
	t := models.RawTable{Name: "portfolio.csv", Headers: headers}
	for _, r := range rows {
		row := models.RawRow{}
		for i, v := range r {
			row[headers[i]] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func newOrchestrator(t *testing.T, resolver ProviderResolver, gen ReportGenerator) *PipelineOrchestrator {
	t.Helper()
	engine, err := analysis.NewAnalysisEngine(models.DefaultThresholds(), analysis.DefaultTopN)
	require.NoError(t, err)
	reg, err := prompt.DefaultRegistry()
	require.NoError(t, err)
	return NewPipelineOrchestrator(engine, prompt.NewBuilder(reg), resolver, gen)
}

// --- Tests ---

func TestAnalyzeComputesSummaryAndStats(t *testing.T) {
	p := newOrchestrator(t, nil, nil)

	res, err := p.Analyze(context.Background(), portfolioTable(), MappingRequest{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, Stats{TotalRows: 5, BlankRows: 1, Accepted: 3, Rejected: 1, Issues: 1}, res.Stats)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, 5, res.Issues[0].Row)
	assert.Equal(t, models.ReasonNotNumeric, res.Issues[0].Reason)

	require.NotNil(t, res.Summary)
	assert.Equal(t, 3, res.Summary.ProjectCount)
	assert.Equal(t, "280000", res.Summary.TotalPlan.String())
	assert.Equal(t, "333000", res.Summary.TotalActual.String())
	require.NotEmpty(t, res.Summary.TopRisk)
	assert.Equal(t, "CRM", res.Summary.TopRisk[0].ProjectID)

	header, ok := res.Mapping.Header(schema.FieldPlanCost)
	require.True(t, ok)
	assert.Equal(t, "Budget", header)
}

func TestAnalyzeSingleSeparatorIsDecimal(t *testing.T) {
	p := newOrchestrator(t, nil, nil)
	table := models.RawTable{
		Name:    "plain.csv",
		Headers: []string{"Projekt", "Budget", "Ist"},
		Rows: []models.RawRow{
			{"Projekt": "ERP", "Budget": "150.000", "Ist": "165.000"},
			{"Projekt": "CRM", "Budget": "1.500.000", "Ist": "1.650.000"},
		},
	}

	res, err := p.Analyze(context.Background(), table, MappingRequest{})
	require.NoError(t, err)
	require.Len(t, res.Projects, 2)

	assert.Equal(t, "150", res.Projects[0].PlanCost.String())
	assert.Equal(t, "165", res.Projects[0].ActualCost.String())
	assert.Equal(t, "1500000", res.Projects[1].PlanCost.String())
	assert.Equal(t, "1501650", res.Summary.TotalActual.String())
}

func TestAnalyzeFreshRunIDs(t *testing.T) {
	p := newOrchestrator(t, nil, nil)
	a, err := p.Analyze(context.Background(), portfolioTable(), MappingRequest{})
	require.NoError(t, err)
	b, err := p.Analyze(context.Background(), portfolioTable(), MappingRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestAnalyzeMissingRequiredColumn(t *testing.T) {
	p := newOrchestrator(t, nil, nil)
	tbl := models.RawTable{Headers: []string{"Projekt", "Budget", "Kommentar"}}

	_, err := p.Analyze(context.Background(), tbl, MappingRequest{})
	var mErr *schema.MappingError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, []schema.Field{schema.FieldActualCost}, mErr.Missing)
}

func TestAnalyzeOverridesResolveMissingColumn(t *testing.T) {
	called := false
	p := NewPipelineOrchestrator(&MockAnalyzer{AnalyzeFunc: func(ctx context.Context, records []models.ProjectRecord) *analysis.Analysis {
		called = true
		require.Len(t, records, 1)
		assert.Equal(t, "70", records[0].ActualCost.String())
		return &analysis.Analysis{Summary: &models.PortfolioSummary{ProjectCount: 1}}
	}}, nil, nil, nil)

	tbl := models.RawTable{
		Headers: []string{"Projekt", "Budget", "Kommentar"},
		Rows:    []models.RawRow{{"Projekt": "A1", "Budget": "100", "Kommentar": "70"}},
	}
	res, err := p.Analyze(context.Background(), tbl, MappingRequest{
		Overrides: map[schema.Field]string{schema.FieldActualCost: "Kommentar"},
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 1, res.Summary.ProjectCount)
}

func TestAnalyzeRejectsBadMappingRequests(t *testing.T) {
	p := newOrchestrator(t, nil, nil)
	tests := []struct {
		name  string
		req   MappingRequest
		field string
	}{
		{"unknown template", MappingRequest{Template: "oracle"}, "mapping.template"},
		{"header not in table", MappingRequest{Overrides: map[schema.Field]string{schema.FieldOwner: "Nope"}}, "mapping.overrides"},
		{"unknown field", MappingRequest{Overrides: map[schema.Field]string{"colour": "Status"}}, "mapping.overrides"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Analyze(context.Background(), portfolioTable(), tc.req)
			var cfgErr *models.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestProposeMappingDetectsTemplate(t *testing.T) {
	headers := []string{"Projektdefinition", "Plankosten", "Istkosten", "Systemstatus", "Projektleiter", "Basisendtermin"}
	m, template := ProposeMapping(headers)
	assert.Equal(t, "sap_ps", template)
	assert.Empty(t, m.MissingRequired())

	header, ok := m.Header(schema.FieldOwner)
	require.True(t, ok)
	assert.Equal(t, "Projektleiter", header)
}

func TestAnalyzeCancelled(t *testing.T) {
	p := newOrchestrator(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Analyze(ctx, portfolioTable(), MappingRequest{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestReportUsesResolvedProvider(t *testing.T) {
	resolver := &MockResolver{ResolveFunc: func(agentType string) (llm.Provider, string, llm.Options, error) {
		assert.Equal(t, agent.ReportAgent, agentType)
		return MockProvider{}, "gemini", llm.Options{Model: "gemini-2.5-flash"}, nil
	}}
	gen := &MockGenerator{}
	p := newOrchestrator(t, resolver, gen)

	res, err := p.Analyze(context.Background(), portfolioTable(), MappingRequest{})
	require.NoError(t, err)

	payload, err := p.Report(context.Background(), res, ReportRequest{Type: "executive_briefing", Language: "en-US"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportExecutiveBriefing, payload.Type)
	assert.Equal(t, "en", payload.Language)

	require.Len(t, gen.calls, 1)
	in := gen.calls[0]
	assert.Equal(t, "gemini", in.ProviderName)
	assert.Equal(t, "gemini-2.5-flash", in.Options.Model)
	assert.Equal(t, "EUR", in.Currency)
	assert.Same(t, res.Summary, in.Summary)
	assert.Len(t, in.Projects, 3)
}

func TestReportProviderOverride(t *testing.T) {
	resolver := &MockResolver{
		ResolveFunc: func(string) (llm.Provider, string, llm.Options, error) {
			return MockProvider{}, "gemini", llm.Options{Model: "gemini-2.5-flash"}, nil
		},
		Named: map[string]llm.Provider{"deepseek": MockProvider{}},
	}
	gen := &MockGenerator{}
	p := newOrchestrator(t, resolver, gen)
	res, err := p.Analyze(context.Background(), portfolioTable(), MappingRequest{})
	require.NoError(t, err)

	_, err = p.Report(context.Background(), res, ReportRequest{Provider: "deepseek"})
	require.NoError(t, err)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, "deepseek", gen.calls[0].ProviderName)
	assert.Empty(t, gen.calls[0].Options.Model)

	_, err = p.Report(context.Background(), res, ReportRequest{Provider: "nope"})
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "report.provider", cfgErr.Field)
}

func TestReportKeepsPayloadOnGenerationFailure(t *testing.T) {
	gerr := &report.GenerationError{Attempts: 3, Reason: report.ReasonFailed, Err: errors.New("boom")}
	gen := &MockGenerator{GenerateFunc: func(ctx context.Context, in report.Input) (*models.ReportPayload, error) {
		return &models.ReportPayload{NarrativeAvailable: false, Attempts: 3}, gerr
	}}
	p := newOrchestrator(t, nil, gen)

	res, payload, err := p.Run(context.Background(), portfolioTable(), MappingRequest{}, ReportRequest{})
	require.NotNil(t, res)
	require.NotNil(t, payload)
	assert.False(t, payload.NarrativeAvailable)

	var got *report.GenerationError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 3, got.Attempts)
	assert.Nil(t, gen.calls[0].Provider)
}

func TestBriefRequestDefaults(t *testing.T) {
	p := NewPipelineOrchestrator(nil, nil, nil, nil)
	p.SetReportDefaults(ReportDefaults{Type: models.ReportDetailed, Language: "en", Currency: "CHF"})

	req, err := p.BriefRequest(ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.ReportDetailed, req.Type)
	assert.Equal(t, "en", req.Language)
	assert.Equal(t, "CHF", req.Currency)
	assert.False(t, req.IncludeRecommendations)

	yes := true
	req, err = p.BriefRequest(ReportRequest{Type: "briefing", Language: "de-AT", IncludeRecommendations: &yes})
	require.NoError(t, err)
	assert.Equal(t, models.ReportExecutiveBriefing, req.Type)
	assert.Equal(t, "de", req.Language)
	assert.True(t, req.IncludeRecommendations)

	_, err = p.BriefRequest(ReportRequest{Language: "fr"})
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "report.language", cfgErr.Field)

	_, err = p.BriefRequest(ReportRequest{Type: "novel"})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "report.type", cfgErr.Field)
}

func TestReportNeedsResult(t *testing.T) {
	p := newOrchestrator(t, nil, &MockGenerator{})
	_, err := p.Report(context.Background(), nil, ReportRequest{})
	require.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Paths.Models = "missing-models.yaml"

	p, mgr, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, agent.DefaultProvider, mgr.GetActiveProvider())

	req, err := p.BriefRequest(ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.ReportManagementSummary, req.Type)
	assert.Equal(t, "de", req.Language)
	assert.True(t, req.IncludeRecommendations)

	require.NotNil(t, p.Prompts())
	assert.Len(t, p.Prompts().ListByCategory(prompt.CategoryReport), len(models.ReportTypes)*2)
}
