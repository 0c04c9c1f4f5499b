// Package pipeline composes one ControlBot run: map the columns, validate
// the rows, compute metrics and rankings, then optionally narrate a report.
// The numeric result is complete before any model is called, so a failed
// or cancelled report never loses the analysis.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"controlbot/pkg/core/agent"
	"controlbot/pkg/core/analysis"
	"controlbot/pkg/core/i18n"
	"controlbot/pkg/core/llm"
	"controlbot/pkg/core/prompt"
	"controlbot/pkg/core/report"
	"controlbot/pkg/core/schema"
	"controlbot/pkg/core/validate"
	"controlbot/pkg/models"
)

// Analyzer computes metrics and the portfolio summary.
type Analyzer interface {
	Analyze(ctx context.Context, records []models.ProjectRecord) *analysis.Analysis
}

// BriefBuilder renders the model instruction for a summary.
type BriefBuilder interface {
	Build(summary *models.PortfolioSummary, req prompt.BriefRequest) (*models.ReportBrief, error)
}

// ProviderResolver picks the LLM backend for a run.
type ProviderResolver interface {
	Resolve(agentType string) (llm.Provider, string, llm.Options, error)
	GetProviderByName(name string) llm.Provider
}

// ReportGenerator turns a brief into a payload.
type ReportGenerator interface {
	Generate(ctx context.Context, in report.Input) (*models.ReportPayload, error)
}

// MappingRequest carries the user's column choices. Template names a known
// export layout; when empty a matching layout is detected from the headers.
type MappingRequest struct {
	Template  string                  `json:"template,omitempty"`
	Overrides map[schema.Field]string `json:"overrides,omitempty"`
}

// Stats counts what happened to the input rows.
type Stats struct {
	TotalRows int `json:"total_rows"`
	BlankRows int `json:"blank_rows"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Issues    int `json:"issues"`
}

// AnalysisResult is everything the numeric stages produced.
type AnalysisResult struct {
	RunID    string                   `json:"run_id"`
	Template string                   `json:"template,omitempty"`
	Mapping  schema.FieldMapping      `json:"mapping"`
	Projects []models.ProjectMetrics  `json:"projects"`
	Issues   []models.ValidationIssue `json:"issues"`
	Summary  *models.PortfolioSummary `json:"summary"`
	Stats    Stats                    `json:"stats"`
	Duration time.Duration            `json:"duration"`
}

// ReportRequest selects the report. Empty fields take the orchestrator's
// defaults; Provider names a registered backend for this run only.
type ReportRequest struct {
	Type                   string `json:"type,omitempty"`
	Language               string `json:"language,omitempty"`
	Context                string `json:"context,omitempty"`
	IncludeRecommendations *bool  `json:"include_recommendations,omitempty"`
	Currency               string `json:"currency,omitempty"`
	Provider               string `json:"provider,omitempty"`
}

// ReportDefaults fill the gaps of a ReportRequest.
type ReportDefaults struct {
	Type                   models.ReportType
	Language               string
	Currency               string
	IncludeRecommendations bool
}

// PipelineOrchestrator holds collaborators only. Runs share no state.
type PipelineOrchestrator struct {
	analyzer  Analyzer
	briefs    BriefBuilder
	providers ProviderResolver
	reports   ReportGenerator
	defaults  ReportDefaults
	prompts   *prompt.Registry
}

// NewPipelineOrchestrator wires the stages. providers and reports may be
// nil for analysis-only use.
func NewPipelineOrchestrator(analyzer Analyzer, briefs BriefBuilder, providers ProviderResolver, reports ReportGenerator) *PipelineOrchestrator {
	return &PipelineOrchestrator{
		analyzer:  analyzer,
		briefs:    briefs,
		providers: providers,
		reports:   reports,
		defaults: ReportDefaults{
			Type:                   models.ReportManagementSummary,
			Language:               "de",
			Currency:               "EUR",
			IncludeRecommendations: true,
		},
	}
}

// SetReportDefaults replaces the values used for empty request fields.
func (p *PipelineOrchestrator) SetReportDefaults(d ReportDefaults) {
	p.defaults = d
}

// SetPromptRegistry records the registry the brief builder renders from.
func (p *PipelineOrchestrator) SetPromptRegistry(r *prompt.Registry) {
	p.prompts = r
}

// Prompts returns the prompt registry, or nil when none was recorded.
func (p *PipelineOrchestrator) Prompts() *prompt.Registry {
	return p.prompts
}

// ProposeMapping returns the automatic mapping for headers, with a
// detected template applied on top.
func ProposeMapping(headers []string) (schema.FieldMapping, string) {
	m := schema.ProposeMapping(headers)
	if t, ok := schema.DetectTemplate(headers); ok {
		return schema.ApplyTemplate(m, t), t.Name
	}
	return m, ""
}

// ResolveMapping runs propose, template and overrides. The result is not
// finalized.
func ResolveMapping(headers []string, req MappingRequest) (schema.FieldMapping, string, error) {
	var (
		m        schema.FieldMapping
		template string
	)
	if req.Template != "" {
		t, ok := schema.LookupTemplate(req.Template)
		if !ok {
			return schema.FieldMapping{}, "", &models.ConfigurationError{
				Field:  "mapping.template",
				Reason: fmt.Sprintf("unknown template %q", req.Template),
			}
		}
		m, template = schema.ApplyTemplate(schema.ProposeMapping(headers), t), t.Name
	} else {
		m, template = ProposeMapping(headers)
	}

	if len(req.Overrides) > 0 {
		var err error
		if m, err = schema.ApplyOverrides(m, req.Overrides); err != nil {
			return schema.FieldMapping{}, "", &models.ConfigurationError{Field: "mapping.overrides", Reason: err.Error()}
		}
	}
	return m, template, nil
}

// Analyze maps, validates and analyzes table. A *schema.MappingError means
// required columns are missing and nothing was analyzed.
func (p *PipelineOrchestrator) Analyze(ctx context.Context, table models.RawTable, req MappingRequest) (*AnalysisResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	mapping, template, err := ResolveMapping(table.Headers, req)
	if err != nil {
		return nil, err
	}
	if err := schema.Finalize(mapping); err != nil {
		logger.Warn().Err(err).Str("stage", "mapping").Msg("mapping incomplete")
		return nil, err
	}
	logger.Info().
		Str("stage", "mapping").
		Str("template", template).
		Int("headers", len(table.Headers)).
		Int("unresolved", len(mapping.Unresolved())).
		Msg("columns mapped")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vr, err := validate.Validate(ctx, table, mapping)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a := p.analyzer.Analyze(ctx, vr.Records)

	issues := vr.Issues
	if issues == nil {
		issues = []models.ValidationIssue{}
	}
	res := &AnalysisResult{
		RunID:    runID,
		Template: template,
		Mapping:  mapping,
		Projects: a.Projects,
		Issues:   issues,
		Summary:  a.Summary,
		Stats: Stats{
			TotalRows: vr.TotalRows,
			BlankRows: vr.BlankRows,
			Accepted:  len(vr.Records),
			Rejected:  vr.Rejected(),
			Issues:    len(vr.Issues),
		},
		Duration: time.Since(start),
	}

	logger.Info().
		Str("stage", "analysis").
		Int("rows", res.Stats.TotalRows).
		Int("accepted", res.Stats.Accepted).
		Int("rejected", res.Stats.Rejected).
		Int("issues", res.Stats.Issues).
		Dur("elapsed", res.Duration).
		Msg("analysis complete")
	return res, nil
}

// BriefRequest resolves req against the defaults. Bad language or report
// type values are *models.ConfigurationError.
func (p *PipelineOrchestrator) BriefRequest(req ReportRequest) (prompt.BriefRequest, error) {
	out := prompt.BriefRequest{
		Type:                   p.defaults.Type,
		Language:               p.defaults.Language,
		Context:                req.Context,
		IncludeRecommendations: p.defaults.IncludeRecommendations,
		Currency:               p.defaults.Currency,
	}
	if req.Type != "" {
		t, err := models.ParseReportType(req.Type)
		if err != nil {
			return out, &models.ConfigurationError{Field: "report.type", Reason: err.Error()}
		}
		out.Type = t
	}
	if req.Language != "" {
		out.Language = req.Language
	}
	lang, err := i18n.Match(out.Language)
	if err != nil {
		return out, &models.ConfigurationError{Field: "report.language", Reason: err.Error()}
	}
	out.Language = lang
	if req.IncludeRecommendations != nil {
		out.IncludeRecommendations = *req.IncludeRecommendations
	}
	if req.Currency != "" {
		out.Currency = req.Currency
	}
	return out, nil
}

// Report narrates result. The payload is returned together with a
// *report.GenerationError when the narrative could not be produced.
func (p *PipelineOrchestrator) Report(ctx context.Context, result *AnalysisResult, req ReportRequest) (*models.ReportPayload, error) {
	if result == nil || result.Summary == nil {
		return nil, fmt.Errorf("report needs an analysis result")
	}
	if p.briefs == nil || p.reports == nil {
		return nil, fmt.Errorf("pipeline has no report stage configured")
	}
	logger := zerolog.Ctx(ctx).With().Str("run_id", result.RunID).Logger()
	ctx = logger.WithContext(ctx)

	breq, err := p.BriefRequest(req)
	if err != nil {
		return nil, err
	}
	brief, err := p.briefs.Build(result.Summary, breq)
	if err != nil {
		return nil, fmt.Errorf("brief failed: %w", err)
	}
	logger.Info().
		Str("stage", "brief").
		Str("report_type", string(brief.Type)).
		Str("language", brief.Language).
		Int("sections", len(brief.Sections)).
		Msg("brief built")

	in := report.Input{
		Brief:    brief,
		Summary:  result.Summary,
		Projects: result.Projects,
		Issues:   result.Issues,
		Currency: breq.Currency,
	}
	if p.providers != nil {
		provider, name, opts, err := p.providers.Resolve(agent.ReportAgent)
		if req.Provider != "" {
			if named := p.providers.GetProviderByName(req.Provider); named != nil {
				provider, name, err = named, req.Provider, nil
				opts.Model = ""
			} else {
				return nil, &models.ConfigurationError{
					Field:  "report.provider",
					Reason: fmt.Sprintf("provider %q is not registered", req.Provider),
				}
			}
		}
		if err != nil {
			logger.Warn().Err(err).Msg("no provider resolved")
		} else {
			in.Provider, in.ProviderName, in.Options = provider, name, opts
		}
	}

	return p.reports.Generate(ctx, in)
}

// Run is Analyze followed by Report. The analysis result is returned even
// when the report fails.
func (p *PipelineOrchestrator) Run(ctx context.Context, table models.RawTable, mreq MappingRequest, rreq ReportRequest) (*AnalysisResult, *models.ReportPayload, error) {
	res, err := p.Analyze(ctx, table, mreq)
	if err != nil {
		return nil, nil, err
	}
	payload, err := p.Report(ctx, res, rreq)
	return res, payload, err
}
