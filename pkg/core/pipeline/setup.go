package pipeline

import (
	"fmt"

	"controlbot/pkg/core/agent"
	"controlbot/pkg/core/analysis"
	"controlbot/pkg/core/config"
	"controlbot/pkg/core/prompt"
	"controlbot/pkg/core/report"
	"controlbot/pkg/models"
)

// FromConfig wires a pipeline from validated settings: the analysis
// engine, the prompt registry (with optional on-disk overrides), the
// provider manager from the models file and the report orchestrator.
func FromConfig(cfg *config.Config) (*PipelineOrchestrator, *agent.Manager, error) {
	engine, err := analysis.NewAnalysisEngine(cfg.Analysis.Thresholds, cfg.Analysis.TopN)
	if err != nil {
		return nil, nil, err
	}

	registry, err := prompt.DefaultRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("load built-in prompts: %w", err)
	}
	if cfg.Paths.Prompts != "" {
		if err := prompt.LoadFromDirectory(registry, cfg.Paths.Prompts); err != nil {
			return nil, nil, fmt.Errorf("load prompts from %s: %w", cfg.Paths.Prompts, err)
		}
	}

	agentCfg, err := agent.LoadConfig(cfg.Paths.Models)
	if err != nil {
		return nil, nil, err
	}
	mgr := agent.NewManager(agentCfg)

	reportType, err := models.ParseReportType(cfg.Report.Type)
	if err != nil {
		return nil, nil, &models.ConfigurationError{Field: "report.type", Reason: err.Error()}
	}

	p := NewPipelineOrchestrator(engine, prompt.NewBuilder(registry), mgr, report.NewOrchestrator(cfg.LLM))
	p.SetPromptRegistry(registry)
	p.SetReportDefaults(ReportDefaults{
		Type:                   reportType,
		Language:               cfg.Report.Language,
		Currency:               cfg.Report.Currency,
		IncludeRecommendations: cfg.Report.IncludeRecommendations,
	})
	return p, mgr, nil
}
