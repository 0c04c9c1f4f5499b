package config

import (
	"encoding/json"
	"net/http"

	"controlbot/pkg/api/response"
	coreconfig "controlbot/pkg/core/config"
	"controlbot/pkg/core/document"
	"controlbot/pkg/core/i18n"
	"controlbot/pkg/core/prompt"
	"controlbot/pkg/core/schema"
	"controlbot/pkg/models"
)

// ProviderSwitcher is the part of agent.Manager the endpoints use.
type ProviderSwitcher interface {
	GetActiveProvider() string
	SetGlobalProvider(name string) error
	Providers() []string
}

// PromptCatalog lists the prompts the report stage can render.
type PromptCatalog interface {
	ListByCategory(category string) []*prompt.PromptTemplate
}

type PromptInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

type Response struct {
	ActiveProvider string                    `json:"active_provider"`
	Available      []string                  `json:"available"`
	Analysis       coreconfig.AnalysisConfig `json:"analysis"`
	Report         coreconfig.ReportConfig   `json:"report"`
	ReportTypes    []models.ReportType       `json:"report_types"`
	Languages      []string                  `json:"languages"`
	Formats        []string                  `json:"formats"`
	Templates      []schema.Template         `json:"templates"`
	Prompts        []PromptInfo              `json:"prompts"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr ProviderSwitcher
	Settings *coreconfig.Config
	Prompts  PromptCatalog
}

// NewHandler creates a new config handler. prompts may be nil.
func NewHandler(agentMgr ProviderSwitcher, settings *coreconfig.Config, prompts PromptCatalog) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
		Settings: settings,
		Prompts:  prompts,
	}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Providers(),
		ReportTypes:    models.ReportTypes,
		Languages:      i18n.Languages(),
		Formats:        append([]string{"json"}, document.Formats...),
		Templates:      schema.Templates,
		Prompts:        []PromptInfo{},
	}
	if h.Prompts != nil {
		for _, pt := range h.Prompts.ListByCategory(prompt.CategoryReport) {
			resp.Prompts = append(resp.Prompts, PromptInfo{ID: pt.ID, Name: pt.Name, Description: pt.Description, Version: pt.Version})
		}
	}
	if h.Settings != nil {
		resp.Analysis = h.Settings.Analysis
		resp.Report = h.Settings.Report
	}
	response.JSON(w, r, http.StatusOK, resp)
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	if err := h.AgentMgr.SetGlobalProvider(req.Provider); err != nil {
		response.Error(w, r, &models.ConfigurationError{Field: "provider", Reason: err.Error()})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"active_provider": h.AgentMgr.GetActiveProvider()})
}
