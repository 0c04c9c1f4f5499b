package models

import (
	"fmt"
	"time"
)

// ReportType selects the narrative structure of a report.
type ReportType string

const (
	ReportManagementSummary ReportType = "management_summary"
	ReportDetailed          ReportType = "detailed_controlling_report"
	ReportExecutiveBriefing ReportType = "executive_briefing"
)

// ReportTypes lists the supported report types.
var ReportTypes = []ReportType{ReportManagementSummary, ReportDetailed, ReportExecutiveBriefing}

// ParseReportType accepts the canonical names and a few short forms.
func ParseReportType(s string) (ReportType, error) {
	switch s {
	case string(ReportManagementSummary), "management", "summary":
		return ReportManagementSummary, nil
	case string(ReportDetailed), "detailed", "controlling":
		return ReportDetailed, nil
	case string(ReportExecutiveBriefing), "executive", "briefing":
		return ReportExecutiveBriefing, nil
	}
	return "", fmt.Errorf("unknown report type %q", s)
}

// SectionSpec is one planned narrative section.
type SectionSpec struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	// ProjectID ties per-project commentary sections to a TopRisk entry.
	ProjectID string `json:"project_id,omitempty"`
	// Fallback is the fact text used when the model does not deliver this section.
	Fallback string `json:"fallback"`
}

// Fact is one number the narrative is allowed to state.
type Fact struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// ReportBrief is the complete model instruction for one report.
// It is a pure function of the summary, the report type and the language.
type ReportBrief struct {
	Type            ReportType    `json:"type"`
	Language        string        `json:"language"`
	Title           string        `json:"title"`
	SystemPrompt    string        `json:"system_prompt"`
	Prompt          string        `json:"prompt"`
	Sections        []SectionSpec `json:"sections"`
	Facts           []Fact        `json:"facts"`
	KnownProjectIDs []string      `json:"known_project_ids"`
	MaxTokens       int           `json:"max_tokens"`
}

// SectionSource tells where a payload section came from.
type SectionSource string

const (
	SourceModel  SectionSource = "model"
	SourceBrief  SectionSource = "brief"
	SourceMarker SectionSource = "marker"
)

// Section is one stitched narrative block.
type Section struct {
	Key    string        `json:"key"`
	Title  string        `json:"title"`
	Body   string        `json:"body"`
	Source SectionSource `json:"source"`
}

// Table is tabular evidence computed from the summary, never from the model.
type Table struct {
	Key     string     `json:"key"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ReportPayload is handed to a document writer.
type ReportPayload struct {
	ID                 string            `json:"id"`
	Type               ReportType        `json:"type"`
	Language           string            `json:"language"`
	Title              string            `json:"title"`
	Brief              *ReportBrief      `json:"brief,omitempty"`
	Sections           []Section         `json:"sections"`
	Tables             []Table           `json:"tables"`
	Summary            *PortfolioSummary `json:"summary"`
	NarrativeAvailable bool              `json:"narrative_available"`
	NarrativeNote      string            `json:"narrative_note,omitempty"`
	Provider           string            `json:"provider,omitempty"`
	Attempts           int               `json:"attempts"`
	GeneratedAt        time.Time         `json:"generated_at"`
}
