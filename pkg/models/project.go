package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the normalized lifecycle state of a project.
type Status int

const (
	StatusPlanned Status = iota
	StatusInProgress
	StatusCompleted
	StatusOnHold
	StatusCancelled
	StatusUnknown
)

// AllStatuses lists every status in reporting order.
var AllStatuses = []Status{
	StatusPlanned, StatusInProgress, StatusCompleted, StatusOnHold, StatusCancelled, StatusUnknown,
}

var statusNames = map[Status]string{
	StatusPlanned:    "planned",
	StatusInProgress: "in_progress",
	StatusCompleted:  "completed",
	StatusOnHold:     "on_hold",
	StatusCancelled:  "cancelled",
	StatusUnknown:    "unknown",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for k, v := range statusNames {
		if v == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}

// =============================================================================
// RISK LEVEL
// =============================================================================

// RiskLevel orders projects by cost overrun severity.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

// AllRiskLevels lists every level from least to most severe.
var AllRiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

var riskNames = map[RiskLevel]string{
	RiskLow:      "low",
	RiskMedium:   "medium",
	RiskHigh:     "high",
	RiskCritical: "critical",
}

func (r RiskLevel) String() string {
	if name, ok := riskNames[r]; ok {
		return name
	}
	return fmt.Sprintf("risk(%d)", int(r))
}

func (r RiskLevel) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for k, v := range riskNames {
		if v == name {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown risk level %q", name)
}

// =============================================================================
// RECORDS & METRICS
// =============================================================================

// ProjectRecord is one validated row. Costs are non-negative.
type ProjectRecord struct {
	Row          int              `json:"row"` // 1-based data row in the source table
	ProjectID    string           `json:"project_id"`
	PlanCost     decimal.Decimal  `json:"plan_cost"`
	ActualCost   decimal.Decimal  `json:"actual_cost"`
	ForecastCost *decimal.Decimal `json:"forecast_cost,omitempty"`
	Status       Status           `json:"status"`
	StartDate    *time.Time       `json:"start_date,omitempty"`
	EndDate      *time.Time       `json:"end_date,omitempty"`
	Owner        string           `json:"owner,omitempty"`
	Department   string           `json:"department,omitempty"`
}

// PctClass tells whether a variance percentage exists and is finite.
type PctClass string

const (
	PctFinite    PctClass = "finite"
	PctUndefined PctClass = "undefined" // plan == 0 and actual == 0
	PctInfinite  PctClass = "infinite"  // plan == 0 and actual > 0
)

// VarianceMetric is derived from exactly one ProjectRecord.
type VarianceMetric struct {
	Variance    decimal.Decimal `json:"variance"`
	VariancePct *float64        `json:"variance_pct"` // fraction, nil unless PctClass is finite
	PctClass    PctClass        `json:"variance_pct_class"`
	RiskLevel   RiskLevel       `json:"risk_level"`
}

// ProjectMetrics pairs a record with its metric.
type ProjectMetrics struct {
	ProjectRecord
	Metric VarianceMetric `json:"metric"`
}

// =============================================================================
// VALIDATION ISSUES
// =============================================================================

// IssueReason names why a cell was rejected or defaulted.
type IssueReason string

const (
	ReasonMissingRequiredValue IssueReason = "missing_required_value"
	ReasonNotNumeric           IssueReason = "not_numeric"
	ReasonNegativeCost         IssueReason = "negative_cost"
	ReasonUnrecognizedStatus   IssueReason = "unrecognized_status"
	ReasonInvalidDate          IssueReason = "invalid_date"
)

// IssueSeverity: error excludes the row, warning keeps it with a defaulted field.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ValidationIssue is a per-row data problem. It is reported, never raised.
type ValidationIssue struct {
	Row      int           `json:"row"`
	Field    string        `json:"field"`
	Reason   IssueReason   `json:"reason"`
	Severity IssueSeverity `json:"severity"`
	Value    string        `json:"value,omitempty"`
	Message  string        `json:"message"`
}

// =============================================================================
// PORTFOLIO SUMMARY
// =============================================================================

// StatusCount is one entry of the status distribution.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// RiskCount is one entry of the risk distribution.
type RiskCount struct {
	Level RiskLevel `json:"level"`
	Count int       `json:"count"`
}

// Thresholds are the upper bounds (inclusive) of Low, Medium and High.
type Thresholds struct {
	Low    float64 `json:"low" mapstructure:"low"`
	Medium float64 `json:"medium" mapstructure:"medium"`
	High   float64 `json:"high" mapstructure:"high"`
}

// DefaultThresholds returns 5 %, 15 % and 30 %.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.05, Medium: 0.15, High: 0.30}
}

// InsightCode identifies a deterministic portfolio finding.
type InsightCode string

const (
	InsightPortfolioOverBudget  InsightCode = "portfolio_over_budget"
	InsightPortfolioWarning     InsightCode = "portfolio_slightly_over_budget"
	InsightPortfolioSavings     InsightCode = "portfolio_under_budget"
	InsightCriticalProjects     InsightCode = "critical_projects"
	InsightSystematicDeviation  InsightCode = "systematic_deviation"
	InsightExtremeDeviation     InsightCode = "extreme_deviation"
	InsightBestPractice         InsightCode = "best_practice"
	InsightZeroPlanWithSpending InsightCode = "zero_plan_with_spending"
)

// Insight carries the code, its severity and the number it is about.
// ProjectID is set for findings about a single project.
type Insight struct {
	Code      InsightCode `json:"code"`
	Severity  string      `json:"severity"` // critical, warning, info, positive
	Value     float64     `json:"value"`
	ProjectID string      `json:"project_id,omitempty"`
}

// PortfolioSummary aggregates all accepted records of one run.
type PortfolioSummary struct {
	ProjectCount       int              `json:"project_count"`
	TotalPlan          decimal.Decimal  `json:"total_plan"`
	TotalActual        decimal.Decimal  `json:"total_actual"`
	TotalVariance      decimal.Decimal  `json:"total_variance"`
	TotalForecast      *decimal.Decimal `json:"total_forecast,omitempty"`
	OverallVariancePct *float64         `json:"overall_variance_pct"`
	OverallPctClass    PctClass         `json:"overall_variance_pct_class"`
	AverageVariancePct *float64         `json:"average_variance_pct"`
	MaxVariancePct     *float64         `json:"max_variance_pct"`
	MinVariancePct     *float64         `json:"min_variance_pct"`
	OverBudgetCount    int              `json:"over_budget_count"`
	StatusCounts       []StatusCount    `json:"status_counts"`
	RiskCounts         []RiskCount      `json:"risk_counts"`
	TopN               int              `json:"top_n"`
	TopRisk            []ProjectMetrics `json:"top_risk"`
	TopPerformers      []ProjectMetrics `json:"top_performers"`
	Thresholds         Thresholds       `json:"thresholds"`
	Insights           []Insight        `json:"insights"`
}

// RiskCount returns the number of projects at level.
func (s *PortfolioSummary) RiskCount(level RiskLevel) int {
	for _, rc := range s.RiskCounts {
		if rc.Level == level {
			return rc.Count
		}
	}
	return 0
}

// StatusCount returns the number of projects with status.
func (s *PortfolioSummary) StatusCount(status Status) int {
	for _, sc := range s.StatusCounts {
		if sc.Status == status {
			return sc.Count
		}
	}
	return 0
}
