// Package validate turns raw table rows into typed project records.
// Rows that cannot carry the required fields are excluded and reported as
// issues; problems in optional fields default the field and are reported
// as warnings.
package validate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"controlbot/pkg/core/schema"
	"controlbot/pkg/models"
)

// Result holds the outcome of validating one table.
type Result struct {
	Records   []models.ProjectRecord   `json:"records"`
	Issues    []models.ValidationIssue `json:"issues"`
	TotalRows int                      `json:"total_rows"`
	BlankRows int                      `json:"blank_rows"`
}

// Rejected counts rows excluded because of at least one error.
func (r *Result) Rejected() int {
	rows := make(map[int]bool)
	for _, issue := range r.Issues {
		if issue.Severity == models.SeverityError {
			rows[issue.Row] = true
		}
	}
	return len(rows)
}

// Validate converts every row of table under mapping. The mapping must
// pass schema.Finalize. Each non-blank row ends up either as a record or
// with at least one error issue.
func Validate(ctx context.Context, table models.RawTable, mapping schema.FieldMapping) (*Result, error) {
	if err := schema.Finalize(mapping); err != nil {
		return nil, err
	}
	cols := resolveColumns(mapping)
	res := &Result{TotalRows: len(table.Rows)}

	for i, row := range table.Rows {
		rowNum := i + 1
		if cols.blank(row) {
			res.BlankRows++
			continue
		}
		record, issues := cols.convert(rowNum, row)
		res.Issues = append(res.Issues, issues...)
		if record != nil {
			res.Records = append(res.Records, *record)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("stage", "validate").
		Int("rows", res.TotalRows).
		Int("accepted", len(res.Records)).
		Int("rejected", res.Rejected()).
		Int("blank", res.BlankRows).
		Int("issues", len(res.Issues)).
		Msg("rows validated")
	return res, nil
}

type columns struct {
	headers map[schema.Field]string
}

func resolveColumns(m schema.FieldMapping) columns {
	c := columns{headers: make(map[schema.Field]string)}
	for _, fs := range schema.Catalogue {
		if h, ok := m.Header(fs.Field); ok {
			c.headers[fs.Field] = h
		}
	}
	return c
}

func (c columns) cell(row models.RawRow, f schema.Field) (any, bool) {
	h, ok := c.headers[f]
	if !ok {
		return nil, false
	}
	v := row[h]
	return v, !isBlank(v)
}

func (c columns) blank(row models.RawRow) bool {
	for _, h := range c.headers {
		if !isBlank(row[h]) {
			return false
		}
	}
	return true
}

func (c columns) convert(rowNum int, row models.RawRow) (*models.ProjectRecord, []models.ValidationIssue) {
	var issues []models.ValidationIssue
	fail := func(f schema.Field, reason models.IssueReason, value any, msg string) {
		issues = append(issues, models.ValidationIssue{
			Row: rowNum, Field: string(f), Reason: reason, Severity: models.SeverityError,
			Value: cellText(value), Message: msg,
		})
	}
	warn := func(f schema.Field, reason models.IssueReason, value any, msg string) {
		issues = append(issues, models.ValidationIssue{
			Row: rowNum, Field: string(f), Reason: reason, Severity: models.SeverityWarning,
			Value: cellText(value), Message: msg,
		})
	}

	rec := models.ProjectRecord{Row: rowNum, Status: models.StatusUnknown}

	if v, ok := c.cell(row, schema.FieldProjectID); ok {
		rec.ProjectID = cellText(v)
	} else {
		fail(schema.FieldProjectID, models.ReasonMissingRequiredValue, v, "project identifier is empty")
	}

	rec.PlanCost = c.requiredCost(row, schema.FieldPlanCost, fail)
	rec.ActualCost = c.requiredCost(row, schema.FieldActualCost, fail)

	if v, ok := c.cell(row, schema.FieldForecastCost); ok {
		d, err := ParseNumber(v)
		switch {
		case err != nil:
			warn(schema.FieldForecastCost, models.ReasonNotNumeric, v, "forecast ignored: not a number")
		case d.IsNegative():
			warn(schema.FieldForecastCost, models.ReasonNegativeCost, v, "forecast ignored: negative")
		default:
			rec.ForecastCost = &d
		}
	}

	if v, ok := c.cell(row, schema.FieldStatus); ok {
		status, known := ParseStatus(cellText(v))
		rec.Status = status
		if !known {
			warn(schema.FieldStatus, models.ReasonUnrecognizedStatus, v, "status not recognized, treated as unknown")
		}
	}

	rec.StartDate = c.optionalDate(row, schema.FieldStartDate, warn)
	rec.EndDate = c.optionalDate(row, schema.FieldEndDate, warn)

	if v, ok := c.cell(row, schema.FieldOwner); ok {
		rec.Owner = cellText(v)
	}
	if v, ok := c.cell(row, schema.FieldDepartment); ok {
		rec.Department = cellText(v)
	}

	for _, issue := range issues {
		if issue.Severity == models.SeverityError {
			return nil, issues
		}
	}
	return &rec, issues
}

type reportFunc func(f schema.Field, reason models.IssueReason, value any, msg string)

func (c columns) requiredCost(row models.RawRow, f schema.Field, fail reportFunc) decimal.Decimal {
	v, ok := c.cell(row, f)
	if !ok {
		fail(f, models.ReasonMissingRequiredValue, v, fmt.Sprintf("%s is empty", f))
		return decimal.Zero
	}
	d, err := ParseNumber(v)
	if err != nil {
		fail(f, models.ReasonNotNumeric, v, fmt.Sprintf("%s is not a number", f))
		return decimal.Zero
	}
	if d.IsNegative() {
		fail(f, models.ReasonNegativeCost, v, fmt.Sprintf("%s is negative", f))
		return decimal.Zero
	}
	return d
}

func (c columns) optionalDate(row models.RawRow, f schema.Field, warn reportFunc) *time.Time {
	v, ok := c.cell(row, f)
	if !ok {
		return nil
	}
	t, err := ParseDate(v)
	if err != nil {
		if !errors.Is(err, ErrBlank) {
			warn(f, models.ReasonInvalidDate, v, fmt.Sprintf("%s ignored: unsupported date format", f))
		}
		return nil
	}
	return &t
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// cellText renders a cell for identifiers and issue messages.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
