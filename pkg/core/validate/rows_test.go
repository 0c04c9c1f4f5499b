package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlbot/pkg/core/schema"
	"controlbot/pkg/models"
)

func table(headers []string, rows ...[]any) models.RawTable {
	t := models.RawTable{Headers: headers}
	for _, r := range rows {
		row := models.RawRow{}
		for i, v := range r {
			row[headers[i]] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func TestValidateRejectsNonNumericActual(t *testing.T) {
	headers := []string{"Projekt", "Budget", "Ist", "Status"}
	tbl := table(headers,
		[]any{"ERP", "100.000", "90.000", "In Arbeit"},
		[]any{"CRM", "50000", "n/a", "In Arbeit"},
		[]any{"Web", 20000.0, 25000.0, "Abgeschlossen"},
	)
	mapping := schema.ProposeMapping(headers)

	res, err := Validate(context.Background(), tbl, mapping)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "ERP", res.Records[0].ProjectID)
	assert.Equal(t, "Web", res.Records[1].ProjectID)
	assert.Equal(t, models.StatusCompleted, res.Records[1].Status)

	require.Len(t, res.Issues, 1)
	issue := res.Issues[0]
	assert.Equal(t, 2, issue.Row)
	assert.Equal(t, "actual_cost", issue.Field)
	assert.Equal(t, models.ReasonNotNumeric, issue.Reason)
	assert.Equal(t, models.SeverityError, issue.Severity)
	assert.Equal(t, "n/a", issue.Value)
	assert.Equal(t, 1, res.Rejected())
}

func TestValidateEveryRowAccountedFor(t *testing.T) {
	headers := []string{"Project", "Plan", "Actual", "Status", "Start"}
	tbl := table(headers,
		[]any{"", "10", "10", nil, nil},
		[]any{"P2", "-5", "10", nil, nil},
		[]any{"P3", "10", "", nil, nil},
		[]any{"P4", "10", "12", "weird", "not a date"},
		[]any{nil, nil, nil, nil, nil},
		[]any{"P6", "10", "8", "done", "01.02.2024"},
	)

	res, err := Validate(context.Background(), tbl, schema.ProposeMapping(headers))
	require.NoError(t, err)

	assert.Equal(t, 6, res.TotalRows)
	assert.Equal(t, 1, res.BlankRows)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 3, res.Rejected())
	assert.Equal(t, res.TotalRows, len(res.Records)+res.Rejected()+res.BlankRows)

	reasons := map[int]models.IssueReason{}
	for _, issue := range res.Issues {
		reasons[issue.Row] = issue.Reason
	}
	assert.Equal(t, models.ReasonMissingRequiredValue, reasons[1])
	assert.Equal(t, models.ReasonNegativeCost, reasons[2])
	assert.Equal(t, models.ReasonMissingRequiredValue, reasons[3])

	p4 := res.Records[0]
	assert.Equal(t, "P4", p4.ProjectID)
	assert.Equal(t, models.StatusUnknown, p4.Status)
	assert.Nil(t, p4.StartDate)

	var warnings []models.IssueReason
	for _, issue := range res.Issues {
		if issue.Row == 4 {
			assert.Equal(t, models.SeverityWarning, issue.Severity)
			warnings = append(warnings, issue.Reason)
		}
	}
	assert.ElementsMatch(t, []models.IssueReason{models.ReasonUnrecognizedStatus, models.ReasonInvalidDate}, warnings)

	require.NotNil(t, res.Records[1].StartDate)
	assert.Equal(t, 2024, res.Records[1].StartDate.Year())
}

func TestValidateRequiresFinalMapping(t *testing.T) {
	headers := []string{"Projekt", "Budget"}
	_, err := Validate(context.Background(), table(headers), schema.ProposeMapping(headers))
	var mappingErr *schema.MappingError
	assert.ErrorAs(t, err, &mappingErr)
}

func TestValidateNumericIdentifier(t *testing.T) {
	headers := []string{"ID", "Plan", "Actual"}
	res, err := Validate(context.Background(), table(headers, []any{1001.0, 10.0, 10.0}), schema.ProposeMapping(headers))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "1001", res.Records[0].ProjectID)
}
