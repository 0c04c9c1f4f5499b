package schema

import "strings"

// Template is a known export layout of a source system.
type Template struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Columns     map[Field]string `json:"columns"`
}

// Templates lists the built-in source system layouts.
var Templates = []Template{
	{
		Name:        "sap_ps",
		Description: "SAP PS project export",
		Columns: map[Field]string{
			FieldProjectID:  "Projektdefinition",
			FieldPlanCost:   "Plankosten",
			FieldActualCost: "Istkosten",
			FieldStatus:     "Systemstatus",
			FieldOwner:      "Projektleiter",
			FieldEndDate:    "Basisendtermin",
		},
	},
	{
		Name:        "ms_project",
		Description: "Microsoft Project table export",
		Columns: map[Field]string{
			FieldProjectID:  "Name",
			FieldPlanCost:   "Baseline Cost",
			FieldActualCost: "Actual Cost",
			FieldStatus:     "Status",
			FieldOwner:      "Resource Names",
			FieldEndDate:    "Baseline Finish",
		},
	},
	{
		Name:        "jira",
		Description: "Jira issue export (story points as plan, time spent as actual)",
		Columns: map[Field]string{
			FieldProjectID:  "Summary",
			FieldPlanCost:   "Story Points",
			FieldActualCost: "Time Spent",
			FieldStatus:     "Status",
			FieldOwner:      "Assignee",
		},
	},
	{
		Name:        "rail_standard",
		Description: "Rail infrastructure controlling standard",
		Columns: map[Field]string{
			FieldProjectID:  "Projektbezeichnung",
			FieldPlanCost:   "Budget",
			FieldActualCost: "Kosten_Aktuell",
			FieldStatus:     "Projektstatus",
			FieldOwner:      "PM",
			FieldEndDate:    "Fertigstellung_Plan",
		},
	},
}

// LookupTemplate finds a template by name, case-insensitively.
func LookupTemplate(name string) (Template, bool) {
	for _, t := range Templates {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Template{}, false
}

// DetectTemplate returns the template whose columns all appear in headers.
// With several candidates the one naming the most columns wins, then the
// earlier one.
func DetectTemplate(headers []string) (Template, bool) {
	var best Template
	found := false
	for _, t := range Templates {
		if !t.matches(headers) {
			continue
		}
		if !found || len(t.Columns) > len(best.Columns) {
			best, found = t, true
		}
	}
	return best, found
}

func (t Template) matches(headers []string) bool {
	for _, col := range t.Columns {
		if _, ok := findHeaderFold(headers, col); !ok {
			return false
		}
	}
	return true
}

// ApplyTemplate binds every template column present in the mapping's headers.
// Columns absent from the table are skipped.
func ApplyTemplate(m FieldMapping, t Template) FieldMapping {
	out := m.Clone()
	for _, fs := range Catalogue {
		col, ok := t.Columns[fs.Field]
		if !ok {
			continue
		}
		header, ok := findHeaderFold(out.Headers, col)
		if !ok {
			continue
		}
		out.bind(out.index(fs.Field), header, MatchTemplate)
	}
	return out
}

func findHeaderFold(headers []string, col string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return h, true
		}
	}
	return "", false
}
