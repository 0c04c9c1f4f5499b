package schema

// Field is a canonical column of the project data model.
type Field string

const (
	FieldProjectID    Field = "project_id"
	FieldPlanCost     Field = "plan_cost"
	FieldActualCost   Field = "actual_cost"
	FieldStatus       Field = "status"
	FieldStartDate    Field = "start_date"
	FieldEndDate      Field = "end_date"
	FieldOwner        Field = "owner"
	FieldForecastCost Field = "forecast_cost"
	FieldDepartment   Field = "department"
)

// FieldSpec describes one canonical field and the header spellings it accepts.
type FieldSpec struct {
	Field    Field
	Required bool
	Aliases  []string
}

// Catalogue is ordered: when two fields could claim a header, the earlier
// field wins, and within a field the earlier alias wins.
var Catalogue = []FieldSpec{
	{
		Field:    FieldProjectID,
		Required: true,
		Aliases: []string{
			"project_id", "project id", "projekt id", "projekt-id", "projektnummer", "projekt nr",
			"project number", "project no", "projekt", "project", "projektname", "project name",
			"projektbezeichnung", "projektdefinition", "bezeichnung", "vorhaben", "name", "titel", "title", "id",
		},
	},
	{
		Field:    FieldPlanCost,
		Required: true,
		Aliases: []string{
			"plan_cost", "plan cost", "planned cost", "plan", "budget", "plankosten", "plan-kosten",
			"kosten plan", "geplante kosten", "sollkosten", "soll", "baseline cost", "planned budget",
		},
	},
	{
		Field:    FieldActualCost,
		Required: true,
		Aliases: []string{
			"actual_cost", "actual cost", "actual", "ist", "istkosten", "ist-kosten", "kosten ist",
			"actual costs", "tatsächliche kosten", "aktuelle kosten", "kosten aktuell", "spent", "cost to date", "ausgaben",
		},
	},
	{
		Field:   FieldStatus,
		Aliases: []string{"status", "projektstatus", "project status", "state", "zustand", "systemstatus", "stand"},
	},
	{
		Field:   FieldStartDate,
		Aliases: []string{"start_date", "start date", "start", "startdatum", "beginn", "projektstart", "anfang", "begin"},
	},
	{
		Field: FieldEndDate,
		Aliases: []string{
			"end_date", "end date", "ende", "enddatum", "end", "termin", "termin plan", "deadline",
			"fertigstellung", "due date", "finish", "abschluss", "basisendtermin", "baseline finish",
		},
	},
	{
		Field: FieldOwner,
		Aliases: []string{
			"owner", "verantwortlich", "verantwortlicher", "projektleiter", "projektleitung", "project manager",
			"pm", "manager", "leiter", "zuständig", "responsible", "assignee", "lead",
		},
	},
	{
		Field: FieldForecastCost,
		Aliases: []string{
			"forecast_cost", "forecast", "prognose", "eac", "estimate at completion", "hochrechnung",
			"erwartete kosten", "kosten forecast",
		},
	},
	{
		Field: FieldDepartment,
		Aliases: []string{
			"department", "abteilung", "bereich", "division", "organisationseinheit", "org unit",
			"kostenstelle", "cost center", "team",
		},
	},
}

// Lookup returns the catalogue entry for f.
func Lookup(f Field) (FieldSpec, bool) {
	for _, fs := range Catalogue {
		if fs.Field == f {
			return fs, true
		}
	}
	return FieldSpec{}, false
}

// RequiredFields lists the fields a mapping must resolve, in catalogue order.
func RequiredFields() []Field {
	var out []Field
	for _, fs := range Catalogue {
		if fs.Required {
			out = append(out, fs.Field)
		}
	}
	return out
}
