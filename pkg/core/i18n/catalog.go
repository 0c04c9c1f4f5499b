package i18n

type text struct{ de, en string }

var texts = map[string]text{
	"title.management_summary":          {"Management Summary Projektcontrolling", "Management Summary Project Controlling"},
	"title.detailed_controlling_report": {"Detaillierter Controlling-Bericht", "Detailed Controlling Report"},
	"title.executive_briefing":          {"Executive Briefing", "Executive Briefing"},

	"section.overview":        {"Überblick", "Overview"},
	"section.status":          {"Status und Risikoverteilung", "Status and risk distribution"},
	"section.risks":           {"Top-Risiken", "Top risks"},
	"section.performers":      {"Top-Performer", "Top performers"},
	"section.recommendations": {"Handlungsempfehlungen", "Recommendations"},
	"section.next_steps":      {"Nächste Schritte", "Next steps"},
	"section.project":         {"Projekt %s", "Project %s"},
	"section.briefing":        {"Kernaussagen", "Key messages"},

	"fact.project_count":  {"Anzahl Projekte", "Number of projects"},
	"fact.total_plan":     {"Plankosten gesamt", "Total planned cost"},
	"fact.total_actual":   {"Istkosten gesamt", "Total actual cost"},
	"fact.total_variance": {"Abweichung gesamt", "Total variance"},
	"fact.total_forecast": {"Prognose gesamt", "Total forecast"},
	"fact.overall_pct":    {"Abweichung gesamt in %%", "Overall variance in %%"},
	"fact.average_pct":    {"Durchschnittliche Abweichung", "Average variance"},
	"fact.max_pct":        {"Maximale Abweichung", "Maximum variance"},
	"fact.min_pct":        {"Minimale Abweichung", "Minimum variance"},
	"fact.over_budget":    {"Projekte über Budget", "Projects over budget"},
	"fact.critical":       {"Kritische Projekte", "Critical projects"},

	"status.planned":     {"Geplant", "Planned"},
	"status.in_progress": {"In Arbeit", "In progress"},
	"status.completed":   {"Abgeschlossen", "Completed"},
	"status.on_hold":     {"Pausiert", "On hold"},
	"status.cancelled":   {"Abgebrochen", "Cancelled"},
	"status.unknown":     {"Unbekannt", "Unknown"},

	"risk.low":      {"Niedrig", "Low"},
	"risk.medium":   {"Mittel", "Medium"},
	"risk.high":     {"Hoch", "High"},
	"risk.critical": {"Kritisch", "Critical"},

	"pct.infinite":  {"unbegrenzt (Plan = 0)", "unbounded (plan = 0)"},
	"pct.undefined": {"n. v.", "n/a"},

	"insight.portfolio_over_budget":          {"Das Portfolio liegt mit %s deutlich über Budget.", "The portfolio is %s over budget, a critical overrun."},
	"insight.portfolio_slightly_over_budget": {"Das Portfolio liegt mit %s leicht über Budget.", "The portfolio is slightly over budget (%s)."},
	"insight.portfolio_under_budget":         {"Das Portfolio liegt mit %s unter Budget.", "The portfolio is under budget (%s)."},
	"insight.critical_projects":              {"%s Projekt(e) mit kritischer Kostenabweichung.", "%s project(s) with a critical cost overrun."},
	"insight.systematic_deviation":           {"Die durchschnittliche Abweichung von %s deutet auf systematische Planungsprobleme hin.", "The average variance of %s points to systematic planning issues."},
	"insight.extreme_deviation":              {"Projekt %s weicht um %s ab und sollte eskaliert werden.", "Project %s deviates by %s and should be escalated."},
	"insight.best_practice":                  {"Projekt %s liegt %s unter Plan und kann als Best Practice dienen.", "Project %s is %s against plan and can serve as best practice."},
	"insight.zero_plan_with_spending":        {"%s Projekt(e) mit Istkosten ohne Planwert.", "%s project(s) with actual cost but no planned cost."},

	"fallback.overview":   {"%s Projekte, Plankosten %s, Istkosten %s, Abweichung %s (%s).", "%s projects, planned cost %s, actual cost %s, variance %s (%s)."},
	"fallback.status":     {"Statusverteilung: %s. Risikoverteilung: %s.", "Status distribution: %s. Risk distribution: %s."},
	"fallback.project":    {"%s: Plan %s, Ist %s, Abweichung %s (%s), Risiko %s.", "%s: plan %s, actual %s, variance %s (%s), risk %s."},
	"fallback.none":       {"Keine Projekte.", "No projects."},
	"fallback.next_steps": {"Maßnahmen für %s Projekt(e) mit hohem oder kritischem Risiko festlegen.", "Agree actions for %s project(s) at high or critical risk."},
	"fallback.no_insight": {"Keine Auffälligkeiten.", "No findings."},

	"marker.narrative_unavailable": {"Der Berichtstext ist nicht verfügbar (%s). Alle Tabellen beruhen auf den berechneten Kennzahlen.", "The narrative is unavailable (%s). All tables are based on the computed figures."},
	"marker.title":                 {"Hinweis", "Notice"},
	"marker.reason.cancelled":      {"Erstellung abgebrochen", "generation cancelled"},
	"marker.reason.failed":         {"Modell nicht erreichbar", "model unavailable"},
	"marker.reason.rejected":       {"Antwort verworfen", "response rejected"},
	"marker.reason.hallucination":  {"unbekannte Projektreferenzen", "unknown project references"},

	"table.overview":       {"Kennzahlen", "Key figures"},
	"table.status":         {"Statusverteilung", "Status distribution"},
	"table.risk":           {"Risikoverteilung", "Risk distribution"},
	"table.top_risk":       {"Top-Risiko-Projekte", "Top risk projects"},
	"table.top_performers": {"Top-Performer", "Top performers"},
	"table.projects":       {"Alle Projekte", "All projects"},
	"table.issues":         {"Validierungshinweise", "Validation issues"},

	"col.metric":       {"Kennzahl", "Metric"},
	"col.value":        {"Wert", "Value"},
	"col.status":       {"Status", "Status"},
	"col.count":        {"Anzahl", "Count"},
	"col.risk":         {"Risiko", "Risk"},
	"col.project":      {"Projekt", "Project"},
	"col.plan":         {"Plan", "Plan"},
	"col.actual":       {"Ist", "Actual"},
	"col.forecast":     {"Prognose", "Forecast"},
	"col.variance":     {"Abweichung", "Variance"},
	"col.variance_pct": {"Abweichung %%", "Variance %%"},
	"col.owner":        {"Verantwortlich", "Owner"},
	"col.department":   {"Abteilung", "Department"},
	"col.row":          {"Zeile", "Row"},
	"col.field":        {"Feld", "Field"},
	"col.reason":       {"Grund", "Reason"},
	"col.severity":     {"Schwere", "Severity"},
	"col.input":        {"Eingabe", "Input"},

	"reason.missing_required_value": {"Pflichtwert fehlt", "Missing required value"},
	"reason.not_numeric":            {"Keine Zahl", "Not numeric"},
	"reason.negative_cost":          {"Negative Kosten", "Negative cost"},
	"reason.unrecognized_status":    {"Unbekannter Status", "Unrecognized status"},
	"reason.invalid_date":           {"Ungültiges Datum", "Invalid date"},
	"severity.error":                {"Zeile ausgeschlossen", "Row excluded"},
	"severity.warning":              {"Hinweis", "Warning"},

	"doc.generated": {"Erstellt am", "Generated on"},
	"doc.type":      {"Berichtstyp", "Report type"},
	"doc.language":  {"Sprache", "Language"},
	"doc.tables":    {"Anhang: Datentabellen", "Appendix: data tables"},
	"doc.footer":    {"Automatisch erstellt mit ControlBot. Alle Zahlen stammen aus den hochgeladenen Projektdaten.", "Generated by ControlBot. All figures come from the uploaded project data."},

	"sheet.summary":        {"Zusammenfassung", "Summary"},
	"sheet.top_risk":       {"Risiko-Projekte", "Top risk"},
	"sheet.top_performers": {"Top-Performer", "Top performers"},
	"sheet.projects":       {"Alle-Projekte", "All projects"},
	"sheet.narrative":      {"Bericht", "Narrative"},
}
