package document

import (
	"context"
	"fmt"
	"strings"

	"controlbot/pkg/core/i18n"
	"controlbot/pkg/models"
)

type MarkdownWriter struct{}

func (MarkdownWriter) ContentType() string { return "text/markdown; charset=utf-8" }
func (MarkdownWriter) Extension() string   { return ".md" }

func (MarkdownWriter) Write(ctx context.Context, payload *models.ReportPayload) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload is nil")
	}
	return []byte(renderMarkdown(payload)), nil
}

func renderMarkdown(payload *models.ReportPayload) string {
	p := i18n.New(payload.Language)
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", payload.Title)
	fmt.Fprintf(&sb, "**%s:** %s  \n", p.T("doc.generated"), p.Timestamp(payload.GeneratedAt))
	fmt.Fprintf(&sb, "**%s:** %s  \n", p.T("doc.type"), p.ReportTitle(payload.Type))
	fmt.Fprintf(&sb, "**%s:** %s\n\n---\n\n", p.T("doc.language"), payload.Language)

	for _, s := range payload.Sections {
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", s.Title, strings.TrimSpace(demoteHeadings(s.Body)))
	}

	if len(payload.Tables) > 0 {
		fmt.Fprintf(&sb, "---\n\n## %s\n\n", p.T("doc.tables"))
		for _, t := range payload.Tables {
			writeTable(&sb, t)
		}
	}

	fmt.Fprintf(&sb, "---\n\n*%s*\n", p.T("doc.footer"))
	return sb.String()
}

// demoteHeadings pushes headings inside a section body below the
// section heading.
func demoteHeadings(body string) string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		if strings.HasPrefix(l, "#") {
			lines[i] = "##" + l
		}
	}
	return strings.Join(lines, "\n")
}

func writeTable(sb *strings.Builder, t models.Table) {
	fmt.Fprintf(sb, "### %s\n\n", t.Title)
	if len(t.Rows) == 0 {
		sb.WriteString("-\n\n")
		return
	}
	row := func(cells []string) {
		sb.WriteString("|")
		for _, c := range cells {
			sb.WriteString(" " + escapeCell(c) + " |")
		}
		sb.WriteString("\n")
	}
	row(t.Columns)
	sep := make([]string, len(t.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	sb.WriteString("|" + strings.Join(sep, "|") + "|\n")
	for _, r := range t.Rows {
		row(r)
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
