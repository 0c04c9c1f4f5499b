package document

import (
	"context"
	"fmt"
	"html"
	"strings"

	"controlbot/pkg/core/utils"
	"controlbot/pkg/models"
)

type HTMLWriter struct{}

func (HTMLWriter) ContentType() string { return "text/html; charset=utf-8" }
func (HTMLWriter) Extension() string   { return ".html" }

const pageStyle = `body{font-family:sans-serif;max-width:60rem;margin:2rem auto;color:#222}
table{border-collapse:collapse;margin:1rem 0}th,td{border:1px solid #ccc;padding:.3rem .6rem;text-align:left}
th{background:#f0f0f0}`

// Write renders the markdown document to HTML. Model text goes through
// goldmark with raw HTML disabled.
func (HTMLWriter) Write(ctx context.Context, payload *models.ReportPayload) ([]byte, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload is nil")
	}
	body, err := utils.RenderHTML(renderMarkdown(payload))
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n<meta charset=\"utf-8\">\n", html.EscapeString(payload.Language))
	fmt.Fprintf(&sb, "<title>%s</title>\n<style>%s</style>\n</head>\n<body>\n", html.EscapeString(payload.Title), pageStyle)
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}
