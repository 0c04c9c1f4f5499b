package utils

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips surrounding whitespace and an outer code fence
// (```markdown ... ``` or ``` ... ```) that models like to wrap answers in.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)
	if !strings.HasPrefix(cleaned, "```") || !strings.HasSuffix(cleaned, "```") || len(cleaned) < 6 {
		return cleaned
	}
	inner := strings.TrimSuffix(cleaned, "```")
	// Drop the info string of the opening fence.
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		info := strings.TrimSpace(inner[3:nl])
		if info == "" || info == "markdown" || info == "md" {
			inner = inner[nl+1:]
		} else {
			// A fenced json/code answer is not markdown; leave it alone.
			return cleaned
		}
	} else {
		inner = inner[3:]
	}
	return strings.TrimSpace(inner)
}

// MarkdownSection is the text between two headings of the same level.
// Heading is empty for text that precedes the first heading.
type MarkdownSection struct {
	Heading string
	Level   int
	Body    string
}

// SplitSections parses input with goldmark and cuts it at the top-level
// headings of the shallowest level present. Deeper headings stay inside
// their section body.
func SplitSections(input string) []MarkdownSection {
	source := []byte(input)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	type mark struct {
		level     int
		title     string
		lineStart int
		bodyStart int
	}
	var marks []mark
	minLevel := 0
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		lineStart := bytes.LastIndexByte(source[:seg.Start], '\n') + 1
		bodyStart := len(source)
		last := h.Lines().At(h.Lines().Len() - 1)
		if nl := bytes.IndexByte(source[last.Stop:], '\n'); nl >= 0 {
			bodyStart = last.Stop + nl + 1
		}
		marks = append(marks, mark{level: h.Level, title: headingText(h, source), lineStart: lineStart, bodyStart: bodyStart})
		if minLevel == 0 || h.Level < minLevel {
			minLevel = h.Level
		}
	}

	var top []mark
	for _, m := range marks {
		if m.level == minLevel {
			top = append(top, m)
		}
	}

	var sections []MarkdownSection
	if len(top) == 0 {
		if body := strings.TrimSpace(input); body != "" {
			sections = append(sections, MarkdownSection{Body: body})
		}
		return sections
	}
	if pre := strings.TrimSpace(input[:top[0].lineStart]); pre != "" {
		sections = append(sections, MarkdownSection{Body: pre})
	}
	for i, m := range top {
		end := len(source)
		if i+1 < len(top) {
			end = top[i+1].lineStart
		}
		start := m.bodyStart
		if start > end {
			start = end
		}
		sections = append(sections, MarkdownSection{
			Heading: m.title,
			Level:   m.level,
			Body:    trimSetextUnderline(input[start:end]),
		})
	}
	return sections
}

func headingText(h *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func trimSetextUnderline(body string) string {
	body = strings.TrimLeft(body, "\r\n")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		first := strings.TrimSpace(body[:nl])
		if first != "" && strings.Trim(first, "=-") == "" {
			body = body[nl+1:]
		}
	} else if first := strings.TrimSpace(body); first != "" && strings.Trim(first, "=-") == "" {
		body = ""
	}
	return strings.TrimSpace(body)
}

// RenderHTML converts GitHub-flavoured markdown (tables included) to HTML.
func RenderHTML(input string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(input), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
