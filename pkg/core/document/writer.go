// Package document renders a ReportPayload into a downloadable file.
package document

import (
	"context"
	"fmt"
	"strings"

	"controlbot/pkg/models"
)

// Writer turns a payload into an opaque byte stream.
type Writer interface {
	Write(ctx context.Context, payload *models.ReportPayload) ([]byte, error)
	ContentType() string
	Extension() string
}

// Formats lists the names accepted by ForFormat.
var Formats = []string{"markdown", "html", "xlsx"}

// ForFormat returns the writer for a format name.
func ForFormat(format string) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown", "md":
		return MarkdownWriter{}, nil
	case "html":
		return HTMLWriter{}, nil
	case "xlsx", "excel":
		return XLSXWriter{}, nil
	}
	return nil, fmt.Errorf("unsupported document format %q", format)
}

func table(payload *models.ReportPayload, key string) (models.Table, bool) {
	for _, t := range payload.Tables {
		if t.Key == key {
			return t, true
		}
	}
	return models.Table{}, false
}
