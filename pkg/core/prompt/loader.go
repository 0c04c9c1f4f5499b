package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"
)

//go:embed templates
var embedded embed.FS

// DefaultRegistry returns a registry holding the built-in report prompts.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	if err := LoadFromFS(r, sub); err != nil {
		return nil, fmt.Errorf("built-in prompts: %w", err)
	}
	return r, nil
}

// LoadFromDirectory loads prompts and schemas from baseDir into r,
// overriding entries with the same ID.
// Expected structure:
//
//	baseDir/
//	  prompts/
//	    report/
//	      management_summary.de.json
//	  schemas/
//	    report_response.json
func LoadFromDirectory(r *Registry, baseDir string) error {
	if _, err := os.Stat(baseDir); err != nil {
		return fmt.Errorf("prompt directory: %w", err)
	}
	return LoadFromFS(r, os.DirFS(baseDir))
}

// LoadFromFS is LoadFromDirectory for any fs.FS.
func LoadFromFS(r *Registry, fsys fs.FS) error {
	if err := loadPrompts(r, fsys, "prompts"); err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	// Schemas are optional.
	if err := loadSchemas(r, fsys, "schemas"); err != nil {
		return fmt.Errorf("failed to load schemas: %w", err)
	}
	return nil
}

// loadPrompts recursively loads all .json files from the prompts directory
func loadPrompts(r *Registry, fsys fs.FS, dir string) error {
	if _, err := fs.Stat(fsys, dir); err != nil {
		return fmt.Errorf("prompts directory not found: %s", dir)
	}

	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}

		// Auto-generate ID from path if not specified
		if pt.ID == "" {
			pt.ID = generateIDFromPath(p, dir)
		}
		if pt.Category == "" {
			pt.Category = detectCategory(p, dir)
		}

		if err := r.Register(&pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		return nil
	})
}

// loadSchemas loads all schema JSON files
func loadSchemas(r *Registry, fsys fs.FS, dir string) error {
	if _, err := fs.Stat(fsys, dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read schema %s: %w", p, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("schema %s is not valid JSON", p)
		}

		// The file content is the schema itself.
		baseName := strings.TrimSuffix(path.Base(p), ".json")
		return r.RegisterSchema(&ResponseSchema{
			ID:         baseName,
			Name:       baseName,
			JSONSchema: string(data),
		})
	})
}

// generateIDFromPath creates a prompt ID from the file path
// e.g., "prompts/report/executive_briefing.en.json" -> "report.executive_briefing.en"
func generateIDFromPath(p string, baseDir string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(p, baseDir), "/")
	rel = strings.TrimSuffix(rel, ".json")
	return strings.ReplaceAll(rel, "/", ".")
}

// detectCategory extracts the category from the folder structure
func detectCategory(p string, baseDir string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(p, baseDir), "/")
	parts := strings.Split(rel, "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return "default"
}

var templateFuncs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}

// RenderUserPrompt executes the user prompt template with the given context
func RenderUserPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", nil
	}

	tmpl, err := template.New(pt.ID).Funcs(templateFuncs).Option("missingkey=error").Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx.Variables); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
