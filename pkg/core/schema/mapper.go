// Package schema maps the headers of an uploaded table onto the canonical
// project fields. Every function here is pure: the same headers always
// produce the same mapping.
package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"controlbot/pkg/core/utils"
)

// MatchMethod records how a field was resolved.
type MatchMethod string

const (
	MatchExact      MatchMethod = "exact"
	MatchNormalized MatchMethod = "normalized"
	MatchSubstring  MatchMethod = "substring"
	MatchOverride   MatchMethod = "override"
	MatchTemplate   MatchMethod = "template"
	MatchNone       MatchMethod = "unresolved"
)

// minSubstringAlias keeps short aliases such as "ist" or "pm" out of the
// containment pass, where they would match almost anything.
const minSubstringAlias = 4

// Resolution is the mapping decision for one canonical field.
type Resolution struct {
	Field    Field       `json:"field"`
	Required bool        `json:"required"`
	Header   string      `json:"header,omitempty"`
	Method   MatchMethod `json:"method"`
}

// Resolved reports whether a header is bound to the field.
func (r Resolution) Resolved() bool { return r.Header != "" }

// FieldMapping holds one Resolution per catalogue field, in catalogue order.
type FieldMapping struct {
	Headers     []string     `json:"headers"`
	Resolutions []Resolution `json:"resolutions"`
}

// Header returns the header bound to f.
func (m FieldMapping) Header(f Field) (string, bool) {
	for _, r := range m.Resolutions {
		if r.Field == f && r.Resolved() {
			return r.Header, true
		}
	}
	return "", false
}

// Unresolved lists every field without a header, in catalogue order.
func (m FieldMapping) Unresolved() []Field {
	var out []Field
	for _, r := range m.Resolutions {
		if !r.Resolved() {
			out = append(out, r.Field)
		}
	}
	return out
}

// MissingRequired lists the required fields without a header.
func (m FieldMapping) MissingRequired() []Field {
	var out []Field
	for _, r := range m.Resolutions {
		if r.Required && !r.Resolved() {
			out = append(out, r.Field)
		}
	}
	return out
}

// Clone returns a deep copy so callers never mutate a shared mapping.
func (m FieldMapping) Clone() FieldMapping {
	return FieldMapping{
		Headers:     append([]string(nil), m.Headers...),
		Resolutions: append([]Resolution(nil), m.Resolutions...),
	}
}

func (m FieldMapping) index(f Field) int {
	for i, r := range m.Resolutions {
		if r.Field == f {
			return i
		}
	}
	return -1
}

func (m FieldMapping) owner(header string) int {
	for i, r := range m.Resolutions {
		if r.Header == header {
			return i
		}
	}
	return -1
}

func (m *FieldMapping) bind(i int, header string, method MatchMethod) {
	// A header feeds at most one field.
	if prev := m.owner(header); prev >= 0 && prev != i {
		m.Resolutions[prev].Header = ""
		m.Resolutions[prev].Method = MatchNone
	}
	m.Resolutions[i].Header = header
	m.Resolutions[i].Method = method
}

// ProposeMapping resolves every catalogue field against headers.
// Passes run over all fields before the next, looser pass starts:
// exact (case-insensitive), normalized (diacritics, punctuation and
// whitespace ignored), then containment of a normalized alias in a
// normalized header. A header is consumed by at most one field.
func ProposeMapping(headers []string) FieldMapping {
	m := FieldMapping{Headers: append([]string(nil), headers...)}
	for _, fs := range Catalogue {
		m.Resolutions = append(m.Resolutions, Resolution{Field: fs.Field, Required: fs.Required, Method: MatchNone})
	}

	used := make(map[string]bool)
	passes := []struct {
		method MatchMethod
		match  func(header, alias string) bool
	}{
		{MatchExact, func(h, a string) bool { return strings.EqualFold(strings.TrimSpace(h), a) }},
		{MatchNormalized, func(h, a string) bool {
			key := utils.FoldKey(h)
			return key != "" && key == utils.FoldKey(a)
		}},
		{MatchSubstring, func(h, a string) bool {
			alias := utils.FoldKey(a)
			return utf8.RuneCountInString(alias) >= minSubstringAlias && strings.Contains(utils.FoldKey(h), alias)
		}},
	}

	for _, pass := range passes {
		for i, fs := range Catalogue {
			if m.Resolutions[i].Resolved() {
				continue
			}
			if header, ok := firstMatch(headers, fs.Aliases, used, pass.match); ok {
				used[header] = true
				m.Resolutions[i].Header = header
				m.Resolutions[i].Method = pass.method
			}
		}
	}
	return m
}

func firstMatch(headers, aliases []string, used map[string]bool, match func(h, a string) bool) (string, bool) {
	for _, alias := range aliases {
		for _, h := range headers {
			if h == "" || used[h] {
				continue
			}
			if match(h, alias) {
				return h, true
			}
		}
	}
	return "", false
}

// ApplyUserOverride binds field to header and returns the new mapping.
// The header is taken from whichever field held it before. An empty header
// unbinds an optional field.
func ApplyUserOverride(m FieldMapping, field Field, header string) (FieldMapping, error) {
	out := m.Clone()
	i := out.index(field)
	if i < 0 {
		return m, fmt.Errorf("unknown field %q", field)
	}
	if header == "" {
		if out.Resolutions[i].Required {
			return m, fmt.Errorf("required field %q cannot be unmapped", field)
		}
		out.Resolutions[i].Header = ""
		out.Resolutions[i].Method = MatchNone
		return out, nil
	}
	if !containsHeader(out.Headers, header) {
		return m, fmt.Errorf("header %q is not in the uploaded table", header)
	}
	out.bind(i, header, MatchOverride)
	return out, nil
}

// ApplyOverrides applies several overrides in field catalogue order.
func ApplyOverrides(m FieldMapping, overrides map[Field]string) (FieldMapping, error) {
	for f := range overrides {
		if _, ok := Lookup(f); !ok {
			return m, fmt.Errorf("unknown field %q", f)
		}
	}
	out := m
	for _, fs := range Catalogue {
		header, ok := overrides[fs.Field]
		if !ok {
			continue
		}
		var err error
		if out, err = ApplyUserOverride(out, fs.Field, header); err != nil {
			return m, err
		}
	}
	return out, nil
}

// Finalize accepts the mapping only if every required field is resolved.
func Finalize(m FieldMapping) error {
	if missing := m.MissingRequired(); len(missing) > 0 {
		return &MappingError{Missing: missing, Headers: append([]string(nil), m.Headers...)}
	}
	return nil
}

func containsHeader(headers []string, h string) bool {
	for _, x := range headers {
		if x == h {
			return true
		}
	}
	return false
}
