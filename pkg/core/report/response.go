package report

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"controlbot/pkg/core/utils"
	"controlbot/pkg/models"
)

// modelResponse is the JSON object the brief asks for.
type modelResponse struct {
	Sections []struct {
		Key   string `json:"key"`
		Title string `json:"title"`
		Body  string `json:"body"`
	} `json:"sections"`
	ReferencedProjectIDs []string `json:"referenced_project_ids"`
}

// narrative is a parsed model answer: section bodies by plan key plus the
// ids the model claims to discuss.
type narrative struct {
	bodies map[string]string
	echoed []string
}

func checkLength(text string, limit int) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyResponse
	}
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		return ErrResponseTooLong
	}
	return nil
}

// parseNarrative reads a structured JSON answer when there is one and
// otherwise splits the text on markdown headings.
func parseNarrative(text string, plan []models.SectionSpec) narrative {
	cleaned := utils.CleanMarkdown(text)
	n := narrative{bodies: make(map[string]string)}
	if len(plan) == 0 {
		return n
	}

	if obj, ok := utils.ExtractJSONObject(cleaned); ok {
		var resp modelResponse
		if _, err := utils.SmartParse(obj, &resp); err == nil && hasBody(resp) {
			for _, s := range resp.Sections {
				key := matchSection(plan, s.Key, s.Title)
				if key == "" {
					key = plan[0].Key
				}
				n.add(key, s.Body)
			}
			n.echoed = resp.ReferencedProjectIDs
			return n
		}
	}

	for _, s := range utils.SplitSections(cleaned) {
		key := matchSection(plan, s.Heading, s.Heading)
		if key == "" {
			key = plan[0].Key
		}
		n.add(key, s.Body)
	}
	return n
}

func hasBody(resp modelResponse) bool {
	for _, s := range resp.Sections {
		if strings.TrimSpace(s.Body) != "" {
			return true
		}
	}
	return false
}

func (n narrative) add(key, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	if prev := n.bodies[key]; prev != "" {
		body = prev + "\n\n" + body
	}
	n.bodies[key] = body
}

// matchSection finds the plan entry named by key or title, compared
// after folding case, diacritics and punctuation.
func matchSection(plan []models.SectionSpec, key, title string) string {
	k, t := utils.FoldKey(key), utils.FoldKey(title)
	if k == "" && t == "" {
		return ""
	}
	for _, s := range plan {
		if k != "" && (utils.FoldKey(s.Key) == k || utils.FoldKey(s.Title) == k) {
			return s.Key
		}
	}
	for _, s := range plan {
		if t != "" && utils.FoldKey(s.Title) == t {
			return s.Key
		}
	}
	return ""
}

// stitch lays the narrative onto the plan in plan order. Missing sections
// get the brief's fact text.
func stitch(plan []models.SectionSpec, n narrative) []models.Section {
	out := make([]models.Section, len(plan))
	for i, s := range plan {
		out[i] = models.Section{Key: s.Key, Title: s.Title, Body: s.Fallback, Source: models.SourceBrief}
		if body, ok := n.bodies[s.Key]; ok {
			out[i].Body = body
			out[i].Source = models.SourceModel
		}
	}
	return out
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}](?:[\p{L}\p{N}_\-/.]*[\p{L}\p{N}])?`)

// idShape maps letters to 'A' and digits to '9' and keeps separators, so
// "PRJ-0042" becomes "AAA-9999".
func idShape(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return 'A'
		case unicode.IsDigit(r):
			return '9'
		}
		return r
	}, s)
}

// idKey is the lowercased letter prefix plus the shape of s. It is empty
// for tokens that do not start with letters or carry no digit, so "Q3"
// never collides with "P1" and "2024" never collides with anything.
func idKey(s string) string {
	prefix := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if prefix <= 0 || !strings.ContainsFunc(s[prefix:], unicode.IsDigit) {
		return ""
	}
	return strings.ToLower(s[:prefix]) + "|" + idShape(s)
}

// unknownProjectIDs is a containment check, not a fact checker. It flags
// ids the model echoed that the brief never listed, and tokens in the
// bodies that share a known id's letter prefix and shape ("P7" next to
// "P1") without being known ids themselves.
func unknownProjectIDs(n narrative, known []string) []string {
	knownSet := make(map[string]bool, len(known))
	shapes := make(map[string]bool)
	for _, id := range known {
		id = strings.TrimSpace(id)
		knownSet[strings.ToLower(id)] = true
		if k := idKey(id); k != "" {
			shapes[k] = true
		}
	}

	found := make(map[string]bool)
	for _, id := range n.echoed {
		id = strings.TrimSpace(id)
		if id != "" && !knownSet[strings.ToLower(id)] {
			found[id] = true
		}
	}
	if len(shapes) > 0 {
		for _, body := range n.bodies {
			for _, tok := range tokenPattern.FindAllString(body, -1) {
				if k := idKey(tok); k != "" && shapes[k] && !knownSet[strings.ToLower(tok)] {
					found[tok] = true
				}
			}
		}
	}

	ids := make([]string, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
