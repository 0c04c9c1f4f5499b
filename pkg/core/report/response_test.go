package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"controlbot/pkg/models"
)

var plan = []models.SectionSpec{
	{Key: "overview", Title: "Overview", Fallback: "facts"},
	{Key: "risks", Title: "Top risks", Fallback: "risk facts"},
}

func TestParseNarrativeMatchesTitlesAndKeys(t *testing.T) {
	n := parseNarrative(`{"sections":[{"key":"Top Risks","body":"a"},{"key":"mystery","title":"Overview","body":"b"},{"key":"other","body":"c"}]}`, plan)

	assert.Equal(t, "a", n.bodies["risks"])
	assert.Equal(t, "b\n\nc", n.bodies["overview"])
}

func TestParseNarrativeFallsBackToPlainText(t *testing.T) {
	n := parseNarrative("Just one paragraph without structure.", plan)
	assert.Equal(t, map[string]string{"overview": "Just one paragraph without structure."}, n.bodies)
	assert.Empty(t, n.echoed)
}

func TestStitchKeepsPlanOrder(t *testing.T) {
	n := narrative{bodies: map[string]string{"risks": "model text"}}
	sections := stitch(plan, n)

	assert.Equal(t, []models.Section{
		{Key: "overview", Title: "Overview", Body: "facts", Source: models.SourceBrief},
		{Key: "risks", Title: "Top risks", Body: "model text", Source: models.SourceModel},
	}, sections)
}

func TestUnknownProjectIDs(t *testing.T) {
	tests := []struct {
		name  string
		n     narrative
		known []string
		want  []string
	}{
		{
			name:  "clean",
			n:     narrative{bodies: map[string]string{"a": "PRJ-001 is late; 2024 budget at 1.5 %."}},
			known: []string{"PRJ-001", "PRJ-002"},
			want:  []string{},
		},
		{
			name:  "invented id of the same shape",
			n:     narrative{bodies: map[string]string{"a": "PRJ-001 and PRJ-007 overrun."}},
			known: []string{"PRJ-001", "PRJ-002"},
			want:  []string{"PRJ-007"},
		},
		{
			name:  "echoed id",
			n:     narrative{bodies: map[string]string{}, echoed: []string{"crm", "SAP"}},
			known: []string{"CRM"},
			want:  []string{"SAP"},
		},
		{
			name:  "period tokens next to short ids",
			n:     narrative{bodies: map[string]string{"a": "P1 overran its plan in Q3; P2 stayed under budget in KW12 and H1."}, echoed: []string{"P1", "P2"}},
			known: []string{"P1", "P2"},
			want:  []string{},
		},
		{
			name:  "invented short id",
			n:     narrative{bodies: map[string]string{"a": "P1 and P7 overran in Q3."}},
			known: []string{"P1", "P2"},
			want:  []string{"P7"},
		},
		{
			name:  "letters-only ids are not shape matched",
			n:     narrative{bodies: map[string]string{"a": "The CRM and ABC teams."}},
			known: []string{"CRM"},
			want:  []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unknownProjectIDs(tt.n, tt.known))
		})
	}
}

func TestCheckLength(t *testing.T) {
	assert.ErrorIs(t, checkLength(" \n", 10), ErrEmptyResponse)
	assert.ErrorIs(t, checkLength("ääääää", 5), ErrResponseTooLong)
	assert.NoError(t, checkLength("äääää", 5))
}
