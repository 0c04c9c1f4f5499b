package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controlbot/pkg/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "controlbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, models.DefaultThresholds(), cfg.Analysis.Thresholds)
	assert.Equal(t, 5, cfg.Analysis.TopN)
	assert.Equal(t, "de", cfg.Report.Language)
	assert.Equal(t, "management_summary", cfg.Report.Type)
	assert.True(t, cfg.Report.IncludeRecommendations)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, time.Second, cfg.LLM.BackoffBase)
	assert.Equal(t, 8*time.Second, cfg.LLM.BackoffMax)
	assert.Equal(t, 20000, cfg.LLM.MaxResponseChars)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
analysis:
  thresholds:
    low: 0.1
    medium: 0.2
    high: 0.4
  top_n: 3
report:
  language: en-GB
  type: executive_briefing
llm:
  timeout: 15s
  max_retries: 1
server:
  addr: 127.0.0.1:9000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, models.Thresholds{Low: 0.1, Medium: 0.2, High: 0.4}, cfg.Analysis.Thresholds)
	assert.Equal(t, 3, cfg.Analysis.TopN)
	assert.Equal(t, "en", cfg.Report.Language)
	assert.Equal(t, "executive_briefing", cfg.Report.Type)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.LLM.MaxRetries)
	// untouched keys keep their defaults
	assert.Equal(t, 20000, cfg.LLM.MaxResponseChars)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONTROLBOT_ANALYSIS_TOP_N", "10")
	t.Setenv("CONTROLBOT_REPORT_LANGUAGE", "en")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Analysis.TopN)
	assert.Equal(t, "en", cfg.Report.Language)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "unordered thresholds",
			body:  "analysis:\n  thresholds:\n    low: 0.2\n    medium: 0.1\n    high: 0.3\n",
			field: "analysis.thresholds",
		},
		{name: "zero top n", body: "analysis:\n  top_n: 0\n", field: "analysis.top_n"},
		{name: "unsupported language", body: "report:\n  language: fr\n", field: "report.language"},
		{name: "unknown report type", body: "report:\n  type: poem\n", field: "report.type"},
		{name: "zero timeout", body: "llm:\n  timeout: 0s\n", field: "llm.timeout"},
		{name: "negative retries", body: "llm:\n  max_retries: -1\n", field: "llm.max_retries"},
		{name: "backoff max below base", body: "llm:\n  backoff_base: 5s\n  backoff_max: 1s\n", field: "llm.backoff_max"},
		{name: "bad log level", body: "log:\n  level: loud\n", field: "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)

			var cfgErr *models.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Field, tc.field)
		})
	}
}
