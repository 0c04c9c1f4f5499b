// Package config loads controlbot.yaml with viper. Every key has a
// default and can be overridden from the environment with the CONTROLBOT_
// prefix, e.g. CONTROLBOT_ANALYSIS_TOP_N=10 or CONTROLBOT_LLM_TIMEOUT=30s.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"controlbot/pkg/core/analysis"
	"controlbot/pkg/core/i18n"
	"controlbot/pkg/core/report"
	"controlbot/pkg/models"
)

type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" json:"analysis"`
	Report   ReportConfig   `mapstructure:"report" json:"report"`
	LLM      report.Config  `mapstructure:"llm" json:"llm"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Paths    PathsConfig    `mapstructure:"paths" json:"paths"`
	Log      LogConfig      `mapstructure:"log" json:"log"`
}

type AnalysisConfig struct {
	Thresholds models.Thresholds `mapstructure:"thresholds" json:"thresholds"`
	TopN       int               `mapstructure:"top_n" json:"top_n"`
}

type ReportConfig struct {
	Language               string `mapstructure:"language" json:"language"`
	Type                   string `mapstructure:"type" json:"type"`
	Currency               string `mapstructure:"currency" json:"currency"`
	IncludeRecommendations bool   `mapstructure:"include_recommendations" json:"include_recommendations"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" json:"max_upload_bytes"`
}

type PathsConfig struct {
	// Models is the provider selection file (models.yaml).
	Models string `mapstructure:"models" json:"models"`
	// Prompts optionally overrides the built-in prompt templates.
	Prompts string `mapstructure:"prompts" json:"prompts"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Pretty bool   `mapstructure:"pretty" json:"pretty"`
}

func setDefaults(v *viper.Viper) {
	th := models.DefaultThresholds()
	v.SetDefault("analysis.thresholds.low", th.Low)
	v.SetDefault("analysis.thresholds.medium", th.Medium)
	v.SetDefault("analysis.thresholds.high", th.High)
	v.SetDefault("analysis.top_n", analysis.DefaultTopN)

	v.SetDefault("report.language", "de")
	v.SetDefault("report.type", string(models.ReportManagementSummary))
	v.SetDefault("report.currency", "EUR")
	v.SetDefault("report.include_recommendations", true)

	llm := report.DefaultConfig()
	v.SetDefault("llm.timeout", llm.Timeout)
	v.SetDefault("llm.max_retries", llm.MaxRetries)
	v.SetDefault("llm.backoff_base", llm.BackoffBase)
	v.SetDefault("llm.backoff_max", llm.BackoffMax)
	v.SetDefault("llm.max_response_chars", llm.MaxResponseChars)
	v.SetDefault("llm.temperature", llm.Temperature)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("paths.models", "config/models.yaml")
	v.SetDefault("paths.prompts", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Load reads path, or controlbot.yaml from the working directory or
// ./config when path is empty, and validates the result. A missing
// default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CONTROLBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("controlbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every value a run depends on. Failures are
// *models.ConfigurationError naming the offending key. The report
// language is normalized to its base tag.
func (c *Config) Validate() error {
	if err := analysis.ValidateThresholds(c.Analysis.Thresholds); err != nil {
		return err
	}
	if err := analysis.ValidateTopN(c.Analysis.TopN); err != nil {
		return err
	}

	lang, err := i18n.Match(c.Report.Language)
	if err != nil {
		return &models.ConfigurationError{Field: "report.language", Reason: err.Error()}
	}
	c.Report.Language = lang
	if _, err := models.ParseReportType(c.Report.Type); err != nil {
		return &models.ConfigurationError{Field: "report.type", Reason: err.Error()}
	}

	switch {
	case c.LLM.Timeout <= 0:
		return &models.ConfigurationError{Field: "llm.timeout", Reason: "must be positive"}
	case c.LLM.MaxRetries < 0:
		return &models.ConfigurationError{Field: "llm.max_retries", Reason: "must not be negative"}
	case c.LLM.BackoffBase < 0:
		return &models.ConfigurationError{Field: "llm.backoff_base", Reason: "must not be negative"}
	case c.LLM.BackoffMax < c.LLM.BackoffBase:
		return &models.ConfigurationError{Field: "llm.backoff_max", Reason: "must not be below llm.backoff_base"}
	case c.LLM.MaxResponseChars <= 0:
		return &models.ConfigurationError{Field: "llm.max_response_chars", Reason: "must be positive"}
	case c.Server.MaxUploadBytes <= 0:
		return &models.ConfigurationError{Field: "server.max_upload_bytes", Reason: "must be positive"}
	}

	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return &models.ConfigurationError{Field: "log.level", Reason: err.Error()}
	}
	return nil
}

// Logger builds the process logger. Pretty output goes through
// zerolog's console writer.
func (c LogConfig) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if c.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
