// Package report turns a report brief into a ReportPayload. It is the only
// part of a run that talks to the network: one model call per attempt,
// bounded by a per-attempt timeout and an exponential backoff between
// transient failures. Whatever happens to the narrative, the payload keeps
// every table computed by the analysis.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"controlbot/pkg/core/i18n"
	"controlbot/pkg/core/llm"
	"controlbot/pkg/models"
)

// Config bounds the model call.
type Config struct {
	Timeout          time.Duration `mapstructure:"timeout" json:"timeout"`
	MaxRetries       int           `mapstructure:"max_retries" json:"max_retries"`
	BackoffBase      time.Duration `mapstructure:"backoff_base" json:"backoff_base"`
	BackoffMax       time.Duration `mapstructure:"backoff_max" json:"backoff_max"`
	MaxResponseChars int           `mapstructure:"max_response_chars" json:"max_response_chars"`
	Temperature      float64       `mapstructure:"temperature" json:"temperature"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:          60 * time.Second,
		MaxRetries:       3,
		BackoffBase:      time.Second,
		BackoffMax:       8 * time.Second,
		MaxResponseChars: 20000,
		Temperature:      0.3,
	}
}

// Input is everything one Generate call needs.
type Input struct {
	Brief    *models.ReportBrief
	Summary  *models.PortfolioSummary
	Projects []models.ProjectMetrics
	Issues   []models.ValidationIssue
	Currency string

	Provider     llm.Provider
	ProviderName string
	// Options carries the model name and temperature; MaxTokens and JSON
	// are taken from the brief.
	Options llm.Options
}

// Orchestrator holds no run state; one instance serves concurrent runs.
type Orchestrator struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg, sleep: sleepCtx, now: time.Now}
}

// Generate returns a payload in every case except a missing brief or
// summary. When the narrative could not be produced the payload is
// tables-only with a marker section, and a *GenerationError explains why.
func (o *Orchestrator) Generate(ctx context.Context, in Input) (*models.ReportPayload, error) {
	if in.Brief == nil || in.Summary == nil {
		return nil, fmt.Errorf("report input needs a brief and a summary")
	}
	log := zerolog.Ctx(ctx)
	p := i18n.New(in.Brief.Language)

	payload := &models.ReportPayload{
		ID:          uuid.NewString(),
		Type:        in.Brief.Type,
		Language:    in.Brief.Language,
		Title:       in.Brief.Title,
		Brief:       in.Brief,
		Tables:      BuildTables(p, in.Summary, in.Brief.Facts, in.Projects, in.Issues, in.Currency),
		Summary:     in.Summary,
		Provider:    in.ProviderName,
		GeneratedAt: o.now().UTC(),
	}

	n, attempts, gerr := o.narrate(ctx, in)
	payload.Attempts = attempts
	if gerr != nil {
		log.Warn().Err(gerr).Str("report_type", string(in.Brief.Type)).Int("attempts", attempts).Msg("narrative unavailable, returning tables only")
		payload.NarrativeAvailable = false
		payload.NarrativeNote = p.T("marker.reason." + string(gerr.Reason))
		payload.Sections = []models.Section{{
			Key:    "notice",
			Title:  p.T("marker.title"),
			Body:   p.T("marker.narrative_unavailable", payload.NarrativeNote),
			Source: models.SourceMarker,
		}}
		return payload, gerr
	}

	payload.NarrativeAvailable = true
	payload.Sections = stitch(in.Brief.Sections, n)
	log.Info().Str("report_type", string(in.Brief.Type)).Int("attempts", attempts).Int("sections", len(payload.Sections)).Msg("report generated")
	return payload, nil
}

// narrate runs the attempt loop. A hallucinated id earns exactly one more
// attempt on top of the retry budget.
func (o *Orchestrator) narrate(ctx context.Context, in Input) (narrative, int, *GenerationError) {
	log := zerolog.Ctx(ctx)
	if in.Provider == nil {
		return narrative{}, 0, &GenerationError{Reason: ReasonFailed, Err: ErrNoProvider}
	}

	opts := in.Options
	opts.MaxTokens = in.Brief.MaxTokens
	opts.JSON = true
	opts.Language = in.Brief.Language
	if opts.Temperature == 0 {
		opts.Temperature = o.cfg.Temperature
	}

	maxAttempts := 1 + max(o.cfg.MaxRetries, 0)
	// extra counts the hallucination retry, which the budget does not charge.
	extra := 0
	var lastErr error
	reason := ReasonFailed
	attempt := 0

	for {
		attempt++
		text, err := o.call(ctx, in.Provider, in.Brief, opts)
		if ctx.Err() != nil {
			return narrative{}, attempt, &GenerationError{Attempts: attempt, Reason: ReasonCancelled, Err: ctx.Err()}
		}

		if err == nil {
			err = checkLength(text, o.cfg.MaxResponseChars)
			if err != nil {
				reason = ReasonRejected
			}
		} else {
			reason = ReasonFailed
			if !llm.IsTransient(err) {
				return narrative{}, attempt, &GenerationError{Attempts: attempt, Reason: ReasonFailed, Err: err}
			}
		}

		if err == nil {
			n := parseNarrative(text, in.Brief.Sections)
			ids := unknownProjectIDs(n, in.Brief.KnownProjectIDs)
			if len(ids) == 0 {
				return n, attempt, nil
			}
			herr := &HallucinationError{IDs: ids}
			log.Warn().Strs("ids", ids).Int("attempt", attempt).Msg("model referenced unknown projects")
			if extra > 0 {
				return narrative{}, attempt, &GenerationError{Attempts: attempt, Reason: ReasonHallucination, Err: herr}
			}
			extra = 1
			lastErr = herr
			continue
		}

		lastErr = err
		if attempt-extra >= maxAttempts {
			break
		}
		wait := o.backoff(attempt - extra)
		log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("retrying model call")
		if err := o.sleep(ctx, wait); err != nil {
			return narrative{}, attempt, &GenerationError{Attempts: attempt, Reason: ReasonCancelled, Err: err}
		}
	}
	if errors.Is(lastErr, context.DeadlineExceeded) {
		lastErr = fmt.Errorf("model call timed out after %s: %w", o.cfg.Timeout, lastErr)
	}
	return narrative{}, attempt, &GenerationError{Attempts: attempt, Reason: reason, Err: lastErr}
}

// call makes one attempt under its own deadline. The wait ends when the
// deadline passes even if the provider ignores its context.
func (o *Orchestrator) call(ctx context.Context, provider llm.Provider, brief *models.ReportBrief, opts llm.Options) (string, error) {
	callCtx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := provider.GenerateResponse(callCtx, brief.Prompt, provider.AdaptInstructions(brief.SystemPrompt), opts)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-callCtx.Done():
		return "", callCtx.Err()
	}
}

// backoff returns base * 2^(attempt-1), capped at BackoffMax.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := o.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if o.cfg.BackoffMax > 0 && d >= o.cfg.BackoffMax {
			return o.cfg.BackoffMax
		}
	}
	if o.cfg.BackoffMax > 0 && d > o.cfg.BackoffMax {
		return o.cfg.BackoffMax
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
