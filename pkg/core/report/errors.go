package report

import (
	"errors"
	"fmt"
	"strings"
)

// FailureReason classifies why a report degraded to tables only.
type FailureReason string

const (
	ReasonCancelled     FailureReason = "cancelled"
	ReasonFailed        FailureReason = "failed"
	ReasonRejected      FailureReason = "rejected"
	ReasonHallucination FailureReason = "hallucination"
)

// GenerationError is returned next to a degraded payload. The payload is
// still complete apart from the narrative.
type GenerationError struct {
	Attempts int
	Reason   FailureReason
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("GENERATION_FAILED: %s after %d attempt(s): %v", e.Reason, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

var (
	ErrEmptyResponse   = errors.New("EMPTY_RESPONSE: model returned no text")
	ErrResponseTooLong = errors.New("RESPONSE_TOO_LONG: model response exceeds the configured limit")
	ErrNoProvider      = errors.New("NO_PROVIDER: no model provider configured")
)

// HallucinationError lists project ids the model mentioned although the
// brief never presented them.
type HallucinationError struct {
	IDs []string
}

func (e *HallucinationError) Error() string {
	return "HALLUCINATED_PROJECT_IDS: " + strings.Join(e.IDs, ", ")
}
