package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Options tune a single generation call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// JSON asks the model for a JSON object when the backend supports it.
	JSON     bool
	Language string
}

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, opts Options) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// ErrorKind tells the caller whether repeating a call can help.
type ErrorKind int

const (
	Transient ErrorKind = iota
	Permanent
)

func (k ErrorKind) String() string {
	if k == Transient {
		return "TRANSIENT"
	}
	return "PERMANENT"
}

// Error is a classified provider failure.
type Error struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("LLM_%s: %s: status=%d: %v", e.Kind, e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("LLM_%s: %s: %v", e.Kind, e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransient reports whether err is worth another attempt. Deadline and
// network timeouts count as transient, cancellation does not.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind == Transient
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// StatusKind classifies an HTTP status: 408, 429 and 5xx are transient.
func StatusKind(status int) ErrorKind {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500 {
		return Transient
	}
	return Permanent
}

func statusError(provider string, status int, body []byte) *Error {
	return &Error{Provider: provider, Kind: StatusKind(status), StatusCode: status, Err: fmt.Errorf("%s", truncate(string(body), 512))}
}

// transportError wraps failures that happened before a status was seen.
func transportError(provider string, err error) *Error {
	kind := Transient
	if errors.Is(err, context.Canceled) {
		kind = Permanent
	}
	return &Error{Provider: provider, Kind: kind, Err: err}
}

func permanent(provider string, format string, args ...any) *Error {
	return &Error{Provider: provider, Kind: Permanent, Err: fmt.Errorf(format, args...)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
