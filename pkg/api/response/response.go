// Package response writes JSON bodies and maps domain errors to status codes.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"controlbot/pkg/core/schema"
	"controlbot/pkg/models"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Missing []schema.Field `json:"missing,omitempty"`
	Headers []string       `json:"headers,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

// BadRequest reports malformed input.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	JSON(w, r, http.StatusBadRequest, ErrorBody{Code: "BAD_REQUEST", Message: msg})
}

// DecodeJSON reads a JSON body of at most limit bytes into v. A body over
// the limit is answered with 413, any other decode failure with 400.
func DecodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) bool {
	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	err := json.NewDecoder(body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		JSON(w, r, http.StatusRequestEntityTooLarge, ErrorBody{Code: "BODY_TOO_LARGE", Message: err.Error()})
		return false
	}
	BadRequest(w, r, "invalid request body: "+err.Error())
	return false
}

// Error maps err onto a status code and writes it.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		logger.Warn().Err(err).Int("status", status).Msg("request rejected")
	}
	JSON(w, r, status, body)
}

func classify(err error) (int, ErrorBody) {
	var (
		mErr   *schema.MappingError
		cfgErr *models.ConfigurationError
	)
	switch {
	case errors.As(err, &mErr):
		return http.StatusUnprocessableEntity, ErrorBody{
			Code:    "MAPPING_INCOMPLETE",
			Message: err.Error(),
			Missing: mErr.Missing,
			Headers: mErr.Headers,
		}
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, ErrorBody{Code: "CONFIGURATION_ERROR", Message: err.Error(), Field: cfgErr.Field}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorBody{Code: "TIMEOUT", Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorBody{Code: "CANCELLED", Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorBody{Code: "INTERNAL", Message: err.Error()}
}
