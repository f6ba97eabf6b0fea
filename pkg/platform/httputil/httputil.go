// Package httputil holds the JSON response helpers shared by every handler.
package httputil

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/requestcontext"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse is the wire shape of every error body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	RetryAfter       int    `json:"retry_after_seconds,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// WriteError maps a domain error to its HTTP status and body.
// Internal errors never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := StatusFor(code)

	resp := ErrorResponse{Error: string(code)}
	if status != http.StatusInternalServerError {
		if de, ok := dErrors.From(err); ok {
			resp.ErrorDescription = de.Message
			if de.Code == dErrors.CodeCooldown {
				secs := int(math.Ceil(de.RetryAfter.Seconds()))
				resp.RetryAfter = secs
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
		}
	}
	WriteJSON(w, status, resp)
}

// LogAndWriteError logs err (warn for client errors, error for internal ones) with the
// request id and writes the mapped response.
func LogAndWriteError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.GetCode(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	WriteError(w, err)
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeUniqueness, dErrors.CodeUnavailable, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeIneligibleMember, dErrors.CodeInvalidAmount:
		return http.StatusUnprocessableEntity
	case dErrors.CodeCooldown:
		return http.StatusTooManyRequests
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
