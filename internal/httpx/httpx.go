// Package httpx holds the JSON response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/middleware"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Errors []string `json:"errors"`
	Error  string   `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps a workflow error onto its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrBusinessRule):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err with its user-facing messages. Internal failures
// are logged and reported generically.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msgs := domain.Messages(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"trace_id", middleware.TraceIDFromContext(r.Context()))
		msgs = []string{"internal error"}
	}
	if len(msgs) == 0 {
		msgs = []string{http.StatusText(status)}
	}
	WriteJSON(w, status, ErrorBody{Errors: msgs, Error: strings.Join(msgs, ", ")})
}

// DecodeJSON reads a request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.Invalid("malformed request body")
	}
	return nil
}
