// Package authn turns a bearer token into the acting user's id. Sessions
// are issued elsewhere; this service only verifies them.
package authn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/metrics"
	obsmw "github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/middleware"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier validates a raw token and returns its subject.
type Verifier interface {
	Method() string
	Verify(raw string) (string, error)
}

type actorKey struct{}

func WithActorID(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

func ActorIDFrom(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(actorKey{}).(domain.UserID)
	return id, ok
}

func bearer(r *http.Request) (string, error) {
	raw := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return "", ErrMissingToken
	}
	tok := strings.TrimSpace(raw[len("Bearer "):])
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

// Middleware rejects requests without a valid token whose subject is a
// numeric user id.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := "success"
			defer func() {
				metrics.AuthenticationAttemptsTotal.WithLabelValues(v.Method(), result).Inc()
			}()
			reqID := obsmw.RequestIDFromContext(r.Context())
			traceID := obsmw.TraceIDFromContext(r.Context())

			tok, err := bearer(r)
			if err != nil {
				result = "failure"
				http.Error(w, err.Error(), http.StatusUnauthorized)
				slog.Warn("auth missing bearer", "method", v.Method(), "request_id", reqID, "trace_id", traceID)
				return
			}
			sub, err := v.Verify(tok)
			if err != nil {
				result = "failure"
				http.Error(w, "invalid token", http.StatusUnauthorized)
				slog.Warn("auth invalid token", "method", v.Method(), "error", err, "request_id", reqID, "trace_id", traceID)
				return
			}
			id, err := strconv.ParseInt(sub, 10, 64)
			if err != nil || id <= 0 {
				result = "failure"
				http.Error(w, "invalid subject", http.StatusUnauthorized)
				slog.Warn("auth non-numeric subject", "method", v.Method(), "subject", sub, "request_id", reqID, "trace_id", traceID)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActorID(r.Context(), id)))
		})
	}
}
