package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/authn"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/dto"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/httpx"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/observability/middleware"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/service"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/settings"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ActorLoader resolves the authenticated user id to a user record.
type ActorLoader interface {
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
}

type Deps struct {
	Service  *service.Service
	Actors   ActorLoader
	Settings settings.Provider
	Verifier authn.Verifier

	CORSOrigins        []string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

type handler struct {
	svc    *service.Service
	actors ActorLoader
}

func NewRouter(d Deps) http.Handler {
	h := &handler{svc: d.Service, actors: d.Actors}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(d.RequestTimeout))
	r.Use(middleware.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsIfSet(d.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id", "X-Trace-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(featureGate(d.Settings))
		r.Use(authn.Middleware(d.Verifier))
		r.Use(h.loadActor)

		r.Get("/", h.shell)
		r.Get("/overview", h.overview)
		r.Get("/audit", h.audit)
		r.Get("/users/{id}", h.userDetail)
		r.Get("/users/{id}/notes", h.listNotes)

		r.Group(func(r chi.Router) {
			if d.RateLimitPerMinute > 0 {
				r.Use(httprate.LimitByIP(d.RateLimitPerMinute, time.Minute))
			}
			r.Put("/users/{id}/status", h.updateStatus)
			r.Post("/users/{id}/notes", h.createNote)
			r.Put("/notes/{id}", h.updateNote)
			r.Delete("/notes/{id}", h.deleteNote)
			r.Post("/manual", h.enableManual)
			r.Delete("/manual/{id}", h.disableManual)
		})
	})

	return middleware.WithRequestAndTrace(r)
}

// featureGate hides every workflow route while the feature is switched off.
func featureGate(p settings.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil || !p.Bool(settings.Enabled) {
				httpx.WriteError(w, r, domain.ErrNotFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type actorKey struct{}

// loadActor attaches the authenticated user. An id with no matching user
// leaves the actor absent, which every access check rejects.
func (h *handler) loadActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := authn.ActorIDFrom(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := h.actors.GetByID(r.Context(), id)
		switch {
		case errors.Is(err, store.ErrRecordNotFound):
			slog.Warn("token subject has no user", "user_id", id,
				"request_id", middleware.RequestIDFromContext(r.Context()))
		case err != nil:
			httpx.WriteError(w, r, fmt.Errorf("load actor: %w", err))
			return
		default:
			r = r.WithContext(context.WithValue(r.Context(), actorKey{}, u))
		}
		next.ServeHTTP(w, r)
	})
}

func actorFrom(r *http.Request) *domain.User {
	u, _ := r.Context().Value(actorKey{}).(*domain.User)
	return u
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", domain.ErrNotFound, chi.URLParam(r, "id"))
	}
	return id, nil
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.Warn(op+" failed", "error", err, "actor_id", actorID(r),
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"trace_id", middleware.TraceIDFromContext(r.Context()))
	httpx.WriteError(w, r, err)
}

func actorID(r *http.Request) int64 {
	if u := actorFrom(r); u != nil {
		return u.ID
	}
	return 0
}

func (h *handler) overview(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Overview(r.Context(), actorFrom(r))
	if err != nil {
		h.fail(w, r, "overview", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) audit(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Audit(r.Context(), actorFrom(r))
	if err != nil {
		h.fail(w, r, "audit", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) userDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "user detail", err)
		return
	}
	res, err := h.svc.UserDetail(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, "user detail", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "update status", err)
		return
	}
	var req dto.UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "update status", err)
		return
	}
	res, err := h.svc.UpdateStatus(r.Context(), actorFrom(r), id, req)
	if err != nil {
		h.fail(w, r, "update status", err)
		return
	}
	slog.Info("status updated", "user_id", id, "status", res.StatusLabel, "changed", res.Changed,
		"actor_id", actorID(r), "request_id", middleware.RequestIDFromContext(r.Context()))
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) listNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "list notes", err)
		return
	}
	notes, err := h.svc.Notes(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, "list notes", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"notes": notes})
}

func (h *handler) createNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "save note", err)
		return
	}
	var req dto.CreateNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "save note", err)
		return
	}
	res, err := h.svc.SaveNote(r.Context(), actorFrom(r), id, req)
	if err != nil {
		h.fail(w, r, "save note", err)
		return
	}
	status := http.StatusOK
	if res.Action == service.NoteCreated {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, res)
}

func (h *handler) updateNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "update note", err)
		return
	}
	var req dto.UpdateNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "update note", err)
		return
	}
	res, err := h.svc.UpdateNote(r.Context(), actorFrom(r), id, req)
	if err != nil {
		h.fail(w, r, "update note", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "delete note", err)
		return
	}
	res, err := h.svc.DeleteNote(r.Context(), actorFrom(r), id)
	if err != nil {
		h.fail(w, r, "delete note", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) enableManual(w http.ResponseWriter, r *http.Request) {
	var req dto.ManualTrackingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, "enable manual tracking", err)
		return
	}
	res, err := h.svc.SetManualTracking(r.Context(), actorFrom(r), req, true)
	if err != nil {
		h.fail(w, r, "enable manual tracking", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func (h *handler) disableManual(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "disable manual tracking", err)
		return
	}
	res, err := h.svc.SetManualTracking(r.Context(), actorFrom(r), dto.ManualTrackingRequest{UserID: &id}, false)
	if err != nil {
		h.fail(w, r, "disable manual tracking", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

func originsIfSet(in []string) []string {
	if len(in) == 0 {
		return []string{"*"}
	}
	return in
}
