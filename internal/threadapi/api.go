// Package threadapi exposes the triage service over HTTP.
package threadapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/sift/internal/triage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// TriageService defines the business operations threadapi needs.
type TriageService interface {
	Submit(ctx context.Context, req *triage.Request) (*triage.SubmitResult, error)
	Rescore(ctx context.Context, req *triage.Request) (*triage.Result, error)
	Get(ctx context.Context, id string) (*triage.Result, bool, error)
	GetByThread(ctx context.Context, threadID string) (*triage.Result, bool, error)
	List(ctx context.Context, filter triage.ListFilter) ([]*triage.Result, error)
	Rank(ctx context.Context, threads []*triage.Thread) ([]triage.Ranked, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    TriageService
}

// New creates a new API handler.
func New(logger log.Logger, svc TriageService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router. mw wraps every
// /api/v1 route (auth, typically).
func (a *API) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw...)
		r.Post("/threads", a.handleSubmit)
		r.Post("/threads/rescore", a.handleRescore)
		r.Get("/threads/{threadID}/triage", a.handleGetByThread)
		r.Post("/rank", a.handleRank)
		r.Get("/triage", a.handleList)
		r.Get("/triage/{id}", a.handleGetTriage)
	})
}

func (a *API) handleGetTriage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("sift.triage.id", id))

	result, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get triage result", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("sift.tier", string(result.Priority.Tier)))
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleGetByThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("sift.thread.id", threadID))

	result, ok, err := a.svc.GetByThread(r.Context(), threadID)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get triage result", "thread_id", threadID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	var f triage.ListFilter
	q := r.URL.Query()

	if s := q.Get("tier"); s != "" {
		tier, ok := triage.ParseTier(s)
		if !ok {
			http.Error(w, `{"error":"invalid tier"}`, http.StatusBadRequest)
			return
		}
		f.Tier = tier
	}

	f.Limit = defaultListLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxListLimit {
			http.Error(w, `{"error":"limit must be between 1 and 500"}`, http.StatusBadRequest)
			return
		}
		f.Limit = n
	}

	results, err := a.svc.List(r.Context(), f)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list triage results", "tier", f.Tier, "limit", f.Limit)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []*triage.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody writes the error response itself and reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, `{"error":"payload too large"}`, http.StatusRequestEntityTooLarge)
		return false
	}
	http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
	return false
}
