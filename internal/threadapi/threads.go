package threadapi

import (
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/sift/internal/triage"
)

type rankRequest struct {
	Threads []*triage.Thread `json:"threads"`
}

func (a *API) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req triage.Request
	if !decodeBody(w, r, &req) {
		return
	}

	sr, err := a.svc.Submit(r.Context(), &req)
	switch {
	case errors.Is(err, triage.ErrInvalidRequest):
		http.Error(w, `{"error":"thread with id is required"}`, http.StatusBadRequest)
		return
	case err != nil:
		a.logger.Error(r.Context(), err, "failed to submit thread", "thread_id", req.Thread.ID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("sift.thread.id", req.Thread.ID),
		attribute.String("sift.triage.id", sr.ID),
		attribute.Bool("sift.skipped", sr.Skipped),
	)

	if sr.Skipped {
		writeJSON(w, http.StatusOK, map[string]any{
			"skipped": true,
			"reason":  sr.Reason,
			"id":      sr.ID,
		})
		return
	}
	writeJSON(w, http.StatusCreated, sr.Result)
}

func (a *API) handleRescore(w http.ResponseWriter, r *http.Request) {
	var req triage.Request
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := a.svc.Rescore(r.Context(), &req)
	switch {
	case errors.Is(err, triage.ErrInvalidRequest):
		http.Error(w, `{"error":"thread with id is required"}`, http.StatusBadRequest)
		return
	case errors.Is(err, triage.ErrNotFound):
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	case err != nil:
		a.logger.Error(r.Context(), err, "failed to rescore thread", "thread_id", req.Thread.ID)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("sift.thread.id", req.Thread.ID),
		attribute.String("sift.tier", string(result.Priority.Tier)),
	)
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int("sift.batch.size", len(req.Threads)))

	ranked, err := a.svc.Rank(r.Context(), req.Threads)
	switch {
	case errors.Is(err, triage.ErrBatchTooLarge):
		http.Error(w, `{"error":"batch too large"}`, http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		a.logger.Error(r.Context(), err, "failed to rank threads", "size", len(req.Threads))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if ranked == nil {
		ranked = []triage.Ranked{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(ranked),
		"ranked": ranked,
	})
}
