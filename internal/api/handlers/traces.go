package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sobot-ai/sobot/internal/domain/trace"
)

// TraceService is the slice of the trace store the handler needs.
type TraceService interface {
	List(ctx context.Context, limit, offset int) ([]trace.Trace, error)
	GetByID(ctx context.Context, id string) (*trace.Trace, []trace.Generation, error)
}

// TracesHandler serves the read-only trace API.
type TracesHandler struct {
	service TraceService
}

// NewTracesHandler creates the handler.
func NewTracesHandler(service TraceService) *TracesHandler {
	return &TracesHandler{service: service}
}

type traceListResponse struct {
	Traces []trace.Trace `json:"traces"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type traceDetailResponse struct {
	Trace       *trace.Trace       `json:"trace"`
	Generations []trace.Generation `json:"generations"`
}

// List handles GET /api/v1/traces with limit/offset pagination.
func (h *TracesHandler) List(w http.ResponseWriter, r *http.Request) {
	p := parsePaginationParams(r)

	traces, err := h.service.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list traces")
		return
	}

	writeJSON(w, http.StatusOK, traceListResponse{Traces: traces, Limit: p.Limit, Offset: p.Offset})
}

// Get handles GET /api/v1/traces/{id}.
func (h *TracesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tr, gens, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, trace.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trace not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load trace")
		return
	}

	writeJSON(w, http.StatusOK, traceDetailResponse{Trace: tr, Generations: gens})
}
