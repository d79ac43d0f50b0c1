// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/lucid/internal/adapters/pipeline/queue"
	"github.com/okian/lucid/internal/adapters/tracker"
	"github.com/okian/lucid/internal/domain/dedupe"
	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/pkg/metrics"
)

// maxBatchSize bounds one submission; larger batches are rejected outright.
const maxBatchSize = 1000

// SampleDependencies defines the interface for sample processing dependencies.
type SampleDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.Sample) error
	Lookup(ctx context.Context, id string) (Entry, error)
}

// SamplesHandler handles sample submission and retrieval requests.
type SamplesHandler struct {
	deps SampleDependencies
}

// NewSamplesHandler creates a new samples handler.
func NewSamplesHandler(deps SampleDependencies) *SamplesHandler {
	return &SamplesHandler{deps: deps}
}

// sampleRequest is one element of a batch submission.
type sampleRequest struct {
	ID         string             `json:"id,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
	Expression string             `json:"expression,omitempty"`
}

// batchRequest mirrors the JSON schema for POST /v1/samples.
type batchRequest struct {
	Samples []sampleRequest `json:"samples"`
}

// batchResponse acknowledges a submission. IDs lists the accepted samples
// in submission order, for later retrieval.
type batchResponse struct {
	Accepted  int      `json:"accepted"`
	Rejected  int      `json:"rejected"`
	Duplicate int      `json:"duplicate"`
	IDs       []string `json:"ids"`
}

// sampleResponse is the read shape for GET /v1/samples/{id}.
type sampleResponse struct {
	ID       string              `json:"id"`
	Result   model.FatigueResult `json:"result"`
	ScoredAt time.Time           `json:"scored_at"`
}

// HandlePostSamples handles POST /v1/samples requests.
func (h *SamplesHandler) HandlePostSamples(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_samples"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
		return
	}
	if len(req.Samples) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "limit_exceeded", newKind(op, ErrBadRequest))
		return
	}

	resp := batchResponse{IDs: make([]string, 0, len(req.Samples))}
	for _, item := range req.Samples {
		rec, err := analyzeRequest{Metrics: item.Metrics, Expression: item.Expression}.record()
		if err != nil || len(rec) == 0 {
			resp.Rejected++
			continue
		}

		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = uuid.NewString()
		}

		// Idempotency check - mark as seen first
		if h.deps.SeenAndRecord(r.Context(), id) {
			metrics.RecordSampleDuplicate()
			resp.Duplicate++
			continue
		}

		if err := h.deps.Enqueue(r.Context(), model.Sample{ID: id, Record: rec}); err != nil {
			// Rollback the "seen" status since enqueue failed
			h.deps.Unrecord(r.Context(), id)
			if errors.Is(err, queue.ErrQueueClosed) {
				writeError(w, http.StatusServiceUnavailable, "shutting_down", newKind(op, err))
				return
			}
			resp.Rejected++
			continue
		}

		resp.Accepted++
		resp.IDs = append(resp.IDs, id)
	}
	writeJSON(w, http.StatusAccepted, resp)
}

// HandleGetSample handles GET /v1/samples/{id} requests.
func (h *SamplesHandler) HandleGetSample(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_sample"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /v1/samples/
	id := strings.TrimPrefix(r.URL.Path, "/v1/samples/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
		return
	}

	entry, err := h.deps.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, sampleResponse{
		ID:       entry.ID,
		Result:   entry.Result,
		ScoredAt: entry.ScoredAt,
	})
}
