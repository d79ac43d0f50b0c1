// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/lucid/internal/domain/fuse"
	"github.com/okian/lucid/internal/domain/model"
)

// AnalyzeDependencies defines the interface for synchronous scoring.
type AnalyzeDependencies interface {
	Analyze(ctx context.Context, rec model.FeatureRecord) (model.FatigueResult, error)
}

// AnalyzeHandler handles synchronous scoring requests.
type AnalyzeHandler struct {
	deps AnalyzeDependencies
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps}
}

// analyzeRequest mirrors the JSON schema for POST /v1/analyze.
type analyzeRequest struct {
	Metrics    map[string]float64 `json:"metrics"`
	Expression string             `json:"expression,omitempty"`
}

func (a analyzeRequest) validate() error {
	if len(a.Metrics) == 0 && strings.TrimSpace(a.Expression) == "" {
		return errors.New("missing metrics")
	}
	return nil
}

// record builds the engine input, encoding the expression label at the
// boundary so the engine sees only numbers. A label takes precedence over a
// numeric facial.expression supplied alongside it.
func (a analyzeRequest) record() (model.FeatureRecord, error) {
	rec := make(model.FeatureRecord, len(a.Metrics)+1)
	for k, v := range a.Metrics {
		rec[k] = v
	}
	if strings.TrimSpace(a.Expression) != "" {
		code, err := model.EncodeExpression(a.Expression)
		if err != nil {
			return nil, err
		}
		rec[model.MetricFacialExpression] = code
	}
	return rec, nil
}

// HandleAnalyze handles POST /v1/analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Analyze(r.Context(), rec)
	if err != nil {
		switch {
		case errors.Is(err, fuse.ErrInsufficientData):
			writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err)
		case errors.Is(err, model.ErrMalformedMetric):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}
