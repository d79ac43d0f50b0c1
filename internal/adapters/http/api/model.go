// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/lucid/internal/domain/model"
)

// ModelDependencies defines the interface for model status dependencies.
type ModelDependencies interface {
	ModelInfo(ctx context.Context) model.ModelInfo
	ReloadModel(ctx context.Context) error
}

// ModelHandler handles model status and reload requests.
type ModelHandler struct {
	deps ModelDependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps ModelDependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

// reloadResponse reports the model state after a reload attempt. Error
// carries the load failure when the engine stayed on heuristics.
type reloadResponse struct {
	Model model.ModelInfo `json:"model"`
	Error string          `json:"error,omitempty"`
}

// HandleModelInfo handles GET /v1/model requests.
func (h *ModelHandler) HandleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ModelInfo(r.Context()))
}

// HandleModelReload handles POST /v1/model/reload requests. The reload
// outcome is always reported with a 200; a failed load leaves the engine
// on its previous predictor and surfaces the cause in the response.
func (h *ModelHandler) HandleModelReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	err := h.deps.ReloadModel(r.Context())
	resp := reloadResponse{Model: h.deps.ModelInfo(r.Context())}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
