// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/lucid/internal/domain/model"
)

// InsightDependencies defines the interface for insight query dependencies.
type InsightDependencies interface {
	Percentile(ctx context.Context, score float64) (float64, bool)
	WindowSummary(ctx context.Context) Summary
}

// InsightsHandler handles fatigue band and distribution queries.
type InsightsHandler struct {
	deps InsightDependencies
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(deps InsightDependencies) *InsightsHandler {
	return &InsightsHandler{deps: deps}
}

// band describes one fatigue level and its guidance.
type band struct {
	Level    model.Level `json:"level"`
	Min      float64     `json:"min"`
	Max      float64     `json:"max"`
	Guidance string      `json:"guidance"`
}

// distribution summarizes the scores currently held in the window.
type distribution struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// placement locates one score against the window population.
type placement struct {
	Score      float64     `json:"score"`
	Level      model.Level `json:"level"`
	Percentile *float64    `json:"percentile,omitempty"`
}

// insightsResponse is the read shape for GET /v1/insights.
type insightsResponse struct {
	Bands        []band        `json:"bands"`
	Distribution *distribution `json:"distribution,omitempty"`
	Placement    *placement    `json:"placement,omitempty"`
}

// fatigueBands returns the fixed score bands and their guidance.
func fatigueBands() []band {
	return []band{
		{Level: model.LevelLow, Min: 0, Max: model.LowBandMax, Guidance: "Keep up your current pace"},
		{Level: model.LevelModerate, Min: model.LowBandMax, Max: model.HighBandMin, Guidance: "Take a 10-minute break and step away from your screen"},
		{Level: model.LevelHigh, Min: model.HighBandMin, Max: 100, Guidance: "Take a short break (15-20 minutes)"},
	}
}

// HandleInsights handles GET /v1/insights requests. An optional score
// query parameter places that score against the current window.
func (h *InsightsHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	const op = "api.insights"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	resp := insightsResponse{Bands: fatigueBands()}

	sum := h.deps.WindowSummary(r.Context())
	if sum.Count > 0 {
		resp.Distribution = &distribution{
			Count: sum.Count,
			Mean:  sum.Mean,
			Min:   sum.Min,
			Max:   sum.Max,
		}
	}

	if raw := r.URL.Query().Get("score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		p := &placement{Score: score, Level: model.LevelForScore(score)}
		if pct, ok := h.deps.Percentile(r.Context(), score); ok {
			p.Percentile = &pct
		}
		resp.Placement = p
	}

	writeJSON(w, http.StatusOK, resp)
}
