// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/lucid/internal/adapters/tracker"
	"github.com/okian/lucid/internal/domain/dedupe"
	"github.com/okian/lucid/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Analyze scores a record synchronously.
	Analyze(ctx context.Context, rec model.FeatureRecord) (model.FatigueResult, error)

	// Enqueue pushes a sample for async scoring. Returns nil on acceptance,
	// queue.ErrQueueFull on backpressure, queue.ErrQueueClosed on shutdown.
	Enqueue(ctx context.Context, s model.Sample) error

	// Lookup returns the tracked result for a scored sample.
	Lookup(ctx context.Context, id string) (Entry, error)

	// Percentile reports the percentage of tracked scores strictly below
	// the given score; false when nothing is tracked yet.
	Percentile(ctx context.Context, score float64) (float64, bool)

	// WindowSummary describes the tracked score distribution.
	WindowSummary(ctx context.Context) Summary

	// ModelInfo reports which predictor is active and where it came from.
	ModelInfo(ctx context.Context) model.ModelInfo

	// ReloadModel drops the cached model and loads the artifacts again.
	ReloadModel(ctx context.Context) error
}

// Entry mirrors the read shape returned by sample lookups.
type Entry = tracker.Entry

// Summary mirrors the read shape returned by window queries.
type Summary = tracker.Summary

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analyzeHandler  *AnalyzeHandler
	samplesHandler  *SamplesHandler
	insightsHandler *InsightsHandler
	modelHandler    *ModelHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		analyzeHandler:  NewAnalyzeHandler(deps),
		samplesHandler:  NewSamplesHandler(deps),
		insightsHandler: NewInsightsHandler(deps),
		modelHandler:    NewModelHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/v1/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/v1/samples", MetricsMiddleware(s.samplesHandler.HandlePostSamples, "samples"))
	mux.HandleFunc("/v1/samples/", MetricsMiddleware(s.samplesHandler.HandleGetSample, "sample"))
	mux.HandleFunc("/v1/insights", MetricsMiddleware(s.insightsHandler.HandleInsights, "insights"))
	mux.HandleFunc("/v1/model", MetricsMiddleware(s.modelHandler.HandleModelInfo, "model"))
	mux.HandleFunc("/v1/model/reload", MetricsMiddleware(s.modelHandler.HandleModelReload, "model_reload"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// newKind tags a sentinel with the operation that raised it.
func newKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// wrapKind tags a sentinel and keeps the underlying cause in the message.
func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %v", op, kind, err)
}
