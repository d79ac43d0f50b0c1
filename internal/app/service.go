// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/lucid/internal/adapters/artifact"
	"github.com/okian/lucid/internal/adapters/pipeline/queue"
	workerpool "github.com/okian/lucid/internal/adapters/pipeline/worker"
	"github.com/okian/lucid/internal/adapters/tracker"
	"github.com/okian/lucid/internal/domain/dedupe"
	"github.com/okian/lucid/internal/domain/engine"
	"github.com/okian/lucid/internal/domain/fuse"
	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/internal/domain/normalize"
	"github.com/okian/lucid/internal/domain/predict"
	"github.com/okian/lucid/internal/domain/score"
	"github.com/okian/lucid/pkg/logger"
	"github.com/okian/lucid/pkg/metrics"
)

// Service implements the API dependencies for the fatigue scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine      *engine.Engine
	adapter     *predict.Adapter
	deduper     dedupe.Deduper
	sampleQueue queue.Queue
	results     tracker.Store
	workerPool  *workerpool.Pool

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	windowSize      int
	modelDir        string
	blinkBaseline   float64
	tieTolerance    float64
	blendWeight     float64
	modalityWeights map[string]map[string]float64

	// State
	started       bool
	modelLoadedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the sample queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithWindowSize bounds the rolling window of tracked results.
func WithWindowSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.windowSize = size
		}
	}
}

// WithModelDir locates the trained model artifacts. An empty dir disables
// the trained path entirely.
func WithModelDir(dir string) Option {
	return func(s *Service) {
		s.modelDir = dir
	}
}

// WithBlinkBaseline anchors the U-shaped blink-rate mapping.
func WithBlinkBaseline(baseline float64) Option {
	return func(s *Service) {
		if baseline > 0 {
			s.blinkBaseline = baseline
		}
	}
}

// WithTieTolerance sets the score spread under which no modality dominates.
func WithTieTolerance(t float64) Option {
	return func(s *Service) {
		if t >= 0 {
			s.tieTolerance = t
		}
	}
}

// WithBlendWeight mixes trained and heuristic predictions.
func WithBlendWeight(w float64) Option {
	return func(s *Service) {
		if w >= 0 && w <= 1 {
			s.blendWeight = w
		}
	}
}

// WithModalityWeights overrides per-metric weights inside each modality.
func WithModalityWeights(weights map[string]map[string]float64) Option {
	return func(s *Service) {
		if len(weights) > 0 {
			s.modalityWeights = weights
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 4,
		queueSize:     10_000,
		dedupeSize:    50_000,
		windowSize:    10_000,
		modelDir:      "artifacts",
		blinkBaseline: 16,
		tieTolerance:  5,
		blendWeight:   1.0,
		logger:        nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting fatigue scoring service...")

	// Predictor: trained model when artifacts load, heuristic otherwise
	var source predict.ArtifactSource
	if s.modelDir != "" {
		source = artifact.New(s.modelDir)
	}
	s.adapter = predict.NewAdapter(source)
	if err := s.adapter.Warm(ctx); err != nil {
		s.logger.Warn(ctx, "trained model unavailable, scoring on heuristic",
			logger.String("dir", s.modelDir),
			logger.Error(err),
		)
	} else {
		s.modelLoadedAt = time.Now()
		s.logger.Info(ctx, "trained model loaded", logger.String("dir", s.modelDir))
	}
	metrics.UpdateModelLoaded(s.adapter.Loaded())

	engineOpts := []engine.Option{
		engine.WithPredictor(s.adapter),
		engine.WithNormalizer(normalize.New(
			normalize.WithBlinkBaseline(s.blinkBaseline),
		)),
		engine.WithFuser(fuse.New(
			fuse.WithTieTolerance(s.tieTolerance),
			fuse.WithBlendWeight(s.blendWeight),
		)),
	}
	if len(s.modalityWeights) > 0 {
		scoreOpts := make([]score.Option, 0, len(s.modalityWeights))
		for name, weights := range s.modalityWeights {
			scoreOpts = append(scoreOpts, score.WithWeights(model.Modality(name), weights))
		}
		engineOpts = append(engineOpts, engine.WithScorer(score.New(scoreOpts...)))
	}
	s.engine = engine.New(engineOpts...)

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.sampleQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)
	s.results = tracker.NewTreapStore(ctx,
		tracker.WithWindowSize(s.windowSize),
	)

	// Create and start the scoring worker pool
	s.workerPool = workerpool.NewPool(s.workerCount, s.sampleQueue, s.engine, s.results)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "fatigue scoring service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("windowSize", s.windowSize),
		logger.String("model", string(s.adapter.Mode())),
	)

	return nil
}

// Stop gracefully shuts down the service, draining queued samples first.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping fatigue scoring service...")

	// Close the queue and wait for workers to drain it
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
		}
	}

	// Close the result window
	if s.results != nil {
		s.results.Close()
	}

	s.started = false
	s.logger.Info(ctx, "fatigue scoring service stopped")
}

// SeenAndRecord atomically checks if a sample id was seen and records it if
// not. Returns true if the sample was already seen, false if it was newly
// recorded. This is the ONLY method for deduplication - thread-safe and atomic.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSampleDuplicate()
	}
	return seen
}

// Unrecord removes a sample ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Analyze scores one record synchronously. Results from this path are not
// tracked; callers hold the full result and can place it against the window
// through the insights query.
func (s *Service) Analyze(ctx context.Context, rec model.FeatureRecord) (model.FatigueResult, error) {
	return s.engine.Analyze(ctx, rec)
}

// Enqueue submits a sample for asynchronous scoring.
func (s *Service) Enqueue(ctx context.Context, sample model.Sample) error {
	if s.sampleQueue.Enqueue(ctx, sample) {
		return nil
	}
	if s.sampleQueue.IsClosed() {
		return queue.ErrQueueClosed
	}
	return queue.ErrQueueFull
}

// Lookup returns the tracked result for a scored sample.
func (s *Service) Lookup(ctx context.Context, id string) (tracker.Entry, error) {
	return s.results.Get(ctx, id)
}

// Percentile reports the percentage of tracked scores strictly below the
// given score; false when nothing is tracked yet.
func (s *Service) Percentile(ctx context.Context, score float64) (float64, bool) {
	return s.results.Percentile(ctx, score)
}

// WindowSummary describes the tracked score distribution.
func (s *Service) WindowSummary(ctx context.Context) tracker.Summary {
	return s.results.Summary(ctx)
}

// ModelInfo reports which predictor is active and where it came from.
func (s *Service) ModelInfo(ctx context.Context) model.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := model.ModelInfo{
		Mode:     model.ModeHeuristic,
		Features: model.FeatureCount,
		Path:     s.modelDir,
	}
	if s.adapter != nil {
		info.Loaded = s.adapter.Loaded()
		info.Mode = s.adapter.Mode()
	}
	if info.Loaded {
		info.LoadedAt = s.modelLoadedAt
	}
	return info
}

// ReloadModel drops the cached model and loads the artifacts again. On
// failure the service scores on the heuristic until artifacts are restored
// and another reload succeeds.
func (s *Service) ReloadModel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.adapter == nil {
		return predict.ErrNoSource
	}

	s.adapter.Invalidate()
	err := s.adapter.Warm(ctx)
	metrics.RecordModelReload()
	metrics.UpdateModelLoaded(s.adapter.Loaded())
	if err != nil {
		s.logger.Warn(ctx, "model reload failed, scoring on heuristic", logger.Error(err))
		return err
	}

	s.modelLoadedAt = time.Now()
	s.logger.Info(ctx, "model reloaded", logger.String("dir", s.modelDir))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"windowSize":  s.windowSize,
	}

	if s.started {
		queueLen := s.sampleQueue.Len(ctx)
		tracked := s.results.Count(ctx)

		stats["workerCount"] = s.workerPool.Size()
		stats["queueLength"] = queueLen
		stats["trackedResults"] = tracked
		stats["dedupeEntries"] = s.deduper.Size()
		stats["model"] = string(s.adapter.Mode())

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerPool.Size())
		metrics.UpdateDedupeSize(s.deduper.Size())
	}

	return stats
}
