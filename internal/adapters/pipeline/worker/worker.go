// Package worker defines worker contracts for asynchronous sample scoring.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/pkg/logger"
	"github.com/okian/lucid/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Sample abstracts what workers read off the queue.
// Using the model.Sample type for consistency.
type Sample = model.Sample

// Analyzer scores the metrics of one sample.
type Analyzer interface {
	Analyze(ctx context.Context, rec model.FeatureRecord) (model.FatigueResult, error)
}

// Recorder stores a scored result for later retrieval.
type Recorder interface {
	Record(ctx context.Context, id string, res model.FatigueResult) error
}

// Queue defines how workers receive samples.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Sample
}

// Worker processes samples and records results using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the in-flight sample completes.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for scoring samples.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	recorder Recorder
	name     string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, analyzer Analyzer, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		analyzer: analyzer,
		recorder: recorder,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	sampleChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case sample, ok := <-sampleChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processSample(ctx, sample); err != nil {
				w.logger.Error(ctx, "error processing sample", logger.Error(err))
			}
		}
	}
}

// signalShutdown closes the shutdown channel exactly once.
func (w *InMemoryWorker) signalShutdown() {
	select {
	case <-w.shutdown:
		// Already signaled
	default:
		close(w.shutdown)
	}
}

// Shutdown stops the worker after the in-flight sample completes.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signalShutdown()

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processSample scores a single sample and records the result.
func (w *InMemoryWorker) processSample(ctx context.Context, s Sample) error {
	// Track overall processing latency
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordWorkerProcessingLatency(float64(latency))
	}()

	// Track scoring latency separately
	scoreStart := time.Now()
	res, err := w.analyzer.Analyze(ctx, s.Record)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))

	if err != nil {
		metrics.RecordScoringError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "scoring_error")
		metrics.RecordErrorByType("scoring_error", "high")
		w.logger.Error(ctx, "scoring failed for sample",
			logger.String("sampleID", s.ID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to score sample %s: %w", s.ID, err)
	}

	if err := w.recorder.Record(ctx, s.ID, res); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "tracker_error")
		metrics.RecordErrorByType("tracker_error", "high")
		w.logger.Error(ctx, "recording failed for sample",
			logger.String("sampleID", s.ID),
			logger.Error(err),
		)
		return fmt.Errorf("recording failed for sample %s: %w", s.ID, err)
	}

	metrics.RecordSampleScored(string(res.ModelUsed))
	metrics.RecordResultLevel(string(res.Level))
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, analyzer Analyzer, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			analyzer,
			recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop signals all workers and waits for each to finish.
func (p *Pool) Stop() {
	for _, worker := range p.workers {
		worker.signalShutdown()
	}
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool. The queue is closed
// first so workers drain nothing new, then each worker is stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		if err := worker.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerCount(0)

	return nil
}
