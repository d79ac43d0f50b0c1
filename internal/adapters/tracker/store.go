// Package tracker defines the scored-result window interface and errors.
package tracker

import (
	"context"
	"time"

	"github.com/okian/lucid/internal/domain/model"
)

// Entry is one scored sample held in the window.
type Entry struct {
	ID       string
	Result   model.FatigueResult
	ScoredAt time.Time
}

// Summary describes the score distribution of the current window.
type Summary struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
}

// Store provides read/write access to the recent-result window.
type Store interface {
	// Record adds a scored result under the given sample ID. Recording an
	// ID already in the window replaces its result in place.
	Record(ctx context.Context, id string, res model.FatigueResult) error

	// Get returns the stored entry for a sample.
	// Returns ErrNotFound if the sample is unknown.
	Get(ctx context.Context, id string) (Entry, error)

	// Percentile reports the percentage of windowed scores strictly below
	// the given score. The second return is false when the window is empty.
	Percentile(ctx context.Context, score float64) (float64, bool)

	// Summary returns count, mean, min and max over the current window.
	Summary(ctx context.Context) Summary

	// Count returns the number of samples in the window.
	Count(ctx context.Context) int

	// Close stops background bookkeeping.
	Close() error
}
