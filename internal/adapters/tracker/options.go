// Package tracker defines the scored-result window interface and errors.
package tracker

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithWindowSize bounds the number of samples kept; the oldest sample is
// evicted when a new one arrives at capacity. Non-positive sizes are ignored.
func WithWindowSize(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.windowSize = n
		}
	}
}

// WithMetricsInterval sets the interval for background metrics updates.
func WithMetricsInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.metricsInterval = interval
		}
	}
}
