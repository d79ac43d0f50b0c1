// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and environment on top.
// - External errors must be wrapped via this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory sample queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// WindowSize bounds the rolling window of tracked results.
	WindowSize int `koanf:"window_size"`

	// ModelDir locates the trained model artifacts. The service runs on the
	// heuristic when the directory holds no artifacts.
	ModelDir string `koanf:"model_dir"`

	// BlinkBaseline anchors the U-shaped blink-rate mapping, in blinks/min.
	BlinkBaseline float64 `koanf:"blink_baseline"`

	// TieTolerance is the score spread under which no modality dominates.
	TieTolerance float64 `koanf:"tie_tolerance"`

	// BlendWeight mixes trained and heuristic predictions. 1 means the
	// trained score is used as-is; anything below blends the two.
	BlendWeight float64 `koanf:"blend_weight"`

	// ModalityWeights overrides per-metric weights inside each modality,
	// keyed modality -> metric -> weight.
	ModalityWeights map[string]map[string]float64 `koanf:"modality_weights"`
}

// New creates a Config with defaults. Load layers file and env on top.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		QueueSize:     10_000,
		WorkerCount:   runtime.NumCPU() * 4,
		DedupeSize:    50_000,
		WindowSize:    10_000,
		ModelDir:      "artifacts",
		BlinkBaseline: 16,
		TieTolerance:  5,
		BlendWeight:   1.0,
	}
}

// Validate checks cross-field constraints. Zero or negative sizes fall back
// to package defaults downstream, so only genuinely broken values fail here.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.BlinkBaseline <= 0 {
		return fmt.Errorf("%w: blink_baseline must be positive", ErrInvalidConfig)
	}
	if c.TieTolerance < 0 {
		return fmt.Errorf("%w: tie_tolerance must not be negative", ErrInvalidConfig)
	}
	if c.BlendWeight < 0 || c.BlendWeight > 1 {
		return fmt.Errorf("%w: blend_weight must be in [0,1]", ErrInvalidConfig)
	}
	for modality, weights := range c.ModalityWeights {
		for metric, w := range weights {
			if w < 0 {
				return fmt.Errorf("%w: negative weight for %s/%s", ErrInvalidConfig, modality, metric)
			}
		}
	}
	return nil
}
