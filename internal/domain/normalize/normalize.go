// Package normalize rescales raw behavioral metrics to bounded,
// direction-consistent fatigue contributions.
//
// Every present recognized value maps into [0,1] where 1.0 always reads
// "more fatigue-indicative", regardless of the raw metric's direction.
// Values outside the anchor range are clamped, never rejected.
package normalize

import (
	"fmt"
	"math"

	"github.com/okian/lucid/internal/domain/model"
)

// DefaultBlinkBaseline is the healthy blink rate in blinks per minute.
// Blink rate is non-monotonic: both very low and very high rates indicate
// fatigue, so it maps through a U-shaped curve centered on the baseline.
const DefaultBlinkBaseline = 16.0

// ramp maps a raw value linearly between two anchors: the value expected
// from an alert subject (contribution 0) and the value expected from a
// fatigued one (contribution 1). Anchors may run in either direction.
type ramp struct {
	alert    float64
	fatigued float64
}

// defaultRamps returns the anchor table. Anchors are tunable defaults, not
// physiological ground truth.
func defaultRamps() map[string]ramp {
	return map[string]ramp{
		model.MetricTypingSpeed:            {alert: 70, fatigued: 20},
		model.MetricTypingErrorRate:        {alert: 0, fatigued: 20},
		model.MetricTypingPauseFrequency:   {alert: 0, fatigued: 10},
		model.MetricTypingKeyPressDuration: {alert: 80, fatigued: 220},

		model.MetricMouseReactionTime:   {alert: 250, fatigued: 850},
		model.MetricMouseAccuracy:       {alert: 95, fatigued: 35},
		model.MetricMouseMovementSpeed:  {alert: 160, fatigued: 40},
		model.MetricMouseClickFrequency: {alert: 12, fatigued: 0},
		model.MetricMouseTargetHits:     {alert: 16, fatigued: 0},

		model.MetricFacialEyeClosureDuration: {alert: 120, fatigued: 420},
		// Expression arrives pre-encoded as a contribution code.
		model.MetricFacialExpression:      {alert: 0, fatigued: 1},
		model.MetricFacialEyeAspectRatio:  {alert: 0.30, fatigued: 0.15},
		model.MetricFacialHeadMovementVar: {alert: 0, fatigued: 500},
	}
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithBlinkBaseline sets the center of the U-shaped blink-rate mapping.
func WithBlinkBaseline(baseline float64) Option {
	return func(n *Normalizer) {
		if baseline > 0 {
			n.blinkBaseline = baseline
		}
	}
}

// WithAnchors overrides the alert/fatigued anchors for one metric. The
// override is ignored for unrecognized keys, for the blink rate (use
// WithBlinkBaseline), and for degenerate anchor pairs.
func WithAnchors(key string, alert, fatigued float64) Option {
	return func(n *Normalizer) {
		if !model.IsRecognized(key) || key == model.MetricFacialBlinkRate {
			return
		}
		if alert == fatigued {
			return
		}
		n.ramps[key] = ramp{alert: alert, fatigued: fatigued}
	}
}

// Normalizer rescales feature records. The zero-value is not usable; use New.
type Normalizer struct {
	ramps         map[string]ramp
	blinkBaseline float64
}

// New creates a Normalizer with default anchors and options applied.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		ramps:         defaultRamps(),
		blinkBaseline: DefaultBlinkBaseline,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize maps every present recognized metric into [0,1]. It fails only
// on malformed values (NaN or infinity); finite out-of-range values clamp to
// the nearest bound. Unrecognized keys are dropped. Pure.
func (n *Normalizer) Normalize(rec model.FeatureRecord) (model.NormalizedRecord, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	out := make(model.NormalizedRecord, len(rec))
	for key, v := range rec {
		if !model.IsRecognized(key) {
			continue
		}
		if key == model.MetricFacialBlinkRate {
			out[key] = n.blinkContribution(v)
			continue
		}
		r := n.ramps[key]
		out[key] = clamp01((v - r.alert) / (r.fatigued - r.alert))
	}
	return out, nil
}

// blinkContribution applies the U-shaped mapping
// min(1, |rate - baseline| / baseline).
func (n *Normalizer) blinkContribution(rate float64) float64 {
	return math.Min(1, math.Abs(rate-n.blinkBaseline)/n.blinkBaseline)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
