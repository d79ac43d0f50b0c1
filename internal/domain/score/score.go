// Package score converts normalized metrics into per-modality fatigue
// sub-scores with a data-quality fraction.
package score

import (
	"math"

	"github.com/okian/lucid/internal/domain/model"
)

// maxSubScore caps every modality sub-score.
const maxSubScore = 100

// DefaultWeights returns the sub-metric weight vector for a modality. Each
// vector sums to 1 over the modality's primary metrics.
func DefaultWeights(m model.Modality) map[string]float64 {
	switch m {
	case model.ModalityTyping:
		return map[string]float64{
			model.MetricTypingSpeed:          0.40,
			model.MetricTypingErrorRate:      0.40,
			model.MetricTypingPauseFrequency: 0.20,
		}
	case model.ModalityMouse:
		return map[string]float64{
			model.MetricMouseReactionTime:  0.40,
			model.MetricMouseAccuracy:      0.40,
			model.MetricMouseMovementSpeed: 0.20,
		}
	case model.ModalityFacial:
		return map[string]float64{
			model.MetricFacialEyeClosureDuration: 0.50,
			model.MetricFacialBlinkRate:          0.25,
			model.MetricFacialExpression:         0.25,
		}
	default:
		return nil
	}
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithWeights overrides the weight vector for one modality. Only positive
// weights on the modality's primary metrics are kept; an override that
// leaves no usable weight is ignored.
func WithWeights(m model.Modality, weights map[string]float64) Option {
	return func(s *Scorer) {
		primary := model.PrimaryMetrics(m)
		if len(primary) == 0 {
			return
		}
		cleaned := make(map[string]float64, len(primary))
		for _, key := range primary {
			if w, ok := weights[key]; ok && w > 0 {
				cleaned[key] = w
			}
		}
		if len(cleaned) == 0 {
			return
		}
		s.weights[m] = cleaned
	}
}

// Scorer computes modality sub-scores from normalized records.
type Scorer struct {
	weights map[model.Modality]map[string]float64
}

// New creates a Scorer with default weight vectors and options applied.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		weights: make(map[model.Modality]map[string]float64, len(model.Modalities())),
	}
	for _, m := range model.Modalities() {
		s.weights[m] = DefaultWeights(m)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score combines a modality's present primary metrics into one sub-score in
// [0,100]. When only a subset is present the weight vector is renormalized
// over that subset, and quality drops to present/expected. With no primary
// metric present the modality is marked absent and fusion skips it. Pure.
func (s *Scorer) Score(normalized model.NormalizedRecord, m model.Modality) model.ModalityScore {
	weights := s.weights[m]
	out := model.ModalityScore{Modality: m}

	var weighted, weightSum float64
	present := 0
	for _, key := range model.PrimaryMetrics(m) {
		v, ok := normalized[key]
		if !ok {
			continue
		}
		w := weights[key]
		weighted += v * w
		weightSum += w
		present++
	}

	if present == 0 || weightSum == 0 {
		return out
	}

	out.Present = true
	out.Quality = float64(present) / model.ExpectedPrimaryCount
	out.Score = math.Max(0, math.Min(maxSubScore, weighted/weightSum*maxSubScore))
	return out
}

// ScoreAll evaluates every modality in result order.
func (s *Scorer) ScoreAll(normalized model.NormalizedRecord) []model.ModalityScore {
	modalities := model.Modalities()
	out := make([]model.ModalityScore, 0, len(modalities))
	for _, m := range modalities {
		out = append(out, s.Score(normalized, m))
	}
	return out
}
