// Package fuse combines per-modality sub-scores and a model prediction into
// the final fatigue result: overall score, confidence, fatigue level and the
// dominant modality.
package fuse

import (
	"math"

	"github.com/okian/lucid/internal/domain/model"
)

const (
	// DefaultTieTolerance is the widest spread between quality-weighted
	// modality products still reported as a tie.
	DefaultTieTolerance = 5.0
	// DefaultConfidencePenalty scales confidence down when fewer than two
	// modalities carry data.
	DefaultConfidencePenalty = 0.8
	// DefaultBlendWeight is the trained share of the overall score. At 1.0
	// a trained prediction is used as-is and no hybrid blending happens.
	DefaultBlendWeight = 1.0

	// minConfidentModalities is the present-modality count below which the
	// confidence penalty applies.
	minConfidentModalities = 2
)

// QualityWeightedScore folds present sub-scores into one overall score,
// weighting each by its data quality so sparse modalities pull less. This is
// the deterministic fallback formula and the heuristic half of a blend.
func QualityWeightedScore(scores []model.ModalityScore) (float64, error) {
	var weighted, qualitySum float64
	for _, ms := range scores {
		if !ms.Present {
			continue
		}
		weighted += ms.Score * ms.Quality
		qualitySum += ms.Quality
	}
	if qualitySum == 0 {
		return 0, ErrInsufficientData
	}
	return weighted / qualitySum, nil
}

// Option applies a configuration option to the Fuser.
type Option func(*Fuser)

// WithTieTolerance overrides the dominance tie tolerance. Negative values
// are ignored.
func WithTieTolerance(t float64) Option {
	return func(f *Fuser) {
		if t >= 0 {
			f.tieTolerance = t
		}
	}
}

// WithConfidencePenalty overrides the sparse-data confidence penalty. Values
// outside (0,1] are ignored.
func WithConfidencePenalty(p float64) Option {
	return func(f *Fuser) {
		if p > 0 && p <= 1 {
			f.penalty = p
		}
	}
}

// WithBlendWeight overrides the trained share of a hybrid score. Values
// outside [0,1] are ignored.
func WithBlendWeight(w float64) Option {
	return func(f *Fuser) {
		if w >= 0 && w <= 1 {
			f.blendWeight = w
		}
	}
}

// Fuser assembles fatigue results from sub-scores and predictions.
type Fuser struct {
	tieTolerance float64
	penalty      float64
	blendWeight  float64
}

// New creates a Fuser with default tuning and options applied.
func New(opts ...Option) *Fuser {
	f := &Fuser{
		tieTolerance: DefaultTieTolerance,
		penalty:      DefaultConfidencePenalty,
		blendWeight:  DefaultBlendWeight,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fuse builds the final result from the modality sub-scores and the
// predicted overall score. Confidence is the mean quality of present
// modalities, penalized when fewer than two are present. A trained
// prediction is blended with the heuristic score when the blend weight is
// below 1, and the reported mode becomes hybrid. Recommendations are left
// for the caller to attach.
func (f *Fuser) Fuse(scores []model.ModalityScore, predicted float64, used model.ModelMode) (model.FatigueResult, error) {
	present := 0
	var qualitySum float64
	for _, ms := range scores {
		if !ms.Present {
			continue
		}
		present++
		qualitySum += ms.Quality
	}
	if present == 0 {
		return model.FatigueResult{}, ErrInsufficientData
	}

	confidence := qualitySum / float64(present)
	if present < minConfidentModalities {
		confidence *= f.penalty
	}

	overall := predicted
	mode := used
	if used == model.ModeTrained && f.blendWeight < 1 {
		heuristic, err := QualityWeightedScore(scores)
		if err != nil {
			return model.FatigueResult{}, err
		}
		overall = f.blendWeight*predicted + (1-f.blendWeight)*heuristic
		mode = model.ModeHybrid
	}
	overall = math.Max(0, math.Min(100, overall))

	return model.FatigueResult{
		OverallScore:     overall,
		Confidence:       confidence,
		Level:            model.LevelForScore(overall),
		ModalityScores:   scores,
		DominantModality: f.dominant(scores, present),
		ModelUsed:        mode,
	}, nil
}

// dominant picks the modality whose quality-weighted product leads the
// others by more than the tie tolerance. A single present modality has
// nothing to dominate, so it reports none.
func (f *Fuser) dominant(scores []model.ModalityScore, present int) model.Modality {
	if present < 2 {
		return model.ModalityNone
	}

	lead := model.ModalityNone
	low := math.Inf(1)
	high := math.Inf(-1)
	for _, ms := range scores {
		if !ms.Present {
			continue
		}
		product := ms.Score * ms.Quality
		if product > high {
			high = product
			lead = ms.Modality
		}
		if product < low {
			low = product
		}
	}

	if high-low <= f.tieTolerance {
		return model.ModalityNone
	}
	return lead
}
