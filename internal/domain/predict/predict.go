// Package predict estimates the overall fatigue score for one sample. A
// trained regression artifact is the primary path; a deterministic
// quality-weighted heuristic answers whenever no artifact is available, so
// scoring never depends on one being present.
package predict

import (
	"context"

	"github.com/okian/lucid/internal/domain/fuse"
	"github.com/okian/lucid/internal/domain/model"
)

// Prediction is one overall-score estimate and the path that produced it.
type Prediction struct {
	Score float64
	Used  model.ModelMode
}

// Predictor produces an overall fatigue estimate from a validated feature
// record and its per-modality sub-scores.
type Predictor interface {
	Predict(ctx context.Context, rec model.FeatureRecord, scores []model.ModalityScore) (Prediction, error)
}

// Heuristic is the deterministic fallback predictor. It folds the modality
// sub-scores with their data quality and needs no trained artifact.
type Heuristic struct{}

// NewHeuristic creates the fallback predictor.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Predict returns the quality-weighted fold of the present sub-scores.
func (h *Heuristic) Predict(_ context.Context, _ model.FeatureRecord, scores []model.ModalityScore) (Prediction, error) {
	score, err := fuse.QualityWeightedScore(scores)
	if err != nil {
		return Prediction{}, err
	}
	return Prediction{Score: score, Used: model.ModeHeuristic}, nil
}
