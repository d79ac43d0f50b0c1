package predict

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/lucid/internal/domain/model"
)

// Trained is an immutable linear model with z-score feature scaling. All
// vectors follow the canonical feature order. An absent feature enters at
// its training mean, so it pulls the prediction neither way.
type Trained struct {
	intercept float64
	coefs     []float64
	means     []float64
	stds      []float64
}

// NewTrained builds a trained model, validating every vector against the
// canonical feature arity. The slices are copied, so callers may reuse
// their buffers.
func NewTrained(intercept float64, coefs, means, stds []float64) (*Trained, error) {
	if len(coefs) != model.FeatureCount {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCoefficientCount, len(coefs), model.FeatureCount)
	}
	if len(means) != model.FeatureCount || len(stds) != model.FeatureCount {
		return nil, fmt.Errorf("%w: got %d means and %d stds, want %d", ErrScalerCount, len(means), len(stds), model.FeatureCount)
	}

	return &Trained{
		intercept: intercept,
		coefs:     append([]float64(nil), coefs...),
		means:     append([]float64(nil), means...),
		stds:      append([]float64(nil), stds...),
	}, nil
}

// Predict evaluates the regression on one record and clamps the result to
// the score range.
func (t *Trained) Predict(_ context.Context, rec model.FeatureRecord, _ []model.ModalityScore) (Prediction, error) {
	sum := t.intercept
	for i, key := range model.FeatureOrder() {
		v, ok := rec[key]
		if !ok {
			v = t.means[i]
		}
		if t.stds[i] == 0 {
			continue
		}
		sum += t.coefs[i] * (v - t.means[i]) / t.stds[i]
	}

	return Prediction{
		Score: math.Max(0, math.Min(100, sum)),
		Used:  model.ModeTrained,
	}, nil
}
