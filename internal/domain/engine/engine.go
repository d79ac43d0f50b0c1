// Package engine composes the scoring pipeline. One Analyze call runs
// normalization, per-modality scoring, prediction, fusion and
// recommendation over a single feature record.
package engine

import (
	"context"
	"fmt"

	"github.com/okian/lucid/internal/domain/fuse"
	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/internal/domain/normalize"
	"github.com/okian/lucid/internal/domain/predict"
	"github.com/okian/lucid/internal/domain/recommend"
	"github.com/okian/lucid/internal/domain/score"
)

// Normalizer rescales raw metric values into fatigue contributions.
type Normalizer interface {
	Normalize(rec model.FeatureRecord) (model.NormalizedRecord, error)
}

// Scorer folds normalized contributions into per-modality sub-scores.
type Scorer interface {
	ScoreAll(n model.NormalizedRecord) []model.ModalityScore
}

// Fuser assembles the final result from sub-scores and a prediction.
type Fuser interface {
	Fuse(scores []model.ModalityScore, predicted float64, used model.ModelMode) (model.FatigueResult, error)
}

// Recommender derives suggestions from a fused result.
type Recommender interface {
	Recommend(res model.FatigueResult) []model.Recommendation
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n Normalizer) Option {
	return func(e *Engine) {
		if n != nil {
			e.normalizer = n
		}
	}
}

// WithScorer replaces the default scorer.
func WithScorer(s Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithPredictor replaces the default predictor. This is where the trained
// model adapter plugs in; without it the engine stays on the heuristic.
func WithPredictor(p predict.Predictor) Option {
	return func(e *Engine) {
		if p != nil {
			e.predictor = p
		}
	}
}

// WithFuser replaces the default fuser.
func WithFuser(f Fuser) Option {
	return func(e *Engine) {
		if f != nil {
			e.fuser = f
		}
	}
}

// WithRecommender replaces the default recommendation generator.
func WithRecommender(r Recommender) Option {
	return func(e *Engine) {
		if r != nil {
			e.recommender = r
		}
	}
}

// Engine scores one feature record at a time. Stateless per call; safe for
// concurrent use once built.
type Engine struct {
	normalizer  Normalizer
	scorer      Scorer
	predictor   predict.Predictor
	fuser       Fuser
	recommender Recommender
}

// New creates an Engine with default stages and options applied.
func New(opts ...Option) *Engine {
	e := &Engine{
		normalizer:  normalize.New(),
		scorer:      score.New(),
		predictor:   predict.NewHeuristic(),
		fuser:       fuse.New(),
		recommender: recommend.New(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Analyze scores one record end to end. Malformed values fail validation, a
// record with no primary metric in any modality yields an insufficient-data
// error, and everything else produces a full result.
func (e *Engine) Analyze(ctx context.Context, rec model.FeatureRecord) (model.FatigueResult, error) {
	normalized, err := e.normalizer.Normalize(rec)
	if err != nil {
		return model.FatigueResult{}, fmt.Errorf("analyze: %w", err)
	}

	scores := e.scorer.ScoreAll(normalized)
	present := 0
	for _, ms := range scores {
		if ms.Present {
			present++
		}
	}
	if present == 0 {
		return model.FatigueResult{}, fmt.Errorf("analyze: %w", fuse.ErrInsufficientData)
	}

	pred, err := e.predictor.Predict(ctx, rec, scores)
	if err != nil {
		return model.FatigueResult{}, fmt.Errorf("analyze: predict: %w", err)
	}

	res, err := e.fuser.Fuse(scores, pred.Score, pred.Used)
	if err != nil {
		return model.FatigueResult{}, fmt.Errorf("analyze: fuse: %w", err)
	}

	res.Recommendations = e.recommender.Recommend(res)
	return res, nil
}
