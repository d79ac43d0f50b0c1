package predict

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/lucid/internal/domain/model"
)

// ArtifactSource loads a trained model from wherever artifacts live.
type ArtifactSource interface {
	Load(ctx context.Context) (*Trained, error)
}

// Adapter serves predictions from a lazily loaded trained model and falls
// back to the heuristic while none is available. The model is published
// through an atomic pointer so the hot path never takes a lock; loads
// serialize behind a mutex and run at most once per invalidation, with the
// outcome remembered either way.
type Adapter struct {
	source    ArtifactSource
	heuristic *Heuristic

	current   atomic.Pointer[Trained]
	attempted atomic.Bool

	mu      sync.Mutex
	lastErr error
}

// NewAdapter creates an Adapter over the given artifact source.
func NewAdapter(source ArtifactSource) *Adapter {
	return &Adapter{
		source:    source,
		heuristic: NewHeuristic(),
	}
}

// Predict serves from the published model when one is loaded. The first
// call after startup or invalidation attempts a load; after a failed
// attempt the heuristic answers until Invalidate rearms loading.
func (a *Adapter) Predict(ctx context.Context, rec model.FeatureRecord, scores []model.ModalityScore) (Prediction, error) {
	if t := a.current.Load(); t != nil {
		return t.Predict(ctx, rec, scores)
	}
	if !a.attempted.Load() {
		if t, err := a.load(ctx); err == nil {
			return t.Predict(ctx, rec, scores)
		}
	}
	return a.heuristic.Predict(ctx, rec, scores)
}

// Warm forces a load attempt so startup can surface artifact problems
// before traffic arrives. After a failed attempt it returns the remembered
// error without retrying; Invalidate rearms loading.
func (a *Adapter) Warm(ctx context.Context) error {
	if _, err := a.load(ctx); err != nil {
		return fmt.Errorf("warm model: %w", err)
	}
	return nil
}

// Invalidate drops the published model and rearms loading, so the next
// prediction or Warm picks up a replaced artifact.
func (a *Adapter) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current.Store(nil)
	a.lastErr = nil
	a.attempted.Store(false)
}

// Loaded reports whether a trained model is currently published.
func (a *Adapter) Loaded() bool {
	return a.current.Load() != nil
}

// Mode reports the path the next prediction will take.
func (a *Adapter) Mode() model.ModelMode {
	if a.Loaded() {
		return model.ModeTrained
	}
	return model.ModeHeuristic
}

func (a *Adapter) load(ctx context.Context) (*Trained, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t := a.current.Load(); t != nil {
		return t, nil
	}
	if a.attempted.Load() {
		return nil, a.lastErr
	}
	if a.source == nil {
		a.attempted.Store(true)
		a.lastErr = ErrNoSource
		return nil, ErrNoSource
	}

	t, err := a.source.Load(ctx)
	a.attempted.Store(true)
	if err != nil {
		a.lastErr = err
		return nil, err
	}
	a.current.Store(t)
	return t, nil
}
