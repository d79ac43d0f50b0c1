// Package artifact loads trained model artifacts from disk.
//
// A trained model ships as two gob files in one directory: the regression
// model (intercept, coefficients, feature names) and the feature scaler
// (means, standard deviations). The store decodes the pair, validates it
// against the canonical feature order, and hands back a ready predictor.
package artifact

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/lucid/internal/domain/model"
	"github.com/okian/lucid/internal/domain/predict"
	"github.com/okian/lucid/pkg/metrics"
)

// Default file names inside the artifact directory.
const (
	defaultModelFile  = "model.gob"
	defaultScalerFile = "scaler.gob"
)

// Model is the on-disk form of a trained regression model.
type Model struct {
	Intercept    float64
	Coefficients []float64
	Features     []string
}

// Scaler is the on-disk form of the feature scaler fitted alongside the
// model. Means and Stds pair with Model.Features by index.
type Scaler struct {
	Means []float64
	Stds  []float64
}

// Store reads model artifacts from a directory.
type Store struct {
	dir        string
	modelFile  string
	scalerFile string
}

// New creates a store rooted at dir with the given options applied.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:        dir,
		modelFile:  defaultModelFile,
		scalerFile: defaultScalerFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads and validates the model and scaler pair, returning a trained
// predictor built from them. The artifact's feature list must match the
// canonical feature order exactly; a model trained against different
// features cannot be applied to records produced by this build.
func (s *Store) Load(ctx context.Context) (*predict.Trained, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m Model
	if err := readGob(filepath.Join(s.dir, s.modelFile), &m); err != nil {
		metrics.RecordModelLoadError()
		return nil, err
	}

	var sc Scaler
	if err := readGob(filepath.Join(s.dir, s.scalerFile), &sc); err != nil {
		metrics.RecordModelLoadError()
		return nil, err
	}

	if err := checkFeatures(m.Features); err != nil {
		metrics.RecordModelLoadError()
		return nil, err
	}

	trained, err := predict.NewTrained(m.Intercept, m.Coefficients, sc.Means, sc.Stds)
	if err != nil {
		metrics.RecordModelLoadError()
		return nil, fmt.Errorf("build model: %w", err)
	}

	metrics.RecordModelLoad()
	return trained, nil
}

// Save writes the model and scaler pair into dir, creating it if needed.
// It is the counterpart to Load and is used by training and test tooling.
func Save(dir string, m Model, sc Scaler) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := writeGob(filepath.Join(dir, defaultModelFile), m); err != nil {
		return err
	}
	return writeGob(filepath.Join(dir, defaultScalerFile), sc)
}

// checkFeatures verifies the artifact was trained on exactly the canonical
// feature set, in canonical order.
func checkFeatures(features []string) error {
	want := model.FeatureOrder()
	if len(features) != len(want) {
		return fmt.Errorf("%w: got %d features, want %d", ErrFeatureMismatch, len(features), len(want))
	}
	for i, name := range features {
		if name != want[i] {
			return fmt.Errorf("%w: feature %d is %q, want %q", ErrFeatureMismatch, i, name, want[i])
		}
	}
	return nil
}

func readGob(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}
	return nil
}

func writeGob(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	return f.Close()
}
