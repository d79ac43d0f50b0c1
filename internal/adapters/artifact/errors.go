package artifact

import "errors"

// Error definitions for the artifact package.
var (
	// ErrArtifactMissing indicates a model or scaler file that does not
	// exist at the configured location.
	ErrArtifactMissing = errors.New("artifact missing")
	// ErrArtifactCorrupt indicates a file that exists but cannot be decoded.
	ErrArtifactCorrupt = errors.New("artifact corrupt")
	// ErrFeatureMismatch indicates an artifact trained against a different
	// feature set than this build understands.
	ErrFeatureMismatch = errors.New("artifact feature mismatch")
)
