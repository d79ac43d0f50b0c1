package predict

import "errors"

// Error definitions for the predict package.
var (
	// ErrCoefficientCount indicates a coefficient vector that does not
	// match the canonical feature arity.
	ErrCoefficientCount = errors.New("coefficient count mismatch")
	// ErrScalerCount indicates scaler vectors that do not match the
	// canonical feature arity.
	ErrScalerCount = errors.New("scaler length mismatch")
	// ErrNoSource indicates an adapter built without an artifact source.
	ErrNoSource = errors.New("no artifact source configured")
)
