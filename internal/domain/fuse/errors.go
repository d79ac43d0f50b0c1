package fuse

import "errors"

// Error definitions for the fuse package.
var (
	// ErrInsufficientData indicates no modality carried any primary metric,
	// so no overall score can be produced.
	ErrInsufficientData = errors.New("insufficient data: no modality present")
)
