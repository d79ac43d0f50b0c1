package model

import "errors"

// Sentinel kinds for input validation errors.
var (
	ErrMalformedMetric   = errors.New("malformed metric value")
	ErrUnknownExpression = errors.New("unknown expression label")
)
