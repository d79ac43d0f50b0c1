package tracker

import "errors"

// Sentinel kinds for window lookups.
var (
	ErrNotFound = errors.New("sample not found")
)
