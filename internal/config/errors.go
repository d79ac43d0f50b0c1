package config

import (
	"errors"
)

// Sentinel errors for configuration loading and validation. Callers match
// with errors.Is; loader failures wrap ErrLoadConfig with the cause.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
