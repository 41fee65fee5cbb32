package config

import (
	"errors"
)

// Sentinel error kinds for this package. Validation failures wrap
// ErrInvalidConfig and, where one applies, a narrower kind.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrLoadConfig         = errors.New("load config failed")
	ErrUnknownStoreDriver = errors.New("unknown store driver")
	ErrDefaultEnvironment = errors.New("default environment not configured")
)
