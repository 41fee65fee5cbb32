package repository

import "errors"

// Sentinel kinds for detector store errors.
var (
	ErrNotFound      = errors.New("detector not found")
	ErrInvalidID     = errors.New("invalid detector id")
	ErrNoEnvironment = errors.New("environment is required")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrStoreClosed   = errors.New("store closed")
)
