package catalog

import "errors"

var (
	// ErrNoLoader is returned when a cache is built without a loader.
	ErrNoLoader = errors.New("catalog: no loader configured")
	// ErrEmptyCatalog is returned when a loader produced no models.
	ErrEmptyCatalog = errors.New("catalog: no models")
)
