package rca

import "errors"

var (
	// ErrNoJSON is returned when a completion holds no JSON object.
	ErrNoJSON = errors.New("rca: completion contains no JSON object")
	// ErrIncomplete is returned when the extracted analysis lacks a root cause.
	ErrIncomplete = errors.New("rca: analysis has no root cause")
)
