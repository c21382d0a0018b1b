package app

import "errors"

// ErrNotInitialized and related errors describe precondition, persistence,
// and lookup failures.
var (
	ErrNotInitialized  = errors.New("velocity aggregator not initialized")
	ErrPersistence     = errors.New("velocity state persistence failed")
	ErrNotFound        = errors.New("not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)
