// Package store defines the failure kinds shared by all repositories.
package store

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when a unique-email constraint rejects a write.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrUnavailable is returned for timeouts and transactional failures,
	// distinct from not-found and duplicate outcomes.
	ErrUnavailable = errors.New("store unavailable")
)
