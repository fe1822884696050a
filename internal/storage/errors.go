package storage

import "errors"

// Sentinel storage errors shared by every backend.
var (
	// ErrNotFound is returned when a requested record does not exist,
	// or when a mutation targets a record in a terminal state.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
