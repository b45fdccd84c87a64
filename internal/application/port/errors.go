package port

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a compare-and-swap write loses a race
	// against a concurrent transition
	ErrConflict = errors.New("concurrent modification detected")
)
