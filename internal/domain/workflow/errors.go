package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a status transition is not allowed
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidStatus is returned when a status is not part of the enumeration
	ErrInvalidStatus = errors.New("invalid status")

	// ErrGuardFailed is returned when every guarded transition for a trigger is refused
	ErrGuardFailed = errors.New("guard condition failed")
)
