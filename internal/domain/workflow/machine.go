package workflow

import "context"

// StatusMachine tracks a claim's current status and validates transitions
type StatusMachine interface {
	// Status returns the current status
	Status() Status

	// CanFire returns true if the trigger is permitted in the current status
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, moving to the new status if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can fire in the current status
	PermittedTriggers() []Trigger
}
