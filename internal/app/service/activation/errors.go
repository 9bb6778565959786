package activation

import "errors"

var (
	ErrListingNotFound = errors.New("listing not found")
	// ErrConcurrentActivationConflict surfaces only after the single retry of
	// a storage conflict; overlapping activations normally resolve by
	// supersession, not by error.
	ErrConcurrentActivationConflict = errors.New("concurrent activation conflict")
	ErrCheckoutNotFound             = errors.New("checkout intent not found")
	ErrActivationNotFound           = errors.New("activation not found")
	ErrNotOwner                     = errors.New("activation not owned by caller")
)
