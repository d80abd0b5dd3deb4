package canteen

import "errors"

// PolicyViolation is an expected, user-facing rejection of an operation.
// The Code is machine-readable so the API layer can surface a specific
// message per reason; these are never coalesced into a generic failure.
type PolicyViolation struct {
	Code    string
	Message string
}

func (v *PolicyViolation) Error() string {
	return v.Message
}

var (
	ErrCutoffPassed = &PolicyViolation{
		Code:    "cutoff_passed",
		Message: "the ordering cutoff for this shift has passed",
	}
	ErrHorizonExceeded = &PolicyViolation{
		Code:    "horizon_exceeded",
		Message: "the requested date is outside the bookable window",
	}
	ErrRestricted = &PolicyViolation{
		Code:    "restricted",
		Message: "ordering is currently restricted for this person",
	}
	ErrDuplicateForDate = &PolicyViolation{
		Code:    "duplicate_for_date",
		Message: "an order already exists for this person on this date",
	}
	ErrShiftUnavailable = &PolicyViolation{
		Code:    "shift_unavailable",
		Message: "the requested shift is not available to this person",
	}
	ErrWindowClosed = &PolicyViolation{
		Code:    "collection_window_closed",
		Message: "the collection window for this shift has closed",
	}
)

var (
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyFinalized is returned when a transition is attempted out of
	// a terminal status. Callers can distinguish "already handled" from
	// success.
	ErrAlreadyFinalized = errors.New("order already finalized")

	// ErrConflict is returned after a conditional update kept losing the
	// race against a concurrent transition. It is retryable.
	ErrConflict = errors.New("conflicting concurrent update")
)
