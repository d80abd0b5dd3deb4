package canteen

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderRepo persists orders. Get returns (nil, nil) when the order does not
// exist. Create must enforce the one-live-order-per-person-per-date
// invariant and return ErrDuplicateForDate on violation.
type OrderRepo interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]*Order, error)
	ListByStatus(ctx context.Context, status Status) ([]*Order, error)
	ListByDateRange(ctx context.Context, from, to string) ([]*Order, error)
	FindLiveByPersonDate(ctx context.Context, personID uuid.UUID, date string) (*Order, error)

	// Transition persists o only if the stored status still equals expected.
	// It reports false, with no error, when a concurrent transition won the
	// race. Every status change goes through this conditional write; there
	// is no unconditional save.
	Transition(ctx context.Context, o *Order, expected Status) (bool, error)
}

// PersonRepo reads identities and mutates their strike counters. Get
// returns (nil, nil) when unknown.
type PersonRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*Person, error)
	List(ctx context.Context) ([]*Person, error)

	// AdjustStrikes atomically adds delta to the person's strike counter,
	// clamping at zero, and returns the resulting count.
	AdjustStrikes(ctx context.Context, id uuid.UUID, delta int) (int, error)

	// ResetStrikes atomically sets the counter to zero and returns the
	// previous count.
	ResetStrikes(ctx context.Context, id uuid.UUID) (int, error)
}

// ShiftRepo reads the shift catalog owned by the external collaborator.
type ShiftRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*Shift, error)
	List(ctx context.Context) ([]*Shift, error)
	ListActive(ctx context.Context) ([]*Shift, error)
	Save(ctx context.Context, s *Shift) error
}

// RestrictionRepo persists blacklist entries.
type RestrictionRepo interface {
	Create(ctx context.Context, r *Restriction) error
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]*Restriction, error)

	// ActiveForPerson returns the restriction whose window contains the
	// given instant, or (nil, nil). Expiry is part of the query: entries
	// whose end has passed never match, whatever their flag says.
	ActiveForPerson(ctx context.Context, personID uuid.UUID, at time.Time) (*Restriction, error)

	// Deactivate clears the active flag on every open restriction for the
	// person and reports how many were closed.
	Deactivate(ctx context.Context, personID uuid.UUID, by string, at time.Time) (int64, error)

	// DeactivateExpired clears flags on entries whose window has passed.
	// Display-only housekeeping; gating always recomputes from timestamps.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// PolicyRepo persists the singleton policy document. Load returns
// (nil, nil) when no policy has been stored yet.
type PolicyRepo interface {
	Load(ctx context.Context) (*Policy, error)
	Save(ctx context.Context, p *Policy) error
}
