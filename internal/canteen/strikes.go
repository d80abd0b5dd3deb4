package canteen

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/canteenclub/canteen/pkg/event"
)

// StrikeLedger accrues failure-to-collect strikes per person and opens a
// time-boxed restriction once the policy threshold is crossed. The counter
// is cumulative history: opening a restriction does not reset it, only an
// explicit administrative reduction does.
type StrikeLedger struct {
	people       PersonRepo
	restrictions RestrictionRepo
	policies     *PolicyStore
	clock        Clock
	emitter      *Emitter
	logger       apt.Logger
}

func NewStrikeLedger(people PersonRepo, restrictions RestrictionRepo, policies *PolicyStore, clock Clock, emitter *Emitter, logger apt.Logger) *StrikeLedger {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &StrikeLedger{
		people:       people,
		restrictions: restrictions,
		policies:     policies,
		clock:        clock,
		emitter:      emitter,
		logger:       logger,
	}
}

// AccrueFailure adds one strike. When the resulting count reaches the
// threshold and no restriction is currently open, a restriction covering
// the configured duration is created and announced.
func (l *StrikeLedger) AccrueFailure(ctx context.Context, personID uuid.UUID) error {
	count, err := l.people.AdjustStrikes(ctx, personID, 1)
	if err != nil {
		return fmt.Errorf("cannot accrue strike for %s: %w", personID, err)
	}

	policy := l.policies.Current()
	if policy.StrikeThreshold <= 0 || count < policy.StrikeThreshold {
		return nil
	}

	now := l.clock.Now()

	// A restriction already covering now means this accrual happened while
	// the person was blocked anyway; stacking windows would only confuse
	// the lift operation.
	existing, err := l.restrictions.ActiveForPerson(ctx, personID, now)
	if err != nil {
		return fmt.Errorf("cannot check restriction for %s: %w", personID, err)
	}
	if existing != nil {
		return nil
	}

	end := now.Add(policy.RestrictionDuration())
	r := NewRestriction(personID, fmt.Sprintf("%d missed collections", count), now, &end)
	if err := l.restrictions.Create(ctx, r); err != nil {
		return fmt.Errorf("cannot open restriction for %s: %w", personID, err)
	}

	l.logger.Info("restriction opened", "person_id", personID.String(), "strikes", count, "until", end)
	if l.emitter != nil {
		l.emitter.PersonChange(ctx, event.EventUserBlacklisted, personID, count, r, r.Reason)
	}
	return nil
}

// ReduceStrikes lowers the counter by amount, or to zero when toZero is
// set. Administrative correction path.
func (l *StrikeLedger) ReduceStrikes(ctx context.Context, personID uuid.UUID, amount int, toZero bool) (int, error) {
	var count int
	var err error
	if toZero {
		_, err = l.people.ResetStrikes(ctx, personID)
		count = 0
	} else {
		if amount <= 0 {
			return 0, fmt.Errorf("reduction amount must be positive")
		}
		count, err = l.people.AdjustStrikes(ctx, personID, -amount)
	}
	if err != nil {
		return 0, fmt.Errorf("cannot reduce strikes for %s: %w", personID, err)
	}

	if l.emitter != nil {
		l.emitter.PersonChange(ctx, event.EventUserStrikesReset, personID, count, nil, "administrative reduction")
	}
	return count, nil
}

// LiftRestriction closes every open restriction for the person, whatever
// the counter says.
func (l *StrikeLedger) LiftRestriction(ctx context.Context, personID uuid.UUID, liftedBy string) error {
	now := l.clock.Now()
	closed, err := l.restrictions.Deactivate(ctx, personID, liftedBy, now)
	if err != nil {
		return fmt.Errorf("cannot lift restriction for %s: %w", personID, err)
	}
	if closed == 0 {
		return ErrNotFound
	}

	l.logger.Info("restriction lifted", "person_id", personID.String(), "lifted_by", liftedBy)
	if l.emitter != nil {
		person, _ := l.people.Get(ctx, personID)
		strikes := 0
		if person != nil {
			strikes = person.Strikes
		}
		l.emitter.PersonChange(ctx, event.EventUserUnblocked, personID, strikes, nil, "lifted by "+liftedBy)
	}
	return nil
}

// IsRestricted reports whether an active restriction covers the instant.
// Expiry is evaluated lazily and authoritatively here; a stale active flag
// on an expired entry is never trusted.
func (l *StrikeLedger) IsRestricted(ctx context.Context, personID uuid.UUID, at time.Time) (bool, error) {
	r, err := l.restrictions.ActiveForPerson(ctx, personID, at)
	if err != nil {
		return false, fmt.Errorf("cannot check restriction for %s: %w", personID, err)
	}
	return r != nil && r.Covers(at), nil
}
