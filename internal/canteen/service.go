package canteen

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/canteenclub/canteen/pkg/event"
)

// transitionRetries bounds how often a lost conditional write is retried
// before the conflict is surfaced to the caller as retryable.
const transitionRetries = 3

// Service is the order state machine. Every status change runs through one
// of its operations; no code path writes a status directly, because each
// transition carries side effects (strike accrual, event emission) that
// must not be skipped.
type Service struct {
	orders      OrderRepo
	shifts      ShiftRepo
	people      PersonRepo
	ledger      *StrikeLedger
	policies    *PolicyStore
	clock       Clock
	eligibility EligibilityChecker
	emitter     *Emitter
	logger      apt.Logger
}

type ServiceDeps struct {
	Orders      OrderRepo
	Shifts      ShiftRepo
	People      PersonRepo
	Ledger      *StrikeLedger
	Policies    *PolicyStore
	Clock       Clock
	Eligibility EligibilityChecker
	Emitter     *Emitter
}

func NewService(deps ServiceDeps, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		orders:      deps.Orders,
		shifts:      deps.Shifts,
		people:      deps.People,
		ledger:      deps.Ledger,
		policies:    deps.Policies,
		clock:       clock,
		eligibility: deps.Eligibility,
		emitter:     deps.Emitter,
		logger:      logger,
	}
}

// PlaceOrder validates a booking request against one consistent policy
// snapshot and inserts the order in state placed. Rejections carry a typed
// reason so the caller can render a specific message.
func (s *Service) PlaceOrder(ctx context.Context, personID, shiftID uuid.UUID, date, placedBy string) (*Order, error) {
	policy := s.policies.Current()
	now := s.clock.Now()

	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	today := now.Truncate(24 * time.Hour)
	if day.Before(today) {
		return nil, ErrHorizonExceeded
	}
	if day.Sub(today) > time.Duration(policy.HorizonDays)*24*time.Hour {
		return nil, ErrHorizonExceeded
	}

	person, err := s.people.Get(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("cannot load person %s: %w", personID, err)
	}
	if person == nil {
		return nil, fmt.Errorf("person %s: %w", personID, ErrNotFound)
	}
	if !person.Active {
		return nil, ErrRestricted
	}

	shift, err := s.shifts.Get(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("cannot load shift %s: %w", shiftID, err)
	}
	if shift == nil || !shift.Active {
		return nil, ErrShiftUnavailable
	}

	if s.eligibility != nil {
		allowed, err := s.eligibility.Eligible(ctx, personID, shiftID)
		if err != nil {
			return nil, fmt.Errorf("cannot check eligibility: %w", err)
		}
		if !allowed {
			return nil, ErrShiftUnavailable
		}
	}

	// The cutoff applies to same-day bookings: the request must land more
	// than the lead time before the shift starts.
	if day.Equal(today) {
		start, err := shift.StartOn(date)
		if err != nil {
			return nil, err
		}
		if start.Sub(now) <= policy.CutoffLead() {
			return nil, ErrCutoffPassed
		}
	}

	restricted, err := s.ledger.IsRestricted(ctx, personID, now)
	if err != nil {
		return nil, err
	}
	if restricted {
		return nil, ErrRestricted
	}

	existing, err := s.orders.FindLiveByPersonDate(ctx, personID, date)
	if err != nil {
		return nil, fmt.Errorf("cannot check existing orders: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateForDate
	}

	o := NewOrder()
	o.PersonID = personID
	o.ShiftID = shiftID
	o.Date = date
	o.CreatedBy = placedBy
	o.UpdatedBy = placedBy
	o.BeforeCreate(now)

	// The repo enforces the per-date invariant again at insert time, so a
	// concurrent create between the check above and here still loses.
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order placed", "order_id", o.ID.String(), "person_id", personID.String(), "date", date)
	if s.emitter != nil {
		s.emitter.OrderTransition(ctx, event.EventOrderCreated, o, "")
	}
	return o, nil
}

// CollectOrder confirms pickup. Valid only while the order is placed and
// the collection window has not closed; early pickup before shift start is
// accepted operationally. An order the sweep already finalized is rejected,
// never silently revived.
func (s *Service) CollectOrder(ctx context.Context, orderID uuid.UUID, collectedBy, collectionPoint string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("cannot load order %s: %w", orderID, err)
	}
	if o == nil {
		return nil, ErrNotFound
	}
	if o.Status != StatusPlaced {
		return nil, ErrAlreadyFinalized
	}

	shift, err := s.shifts.Get(ctx, o.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("cannot load shift %s: %w", o.ShiftID, err)
	}
	if shift == nil {
		return nil, ErrShiftUnavailable
	}

	now := s.clock.Now()
	deadline, err := shift.CollectionDeadline(o.Date)
	if err != nil {
		return nil, err
	}
	if now.After(deadline) {
		return nil, ErrWindowClosed
	}

	o.MarkCollected(now, collectedBy, collectionPoint)
	if err := s.transitionFromPlaced(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order collected", "order_id", o.ID.String(), "collected_by", collectedBy)
	if s.emitter != nil {
		s.emitter.OrderTransition(ctx, event.EventOrderCheckin, o, StatusPlaced)
	}
	return o, nil
}

// CancelOrder releases a placed order. Before the cutoff this is a clean
// cancellation; after the cutoff it is only performed when the caller
// explicitly allows the late path, and is then recorded as a late
// cancellation for audit. Late cancellation accrues no strike.
func (s *Service) CancelOrder(ctx context.Context, orderID uuid.UUID, reason, cancelledBy string, allowLate bool) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("cannot load order %s: %w", orderID, err)
	}
	if o == nil {
		return nil, ErrNotFound
	}
	if o.Status != StatusPlaced {
		return nil, ErrAlreadyFinalized
	}

	shift, err := s.shifts.Get(ctx, o.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("cannot load shift %s: %w", o.ShiftID, err)
	}
	if shift == nil {
		return nil, ErrShiftUnavailable
	}

	policy := s.policies.Current()
	now := s.clock.Now()

	start, err := shift.StartOn(o.Date)
	if err != nil {
		return nil, err
	}
	late := start.Sub(now) <= policy.CutoffLead()
	if late && !allowLate {
		return nil, ErrCutoffPassed
	}

	o.MarkCancelled(now, cancelledBy, reason, late)
	if err := s.transitionFromPlaced(ctx, o); err != nil {
		return nil, err
	}

	if late {
		s.logger.Info("late cancellation", "order_id", o.ID.String(), "cancelled_by", cancelledBy, "reason", reason)
	} else {
		s.logger.Info("order cancelled", "order_id", o.ID.String(), "cancelled_by", cancelledBy)
	}
	if s.emitter != nil {
		s.emitter.OrderTransition(ctx, event.EventOrderCancelled, o, StatusPlaced)
	}
	return o, nil
}

// transitionFromPlaced applies the conditional write, distinguishing a
// race lost to another finalizer from transient contention. Losing to a
// finalizer is terminal; anything else is retried a bounded number of
// times before surfacing as retryable.
func (s *Service) transitionFromPlaced(ctx context.Context, o *Order) error {
	for attempt := 0; attempt < transitionRetries; attempt++ {
		ok, err := s.orders.Transition(ctx, o, StatusPlaced)
		if err != nil {
			return fmt.Errorf("cannot transition order %s: %w", o.ID, err)
		}
		if ok {
			return nil
		}

		current, err := s.orders.Get(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("cannot reload order %s: %w", o.ID, err)
		}
		if current == nil {
			return ErrNotFound
		}
		if current.Status != StatusPlaced {
			return ErrAlreadyFinalized
		}
	}
	return ErrConflict
}

func parseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day, nil
}
