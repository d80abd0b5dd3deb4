package canteen

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/canteenclub/canteen/pkg/event"
)

// Sweeper is the recurring attendance scan: it converts placed orders whose
// collection window has elapsed into not-collected and triggers strike
// accrual. It is the only polling component in the engine.
//
// Runs are idempotent and safe to execute concurrently with themselves and
// with request handlers: the transition out of placed is a conditional
// write, so when two sweep instances race over the same order exactly one
// wins and exactly one strike accrues.
type Sweeper struct {
	orders   OrderRepo
	shifts   ShiftRepo
	ledger   *StrikeLedger
	restrict RestrictionRepo
	clock    Clock
	emitter  *Emitter
	interval time.Duration
	logger   apt.Logger
	cancel   context.CancelFunc
}

func NewSweeper(orders OrderRepo, shifts ShiftRepo, restrict RestrictionRepo, ledger *StrikeLedger, clock Clock, emitter *Emitter, interval time.Duration, logger apt.Logger) *Sweeper {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		orders:   orders,
		shifts:   shifts,
		restrict: restrict,
		ledger:   ledger,
		clock:    clock,
		emitter:  emitter,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the periodic scan until Stop or context cancellation.
func (s *Sweeper) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					s.logger.Error("attendance sweep failed", "error", err)
				}
			}
		}
	}()
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// RunOnce performs a single scan. A failure on one order is logged and the
// scan continues; one malformed row must not halt attendance enforcement.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	now := s.clock.Now()

	placed, err := s.orders.ListByStatus(ctx, StatusPlaced)
	if err != nil {
		return err
	}
	if len(placed) == 0 {
		return nil
	}

	// One shift lookup per run, not per order.
	shifts := make(map[string]*Shift)
	all, err := s.shifts.List(ctx)
	if err != nil {
		return err
	}
	for _, sh := range all {
		shifts[sh.ID.String()] = sh
	}

	var swept int
	for _, o := range placed {
		shift, ok := shifts[o.ShiftID.String()]
		if !ok {
			s.logger.Error("placed order references unknown shift", "order_id", o.ID.String(), "shift_id", o.ShiftID.String())
			continue
		}

		deadline, err := shift.CollectionDeadline(o.Date)
		if err != nil {
			s.logger.Error("cannot compute collection deadline", "order_id", o.ID.String(), "error", err)
			continue
		}
		if !now.After(deadline) {
			continue
		}

		o.MarkNotCollected(now)
		won, err := s.orders.Transition(ctx, o, StatusPlaced)
		if err != nil {
			s.logger.Error("cannot mark order not collected", "order_id", o.ID.String(), "error", err)
			continue
		}
		if !won {
			// Another sweep instance or a collection got there first.
			continue
		}
		swept++

		if s.emitter != nil {
			s.emitter.OrderTransition(ctx, event.EventOrderNoShow, o, StatusPlaced)
		}
		if err := s.ledger.AccrueFailure(ctx, o.PersonID); err != nil {
			s.logger.Error("cannot accrue strike", "order_id", o.ID.String(), "person_id", o.PersonID.String(), "error", err)
		}
	}

	// Housekeeping only: gating always recomputes expiry from timestamps.
	if s.restrict != nil {
		if n, err := s.restrict.DeactivateExpired(ctx, now); err != nil {
			s.logger.Error("cannot deactivate expired restrictions", "error", err)
		} else if n > 0 {
			s.logger.Info("expired restrictions deactivated", "count", n)
		}
	}

	if swept > 0 {
		s.logger.Info("attendance sweep completed", "no_shows", swept, "scanned", len(placed))
	}
	return nil
}
