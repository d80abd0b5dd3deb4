package canteen

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/canteenclub/canteen/pkg/event"
)

// ConfigSubscriber consumes change notices from external collaborators: the
// shift owner pushes shift edits, and out-of-band policy changes trigger a
// reload. Malformed messages are logged and dropped so one bad producer
// cannot tear down the subscription.
type ConfigSubscriber struct {
	subscriber events.Subscriber
	shifts     ShiftRepo
	policies   *PolicyStore
	clock      Clock
	logger     apt.Logger
}

func NewConfigSubscriber(sub events.Subscriber, shifts ShiftRepo, policies *PolicyStore, clock Clock, logger apt.Logger) *ConfigSubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ConfigSubscriber{
		subscriber: sub,
		shifts:     shifts,
		policies:   policies,
		clock:      clock,
		logger:     logger,
	}
}

func (s *ConfigSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting config subscriber", "topic", event.ConfigTopic)
	if s.subscriber == nil {
		return fmt.Errorf("config subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, event.ConfigTopic, s.handleEvent)
}

func (s *ConfigSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		s.logger.Info("invalid config event", "error", err)
		return nil
	}

	switch envelope.EventType {
	case event.EventShiftUpdated:
		return s.handleShiftUpdated(ctx, msg)
	case event.EventPolicyUpdated:
		return s.handlePolicyUpdated(ctx)
	default:
		s.logger.Debug("ignoring config event", "event_type", envelope.EventType)
		return nil
	}
}

// handleShiftUpdated upserts the edited shift. Past orders keep their shift
// reference; the edit only changes future bookability and deadlines for
// orders not yet swept.
func (s *ConfigSubscriber) handleShiftUpdated(ctx context.Context, msg []byte) error {
	var evt event.ShiftEvent
	if err := json.Unmarshal(msg, &evt); err != nil {
		s.logger.Info("invalid shift event", "error", err)
		return nil
	}

	id, err := uuid.Parse(evt.ShiftID)
	if err != nil {
		s.logger.Info("invalid shift id in event", "shift_id", evt.ShiftID)
		return nil
	}

	now := s.clock.Now()
	shift, err := s.shifts.Get(ctx, id)
	if err != nil {
		s.logger.Error("cannot load shift for update", "shift_id", evt.ShiftID, "error", err)
		return nil
	}
	if shift == nil {
		shift = &Shift{ID: id, CreatedAt: now}
	}
	shift.Name = evt.Name
	shift.Start = evt.Start
	shift.End = evt.End
	shift.GraceMinutes = evt.GraceMinutes
	shift.Active = evt.Active
	shift.UpdatedAt = now

	if err := s.shifts.Save(ctx, shift); err != nil {
		s.logger.Error("cannot save shift update", "shift_id", evt.ShiftID, "error", err)
		return nil
	}

	s.logger.Info("shift updated", "shift_id", id.String(), "name", shift.Name, "active", shift.Active)
	return nil
}

// handlePolicyUpdated reloads the policy snapshot from storage, picking up
// changes made by another instance or an operator.
func (s *ConfigSubscriber) handlePolicyUpdated(ctx context.Context) error {
	if s.policies == nil {
		return nil
	}
	if err := s.policies.Warm(ctx); err != nil {
		s.logger.Error("cannot reload policy", "error", err)
		return nil
	}
	s.logger.Info("policy reloaded")
	return nil
}
