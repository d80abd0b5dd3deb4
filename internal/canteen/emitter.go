package canteen

import (
	"context"
	"encoding/json"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/canteenclub/canteen/pkg/event"
)

// Emitter fans every state transition out to the NATS bus, the SSE stream
// and the audit sink. All three are fire-and-forget relative to the
// operation that triggered them: the state change has already committed and
// publish failures are swallowed and logged, never surfaced to the caller.
type Emitter struct {
	publisher events.Publisher
	stream    *StreamServer
	clock     Clock
	logger    apt.Logger
}

func NewEmitter(publisher events.Publisher, stream *StreamServer, clock Clock, logger apt.Logger) *Emitter {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Emitter{
		publisher: publisher,
		stream:    stream,
		clock:     clock,
		logger:    logger,
	}
}

// OrderTransition announces an order state change.
func (e *Emitter) OrderTransition(ctx context.Context, eventType string, o *Order, previous Status) {
	evt := event.OrderEvent{
		EventType:      eventType,
		OccurredAt:     e.clock.Now(),
		OrderID:        o.ID.String(),
		PersonID:       o.PersonID.String(),
		ShiftID:        o.ShiftID.String(),
		Date:           o.Date,
		Status:         string(o.Status),
		PreviousStatus: string(previous),
		LateCancel:     o.LateCancel,
	}
	e.publish(ctx, event.OrdersTopic, eventType, evt)
	e.audit(ctx, eventType, o.UpdatedBy, "order", o.ID.String(), string(previous), string(o.Status), o.CancelReason)
}

// PersonChange announces a change to a person's strike count or
// restriction state.
func (e *Emitter) PersonChange(ctx context.Context, eventType string, personID uuid.UUID, strikes int, r *Restriction, reason string) {
	evt := event.PersonEvent{
		EventType:  eventType,
		OccurredAt: e.clock.Now(),
		PersonID:   personID.String(),
		Strikes:    strikes,
		Reason:     reason,
	}
	if r != nil && r.Covers(evt.OccurredAt) {
		evt.Restricted = true
		evt.Until = r.EndsAt
	}
	e.publish(ctx, event.PeopleTopic, eventType, evt)
	e.audit(ctx, eventType, "", "person", personID.String(), "", "", reason)
}

// ConfigChange announces policy or shift updates to connected observers.
func (e *Emitter) ConfigChange(ctx context.Context, eventType string, payload interface{}) {
	e.publish(ctx, event.ConfigTopic, eventType, payload)
}

func (e *Emitter) publish(ctx context.Context, topic, eventType string, payload interface{}) {
	if e.stream != nil {
		e.stream.Broadcast(eventType, payload)
	}
	if e.publisher == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Error("cannot marshal event", "event", eventType, "error", err)
		return
	}
	if err := e.publisher.Publish(ctx, topic, data); err != nil {
		e.logger.Error("cannot publish event", "event", eventType, "topic", topic, "error", err)
	}
}

func (e *Emitter) audit(ctx context.Context, action, actor, entityType, entityID, before, after, detail string) {
	if e.publisher == nil {
		return
	}
	rec := event.AuditRecord{
		Action:     action,
		OccurredAt: e.clock.Now(),
		Actor:      actor,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		Detail:     detail,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		e.logger.Error("cannot marshal audit record", "action", action, "error", err)
		return
	}
	if err := e.publisher.Publish(ctx, event.AuditTopic, data); err != nil {
		e.logger.Error("cannot publish audit record", "action", action, "error", err)
	}
}
