package canteen

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/canteenclub/canteen/pkg/event"
)

func TestEmitterOrderTransition(t *testing.T) {
	clock := NewFixedClock(time.Date(2025, 6, 10, 8, 15, 0, 0, time.UTC))
	publisher := NewMockPublisher()
	stream := NewStreamServer(nil)
	e := NewEmitter(publisher, stream, clock, nil)

	id, ch := stream.Subscribe("test")
	defer stream.Unsubscribe(id)

	o := NewOrder()
	o.PersonID = uuid.New()
	o.Date = "2025-06-10"
	o.MarkCollected(clock.Now(), "kiosk-1", "")

	e.OrderTransition(context.Background(), event.EventOrderCheckin, o, StatusPlaced)

	if got := publisher.EventsOn(event.OrdersTopic); len(got) != 1 || got[0] != event.EventOrderCheckin {
		t.Errorf("orders topic events = %v, want [order.checkin]", got)
	}

	// Each transition also lands as an audit record.
	audits := publisher.MessagesOn(event.AuditTopic)
	if len(audits) != 1 {
		t.Fatalf("audit records = %d, want 1", len(audits))
	}
	var rec event.AuditRecord
	if err := json.Unmarshal(audits[0], &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Action != event.EventOrderCheckin || rec.Before != string(StatusPlaced) || rec.After != string(StatusCollected) {
		t.Errorf("audit record = %+v", rec)
	}

	select {
	case evt := <-ch:
		if evt.Name != event.EventOrderCheckin {
			t.Errorf("stream event = %q, want order.checkin", evt.Name)
		}
	default:
		t.Error("stream subscriber did not receive the transition")
	}
}

func TestEmitterPersonChangeCarriesRestriction(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	clock := NewFixedClock(now)
	publisher := NewMockPublisher()
	e := NewEmitter(publisher, nil, clock, nil)

	personID := uuid.New()
	end := now.Add(7 * 24 * time.Hour)
	r := NewRestriction(personID, "3 missed collections", now, &end)

	e.PersonChange(context.Background(), event.EventUserBlacklisted, personID, 3, r, r.Reason)

	msgs := publisher.MessagesOn(event.PeopleTopic)
	if len(msgs) != 1 {
		t.Fatalf("people messages = %d, want 1", len(msgs))
	}
	var evt event.PersonEvent
	if err := json.Unmarshal(msgs[0], &evt); err != nil {
		t.Fatal(err)
	}
	if !evt.Restricted || evt.Until == nil || !evt.Until.Equal(end) {
		t.Errorf("person event = %+v, want restricted until %v", evt, end)
	}
	if evt.Strikes != 3 {
		t.Errorf("strikes = %d, want 3", evt.Strikes)
	}
}

func TestEmitterSwallowsPublishFailures(t *testing.T) {
	publisher := NewMockPublisher()
	publisher.PublishFunc = func(ctx context.Context, topic string, msg []byte) error {
		return errors.New("bus down")
	}
	e := NewEmitter(publisher, nil, NewFixedClock(time.Now()), nil)

	// Must not panic or propagate: the state change already committed.
	e.OrderTransition(context.Background(), event.EventOrderCreated, NewOrder(), "")
	e.ConfigChange(context.Background(), event.EventPolicyUpdated, DefaultPolicy())
}

func TestEmitterNilPublisher(t *testing.T) {
	e := NewEmitter(nil, nil, NewFixedClock(time.Now()), nil)
	e.OrderTransition(context.Background(), event.EventOrderCreated, NewOrder(), "")
}
