package canteen

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/canteenclub/canteen/pkg/event"
)

func TestNewConfigSubscriber(t *testing.T) {
	sub := NewConfigSubscriber(nil, NewMockShiftRepo(), nil, nil, nil)

	if sub == nil {
		t.Fatal("NewConfigSubscriber() returned nil")
	}
	if sub.logger == nil {
		t.Error("NewConfigSubscriber() should set noop logger when nil")
	}
}

func TestConfigSubscriberStartNilSubscriber(t *testing.T) {
	sub := NewConfigSubscriber(nil, NewMockShiftRepo(), nil, nil, nil)

	if err := sub.Start(context.Background()); err == nil {
		t.Error("Start() with nil subscriber should return error")
	}
}

func TestConfigSubscriberShiftUpdated(t *testing.T) {
	shifts := NewMockShiftRepo()
	clock := NewFixedClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))
	sub := NewConfigSubscriber(nil, shifts, nil, clock, nil)
	ctx := context.Background()

	shiftID := uuid.New()
	msg, _ := json.Marshal(event.ShiftEvent{
		EventType:    event.EventShiftUpdated,
		ShiftID:      shiftID.String(),
		Name:         "Lunch",
		Start:        "12:00",
		End:          "14:30",
		GraceMinutes: 30,
		Active:       true,
	})

	// Unknown shift: the notice creates it.
	if err := sub.handleEvent(ctx, msg); err != nil {
		t.Fatalf("handleEvent() error = %v", err)
	}
	got, _ := shifts.Get(ctx, shiftID)
	if got == nil || got.Name != "Lunch" || !got.Active {
		t.Fatalf("shift after create notice = %+v", got)
	}

	// Edit notice: the existing shift is updated in place.
	msg, _ = json.Marshal(event.ShiftEvent{
		EventType:    event.EventShiftUpdated,
		ShiftID:      shiftID.String(),
		Name:         "Lunch",
		Start:        "12:00",
		End:          "15:00",
		GraceMinutes: 15,
		Active:       false,
	})
	if err := sub.handleEvent(ctx, msg); err != nil {
		t.Fatalf("handleEvent() error = %v", err)
	}
	got, _ = shifts.Get(ctx, shiftID)
	if got.End != "15:00" || got.GraceMinutes != 15 || got.Active {
		t.Errorf("shift after edit notice = %+v", got)
	}

	all, _ := shifts.List(ctx)
	if len(all) != 1 {
		t.Errorf("shifts = %d, want 1", len(all))
	}
}

func TestConfigSubscriberPolicyUpdated(t *testing.T) {
	repo := NewMockPolicyRepo()
	changed := DefaultPolicy()
	changed.StrikeThreshold = 5
	if err := repo.Save(context.Background(), &changed); err != nil {
		t.Fatal(err)
	}

	policies := NewPolicyStore(repo, nil)
	sub := NewConfigSubscriber(nil, NewMockShiftRepo(), policies, nil, nil)

	msg, _ := json.Marshal(map[string]string{"event_type": event.EventPolicyUpdated})
	if err := sub.handleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handleEvent() error = %v", err)
	}

	if got := policies.Current(); got.StrikeThreshold != 5 {
		t.Errorf("policy after reload = %+v, want threshold 5", got)
	}
}

func TestConfigSubscriberBadMessages(t *testing.T) {
	sub := NewConfigSubscriber(nil, NewMockShiftRepo(), nil, nil, nil)
	ctx := context.Background()

	// Malformed payloads are dropped, never returned as errors: an error
	// would be retried or would tear down the subscription.
	if err := sub.handleEvent(ctx, []byte("not json")); err != nil {
		t.Errorf("handleEvent() with bad json error = %v", err)
	}

	msg, _ := json.Marshal(event.ShiftEvent{EventType: event.EventShiftUpdated, ShiftID: "not-a-uuid"})
	if err := sub.handleEvent(ctx, msg); err != nil {
		t.Errorf("handleEvent() with bad shift id error = %v", err)
	}

	msg, _ = json.Marshal(map[string]string{"event_type": "something.else"})
	if err := sub.handleEvent(ctx, msg); err != nil {
		t.Errorf("handleEvent() with unknown type error = %v", err)
	}
}
