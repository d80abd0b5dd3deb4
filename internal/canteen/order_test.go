package canteen

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewOrderDefaults(t *testing.T) {
	o := NewOrder()

	if o == nil {
		t.Fatal("NewOrder() returned nil")
	}
	if o.ID == uuid.Nil {
		t.Error("NewOrder() should generate a non-nil UUID")
	}
	if o.Status != StatusPlaced {
		t.Errorf("NewOrder() Status = %q, want %q", o.Status, StatusPlaced)
	}
}

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status   Status
		valid    bool
		terminal bool
		live     bool
	}{
		{status: StatusPlaced, valid: true, terminal: false, live: true},
		{status: StatusCollected, valid: true, terminal: true, live: true},
		{status: StatusNotCollected, valid: true, terminal: true, live: true},
		{status: StatusCancelled, valid: true, terminal: true, live: false},
		{status: Status("pending"), valid: false, terminal: false, live: false},
		{status: Status(""), valid: false, terminal: false, live: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.Live(); got != tt.live {
				t.Errorf("Live() = %v, want %v", got, tt.live)
			}
		})
	}
}

func TestOrderMarkTransitions(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 15, 0, 0, time.UTC)

	t.Run("collected", func(t *testing.T) {
		o := NewOrder()
		o.MarkCollected(now, "kiosk-1", "front desk")

		if o.Status != StatusCollected {
			t.Errorf("Status = %q, want collected", o.Status)
		}
		if o.CollectedAt == nil || !o.CollectedAt.Equal(now) {
			t.Errorf("CollectedAt = %v, want %v", o.CollectedAt, now)
		}
		if o.CollectedBy != "kiosk-1" || o.CollectionPoint != "front desk" {
			t.Errorf("collection attribution = %q/%q", o.CollectedBy, o.CollectionPoint)
		}
	})

	t.Run("notCollected", func(t *testing.T) {
		o := NewOrder()
		o.MarkNotCollected(now)

		if o.Status != StatusNotCollected {
			t.Errorf("Status = %q, want not_collected", o.Status)
		}
		if o.UpdatedBy != "sweep" {
			t.Errorf("UpdatedBy = %q, want sweep", o.UpdatedBy)
		}
	})

	t.Run("cancelledLate", func(t *testing.T) {
		o := NewOrder()
		o.MarkCancelled(now, "dana", "sick", true)

		if o.Status != StatusCancelled {
			t.Errorf("Status = %q, want cancelled", o.Status)
		}
		if !o.LateCancel || o.CancelReason != "sick" {
			t.Errorf("LateCancel = %v, CancelReason = %q", o.LateCancel, o.CancelReason)
		}
	})
}

func TestOrderResourceType(t *testing.T) {
	o := &Order{}
	if got := o.ResourceType(); got != "order" {
		t.Errorf("Order.ResourceType() = %q, want %q", got, "order")
	}
}

func TestOrderEnsureID(t *testing.T) {
	o := &Order{}
	o.EnsureID()
	if o.ID == uuid.Nil {
		t.Error("EnsureID() should generate non-nil UUID")
	}

	existing := o.ID
	o.EnsureID()
	if o.ID != existing {
		t.Errorf("EnsureID() changed existing ID from %v to %v", existing, o.ID)
	}
}

func TestShiftTimes(t *testing.T) {
	tests := []struct {
		name         string
		start        string
		end          string
		grace        int
		date         string
		wantStart    string
		wantDeadline string
	}{
		{
			name:         "daytime",
			start:        "12:00",
			end:          "14:30",
			grace:        30,
			date:         "2025-06-10",
			wantStart:    "2025-06-10T12:00:00Z",
			wantDeadline: "2025-06-10T15:00:00Z",
		},
		{
			name:         "midnightCrossing",
			start:        "22:00",
			end:          "01:00",
			grace:        15,
			date:         "2025-06-10",
			wantStart:    "2025-06-10T22:00:00Z",
			wantDeadline: "2025-06-11T01:15:00Z",
		},
		{
			name:         "zeroGrace",
			start:        "06:30",
			end:          "09:00",
			date:         "2025-06-10",
			wantStart:    "2025-06-10T06:30:00Z",
			wantDeadline: "2025-06-10T09:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewShift(tt.name, tt.start, tt.end)
			s.GraceMinutes = tt.grace

			start, err := s.StartOn(tt.date)
			if err != nil {
				t.Fatalf("StartOn() error = %v", err)
			}
			if want := mustTime(t, tt.wantStart); !start.Equal(want) {
				t.Errorf("StartOn() = %v, want %v", start, want)
			}

			deadline, err := s.CollectionDeadline(tt.date)
			if err != nil {
				t.Fatalf("CollectionDeadline() error = %v", err)
			}
			if want := mustTime(t, tt.wantDeadline); !deadline.Equal(want) {
				t.Errorf("CollectionDeadline() = %v, want %v", deadline, want)
			}
		})
	}
}

func TestShiftTimesInvalid(t *testing.T) {
	s := NewShift("Broken", "25:00", "09:00")
	if _, err := s.StartOn("2025-06-10"); err == nil {
		t.Error("StartOn() with invalid clock value should fail")
	}
	if _, err := s.StartOn("not-a-date"); err == nil {
		t.Error("StartOn() with invalid date should fail")
	}
}

func TestRestrictionCovers(t *testing.T) {
	start := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)

	t.Run("bounded", func(t *testing.T) {
		r := NewRestriction(uuid.New(), "missed collections", start, &end)

		if r.Covers(start.Add(-time.Second)) {
			t.Error("Covers() before start should be false")
		}
		if !r.Covers(start) {
			t.Error("Covers() at start should be true")
		}
		if r.Covers(end) {
			t.Error("Covers() at end should be false, end is exclusive")
		}
	})

	t.Run("indefinite", func(t *testing.T) {
		r := NewRestriction(uuid.New(), "manual block", start, nil)
		if !r.Covers(start.Add(365 * 24 * time.Hour)) {
			t.Error("Covers() with nil end should hold indefinitely")
		}
	})

	t.Run("inactive", func(t *testing.T) {
		r := NewRestriction(uuid.New(), "lifted", start, &end)
		r.Active = false
		if r.Covers(start.Add(time.Hour)) {
			t.Error("Covers() for lifted restriction should be false")
		}
	})
}
