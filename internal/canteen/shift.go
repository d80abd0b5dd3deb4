package canteen

import (
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Shift is a named recurring time-of-day window. Start and End are
// wall-clock "HH:MM" values with no date component; the engine combines
// them with an order's calendar date when it needs an instant.
//
// Shifts are owned by an external collaborator. Edits never retroactively
// alter past orders, only future bookability.
type Shift struct {
	ID           uuid.UUID `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Start        string    `json:"start" bson:"start"`
	End          string    `json:"end" bson:"end"`
	GraceMinutes int       `json:"grace_minutes" bson:"grace_minutes"`
	Active       bool      `json:"active" bson:"active"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

const clockLayout = "15:04"

func NewShift(name, start, end string) *Shift {
	return &Shift{
		ID:     apt.GenerateNewID(),
		Name:   name,
		Start:  start,
		End:    end,
		Active: true,
	}
}

func (s *Shift) GetID() uuid.UUID {
	return s.ID
}

func (s *Shift) ResourceType() string {
	return "shift"
}

func (s *Shift) SetID(id uuid.UUID) {
	s.ID = id
}

// StartOn returns the instant the shift begins on the given calendar date.
// All engine times are UTC.
func (s *Shift) StartOn(date string) (time.Time, error) {
	return combine(date, s.Start)
}

// EndOn returns the instant the shift ends on the given calendar date.
// Shifts that cross midnight end on the following day.
func (s *Shift) EndOn(date string) (time.Time, error) {
	start, err := combine(date, s.Start)
	if err != nil {
		return time.Time{}, err
	}
	end, err := combine(date, s.End)
	if err != nil {
		return time.Time{}, err
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return end, nil
}

// CollectionDeadline is the last instant an order for this shift/date may
// still be collected: shift end plus the operational grace period.
func (s *Shift) CollectionDeadline(date string) (time.Time, error) {
	end, err := s.EndOn(date)
	if err != nil {
		return time.Time{}, err
	}
	return end.Add(time.Duration(s.GraceMinutes) * time.Minute), nil
}

func combine(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+clockLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid shift time %q on %q: %w", clock, date, err)
	}
	return t, nil
}
