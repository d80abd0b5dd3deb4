package canteen

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Restriction is a time-boxed denial of new-order privileges for a person.
// A nil EndsAt means indefinite.
type Restriction struct {
	ID       uuid.UUID  `json:"id" bson:"_id"`
	PersonID uuid.UUID  `json:"person_id" bson:"person_id"`
	Reason   string     `json:"reason" bson:"reason"`
	StartsAt time.Time  `json:"starts_at" bson:"starts_at"`
	EndsAt   *time.Time `json:"ends_at,omitempty" bson:"ends_at,omitempty"`
	Active   bool       `json:"active" bson:"active"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy string    `json:"updated_by" bson:"updated_by"`
}

func NewRestriction(personID uuid.UUID, reason string, start time.Time, end *time.Time) *Restriction {
	return &Restriction{
		ID:        apt.GenerateNewID(),
		PersonID:  personID,
		Reason:    reason,
		StartsAt:  start,
		EndsAt:    end,
		Active:    true,
		CreatedAt: start,
		UpdatedAt: start,
	}
}

func (r *Restriction) GetID() uuid.UUID {
	return r.ID
}

func (r *Restriction) ResourceType() string {
	return "restriction"
}

func (r *Restriction) SetID(id uuid.UUID) {
	r.ID = id
}

// Covers reports whether the restriction denies ordering at the given
// instant. Expiry is evaluated here, from the timestamps, never from the
// Active flag alone: a restriction whose window has passed is inactive even
// if housekeeping has not cleared the flag yet.
func (r *Restriction) Covers(at time.Time) bool {
	if !r.Active {
		return false
	}
	if at.Before(r.StartsAt) {
		return false
	}
	if r.EndsAt != nil && !at.Before(*r.EndsAt) {
		return false
	}
	return true
}
