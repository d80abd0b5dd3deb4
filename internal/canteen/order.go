package canteen

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

// Status is the lifecycle state of an order. Placed is the only live state;
// the other three are terminal.
type Status string

const (
	StatusPlaced       Status = "placed"
	StatusCollected    Status = "collected"
	StatusNotCollected Status = "not_collected"
	StatusCancelled    Status = "cancelled"
)

// DateLayout is the calendar-date format used on orders. The date names the
// day the meal is for, independent of when the order was created.
const DateLayout = "2006-01-02"

func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusCollected, StatusNotCollected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted out of s.
func (s Status) Terminal() bool {
	return s.Valid() && s != StatusPlaced
}

// Live reports whether s counts against the one-order-per-person-per-date
// invariant. Cancelled orders release the slot.
func (s Status) Live() bool {
	return s.Valid() && s != StatusCancelled
}

type Order struct {
	ID       uuid.UUID `json:"id" bson:"_id"`
	PersonID uuid.UUID `json:"person_id" bson:"person_id"`
	ShiftID  uuid.UUID `json:"shift_id" bson:"shift_id"`
	Date     string    `json:"date" bson:"date"`
	Status   Status    `json:"status" bson:"status"`

	CollectedAt     *time.Time `json:"collected_at,omitempty" bson:"collected_at,omitempty"`
	CollectedBy     string     `json:"collected_by,omitempty" bson:"collected_by,omitempty"`
	CollectionPoint string     `json:"collection_point,omitempty" bson:"collection_point,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	LateCancel      bool       `json:"late_cancel,omitempty" bson:"late_cancel,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy string    `json:"updated_by" bson:"updated_by"`

	ModelVersion int `json:"model_version" bson:"model_version"`
}

func NewOrder() *Order {
	return &Order{
		ID:     apt.GenerateNewID(),
		Status: StatusPlaced,
	}
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = apt.GenerateNewID()
	}
}

func (o *Order) BeforeCreate(now time.Time) {
	o.EnsureID()
	o.CreatedAt = now
	o.UpdatedAt = now
}

// MarkCollected records the pickup. Callers must persist the change through
// a conditional update so a concurrent sweep cannot also finalize the order.
func (o *Order) MarkCollected(now time.Time, by, point string) {
	o.Status = StatusCollected
	o.CollectedAt = &now
	o.CollectedBy = by
	o.CollectionPoint = point
	o.UpdatedAt = now
	o.UpdatedBy = by
}

func (o *Order) MarkNotCollected(now time.Time) {
	o.Status = StatusNotCollected
	o.UpdatedAt = now
	o.UpdatedBy = "sweep"
}

func (o *Order) MarkCancelled(now time.Time, by, reason string, late bool) {
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.LateCancel = late
	o.UpdatedAt = now
	o.UpdatedBy = by
}
