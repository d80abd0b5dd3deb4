package event

import "time"

const (
	// OrdersTopic delivers order lifecycle transitions.
	OrdersTopic = "canteen.orders"

	EventOrderCreated   = "order.created"
	EventOrderCheckin   = "order.checkin"
	EventOrderCancelled = "order.cancelled"
	EventOrderNoShow    = "order.noshow"
)

// OrderEvent is published on every order state transition. Consumers treat
// it as a cache-invalidation signal and re-fetch authoritative state over
// HTTP; the payload is a convenience, not a source of truth.
type OrderEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        string    `json:"order_id"`
	PersonID       string    `json:"person_id"`
	ShiftID        string    `json:"shift_id"`
	Date           string    `json:"date"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	LateCancel     bool      `json:"late_cancel,omitempty"`

	// Denormalized data for display purposes
	ShiftName  string `json:"shift_name,omitempty"`
	PersonName string `json:"person_name,omitempty"`
}
