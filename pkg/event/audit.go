package event

import "time"

const (
	// AuditTopic carries a structured record of every transition for the
	// external compliance sink. Delivery is fire-and-forget.
	AuditTopic = "canteen.audit"

	// ConfigTopic carries change notices from external collaborators
	// (shift edits, policy reloads) back into the engine.
	ConfigTopic = "canteen.config"

	EventPolicyUpdated = "policy.updated"
	EventShiftUpdated  = "shift.updated"
)

// ShiftEvent is the change notice the shift-owning collaborator pushes when
// a shift definition is edited. Edits affect future bookability only.
type ShiftEvent struct {
	EventType    string    `json:"event_type"`
	OccurredAt   time.Time `json:"occurred_at"`
	ShiftID      string    `json:"shift_id"`
	Name         string    `json:"name"`
	Start        string    `json:"start"`
	End          string    `json:"end"`
	GraceMinutes int       `json:"grace_minutes"`
	Active       bool      `json:"active"`
}

// AuditRecord mirrors a state transition for compliance. It carries both
// sides of the transition so the sink never has to reconstruct history.
type AuditRecord struct {
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
	Actor      string    `json:"actor,omitempty"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Before     string    `json:"before,omitempty"`
	After      string    `json:"after,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}
