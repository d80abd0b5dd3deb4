package event

import "time"

const (
	// PeopleTopic delivers strike and restriction changes for a person.
	PeopleTopic = "canteen.people"

	EventUserBlacklisted  = "user.blacklisted"
	EventUserUnblocked    = "user.unblocked"
	EventUserStrikesReset = "user.strikesReset"
)

// PersonEvent announces a change to a person's strike count or restriction
// state.
type PersonEvent struct {
	EventType  string     `json:"event_type"`
	OccurredAt time.Time  `json:"occurred_at"`
	PersonID   string     `json:"person_id"`
	Strikes    int        `json:"strikes"`
	Restricted bool       `json:"restricted"`
	Until      *time.Time `json:"until,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}
