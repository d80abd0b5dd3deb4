package canteen

import "github.com/google/uuid"

type OrderCreateRequest struct {
	PersonID uuid.UUID `json:"person_id"`
	ShiftID  uuid.UUID `json:"shift_id"`
	Date     string    `json:"date"`
	PlacedBy string    `json:"placed_by,omitempty"`
}

type OrderCollectRequest struct {
	CollectedBy     string `json:"collected_by"`
	CollectionPoint string `json:"collection_point,omitempty"`
}

type OrderCancelRequest struct {
	Reason      string `json:"reason,omitempty"`
	CancelledBy string `json:"cancelled_by,omitempty"`
	AllowLate   bool   `json:"allow_late,omitempty"`
}

type PolicyUpdateRequest struct {
	CutoffLeadHours int    `json:"cutoff_lead_hours"`
	StrikeThreshold int    `json:"strike_threshold"`
	RestrictionDays int    `json:"restriction_days"`
	HorizonDays     int    `json:"horizon_days"`
	UpdatedBy       string `json:"updated_by,omitempty"`
}

type StrikeReduceRequest struct {
	Amount    int    `json:"amount,omitempty"`
	ToZero    bool   `json:"to_zero,omitempty"`
	ReducedBy string `json:"reduced_by,omitempty"`
}

type RestrictionLiftRequest struct {
	LiftedBy string `json:"lifted_by,omitempty"`
}

// ErrorPayload is the machine-readable rejection body: a stable code the
// client switches on plus a human-readable message.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
