package canteen

import (
	"time"

	"github.com/google/uuid"
)

func ValidateOrderCreate(req OrderCreateRequest) []string {
	var errors []string

	if req.PersonID == uuid.Nil {
		errors = append(errors, "person_id is required")
	}
	if req.ShiftID == uuid.Nil {
		errors = append(errors, "shift_id is required")
	}
	if req.Date == "" {
		errors = append(errors, "date is required")
	} else if _, err := time.ParseInLocation(DateLayout, req.Date, time.UTC); err != nil {
		errors = append(errors, "date must be formatted YYYY-MM-DD")
	}

	return errors
}

func ValidateOrderCollect(req OrderCollectRequest) []string {
	var errors []string

	if req.CollectedBy == "" {
		errors = append(errors, "collected_by is required")
	}

	return errors
}

func ValidateStrikeReduce(req StrikeReduceRequest) []string {
	var errors []string

	if !req.ToZero && req.Amount <= 0 {
		errors = append(errors, "amount must be greater than 0 unless to_zero is set")
	}
	if req.ToZero && req.Amount > 0 {
		errors = append(errors, "amount and to_zero are mutually exclusive")
	}

	return errors
}
