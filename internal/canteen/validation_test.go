package canteen

import (
	"testing"

	"github.com/google/uuid"
)

func TestValidateOrderCreate(t *testing.T) {
	personID := uuid.New()
	shiftID := uuid.New()

	tests := []struct {
		name     string
		req      OrderCreateRequest
		wantErrs int
	}{
		{
			name:     "valid",
			req:      OrderCreateRequest{PersonID: personID, ShiftID: shiftID, Date: "2025-06-10"},
			wantErrs: 0,
		},
		{
			name:     "missingEverything",
			req:      OrderCreateRequest{},
			wantErrs: 3,
		},
		{
			name:     "badDateFormat",
			req:      OrderCreateRequest{PersonID: personID, ShiftID: shiftID, Date: "10/06/2025"},
			wantErrs: 1,
		},
		{
			name:     "missingShift",
			req:      OrderCreateRequest{PersonID: personID, Date: "2025-06-10"},
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := ValidateOrderCreate(tt.req); len(errs) != tt.wantErrs {
				t.Errorf("ValidateOrderCreate() = %v, want %d errors", errs, tt.wantErrs)
			}
		})
	}
}

func TestValidateStrikeReduce(t *testing.T) {
	tests := []struct {
		name     string
		req      StrikeReduceRequest
		wantErrs int
	}{
		{name: "byAmount", req: StrikeReduceRequest{Amount: 2}, wantErrs: 0},
		{name: "toZero", req: StrikeReduceRequest{ToZero: true}, wantErrs: 0},
		{name: "empty", req: StrikeReduceRequest{}, wantErrs: 1},
		{name: "both", req: StrikeReduceRequest{Amount: 2, ToZero: true}, wantErrs: 1},
		{name: "negativeAmount", req: StrikeReduceRequest{Amount: -1}, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if errs := ValidateStrikeReduce(tt.req); len(errs) != tt.wantErrs {
				t.Errorf("ValidateStrikeReduce() = %v, want %d errors", errs, tt.wantErrs)
			}
		})
	}
}
