package booking

import (
	"errors"
	"fmt"

	"github.com/turnoflow/scheduling/internal/schedule"
)

var (
	ErrConfigNotFound      = errors.New("schedule config not found")
	ErrTreatmentNotFound   = errors.New("treatment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	ErrSlotBlocked       = errors.New("date is not open for booking")
	ErrDayFull           = errors.New("daily appointment limit reached")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
)

// ValidationError reports a malformed booking request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// CapacityExceededError is returned when a slot is already saturated. It
// records whether the clinic even allows overbooking so callers can phrase
// the rejection.
type CapacityExceededError struct {
	Start              schedule.TimeOfDay
	Occupancy          int
	Capacity           int
	OverbookingAllowed bool
}

func (e *CapacityExceededError) Error() string {
	if e.OverbookingAllowed {
		return fmt.Sprintf("slot %s is at capacity (%d/%d, overbooking included)", e.Start, e.Occupancy, e.Capacity)
	}
	return fmt.Sprintf("slot %s is already booked", e.Start)
}

// TransientError marks a store or lock failure that the caller may retry with
// backoff. The coordinator itself never retries to avoid duplicate commits.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }
