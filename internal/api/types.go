package api

import (
	"github.com/turnoflow/scheduling/internal/booking"
)

type CreateAppointmentRequest struct {
	ClinicID    string `json:"clinic_id"`
	PatientID   string `json:"patient_id"`
	TreatmentID string `json:"treatment_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
}

// PatchAppointmentRequest drives confirm, cancel and reschedule through one
// endpoint. Date and StartTime are required only for reschedule.
type PatchAppointmentRequest struct {
	Action    string `json:"action"` // confirm | cancel | reschedule
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
}

type AvailabilityResponse struct {
	ClinicID    string             `json:"clinic_id"`
	Date        string             `json:"date"`
	TreatmentID string             `json:"treatment_id"`
	DayStatus   booking.DayStatus  `json:"day_status"`
	Slots       []booking.TimeSlot `json:"slots"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
