package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/turnoflow/scheduling/internal/schedule"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "booked"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type SlotStatus string

const (
	SlotFree         SlotStatus = "free"
	SlotBooked       SlotStatus = "booked"
	SlotOverbookable SlotStatus = "overbookable"
	SlotBlocked      SlotStatus = "blocked"
)

type DayStatus string

const (
	DayOpen   DayStatus = "open"
	DayClosed DayStatus = "closed"
	DayFull   DayStatus = "full"
)

// Appointment is the persisted booking record. Rows are never hard-deleted;
// cancellation is a status transition so audit history survives.
type Appointment struct {
	ID              uuid.UUID          `json:"id"`
	ClinicID        uuid.UUID          `json:"clinic_id"`
	PatientID       uuid.UUID          `json:"patient_id"`
	TreatmentID     uuid.UUID          `json:"treatment_id"`
	Date            schedule.Date      `json:"date"`
	StartTime       schedule.TimeOfDay `json:"start_time"`
	DurationMinutes int                `json:"duration_minutes"`
	Status          AppointmentStatus  `json:"status"`
	IsOverbooking   bool               `json:"is_overbooking"`
	SurchargeAmount float64            `json:"surcharge_amount"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func (a *Appointment) EndTime() schedule.TimeOfDay {
	return a.StartTime.Add(a.DurationMinutes)
}

func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}

// Treatment is collaborator data consumed read-only for duration and pricing.
type Treatment struct {
	ID              uuid.UUID `json:"id"`
	ClinicID        uuid.UUID `json:"clinic_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	BasePrice       float64   `json:"base_price"`
}

// TimeSlot is one resolved slot of a day's availability view.
type TimeSlot struct {
	Start     schedule.TimeOfDay `json:"start"`
	End       schedule.TimeOfDay `json:"end"`
	Status    SlotStatus         `json:"status"`
	Occupancy int                `json:"occupancy"`
	Capacity  int                `json:"capacity"`
	// Surcharge is the fee the next booking in this slot would pay; only set
	// while the slot is overbookable.
	Surcharge float64 `json:"surcharge,omitempty"`
}

// Snapshot is the resolved, cacheable availability of one clinic-day for one
// treatment. Generation increases monotonically so stale cache fills can be
// detected.
type Snapshot struct {
	ClinicID    uuid.UUID     `json:"clinic_id"`
	Date        schedule.Date `json:"date"`
	TreatmentID uuid.UUID     `json:"treatment_id"`
	DayStatus   DayStatus     `json:"day_status"`
	Slots       []TimeSlot    `json:"slots"`
	Generation  int64         `json:"generation"`
}

// SlotAt returns the resolved slot starting at the given time, if the grid
// contains one.
func (s *Snapshot) SlotAt(start schedule.TimeOfDay) (TimeSlot, bool) {
	for _, slot := range s.Slots {
		if slot.Start == start {
			return slot, true
		}
	}
	return TimeSlot{}, false
}
