package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turnoflow/scheduling/internal/schedule"
)

type EventType string

const (
	EventCreated     EventType = "created"
	EventConfirmed   EventType = "confirmed"
	EventCancelled   EventType = "cancelled"
	EventRescheduled EventType = "rescheduled"
)

// Event is a booking lifecycle notification. It carries only what a receiver
// needs to invalidate its view; receivers must re-resolve availability from
// the authoritative store rather than trust event fields for display.
type Event struct {
	Type          EventType          `json:"type"`
	ClinicID      uuid.UUID          `json:"clinic_id"`
	AppointmentID uuid.UUID          `json:"appointment_id"`
	Date          schedule.Date      `json:"date"`
	StartTime     schedule.TimeOfDay `json:"start_time"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// EventPublisher fans booking events out to clinic-scoped subscribers.
// Delivery is best-effort: publish failures never affect commit outcomes.
type EventPublisher interface {
	Publish(ctx context.Context, clinicID uuid.UUID, ev Event) error
}

// CacheInvalidator drops cached availability after a committed mutation.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, clinicID uuid.UUID, date schedule.Date) error
	InvalidateClinic(ctx context.Context, clinicID uuid.UUID) error
}

func newEvent(t EventType, a *Appointment) Event {
	return Event{
		Type:          t,
		ClinicID:      a.ClinicID,
		AppointmentID: a.ID,
		Date:          a.Date,
		StartTime:     a.StartTime,
		OccurredAt:    time.Now().UTC(),
	}
}
