package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/turnoflow/scheduling/internal/schedule"
)

// ListFilter narrows appointment listings. Nil fields are unconstrained.
type ListFilter struct {
	ClinicID  uuid.UUID
	PatientID *uuid.UUID
	From      *schedule.Date
	To        *schedule.Date
	Status    *AppointmentStatus
	Limit     int
	Offset    int
}

// Repository contains all appointment persistence needed by the resolver and
// coordinator.
type Repository interface {
	// ListByDay returns every appointment of a clinic-day, cancelled rows
	// included; callers filter by status as needed.
	ListByDay(ctx context.Context, clinicID uuid.UUID, date schedule.Date) ([]Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	// UpdateStatus performs a guarded transition and fails with
	// ErrAppointmentNotFound if the row is not currently in `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	// Move updates date and start time of an appointment during reschedule.
	Move(ctx context.Context, id uuid.UUID, date schedule.Date, start schedule.TimeOfDay) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
}

// ConfigStore reads and writes per-clinic scheduling configuration.
type ConfigStore interface {
	GetConfig(ctx context.Context, clinicID uuid.UUID) (*schedule.Config, error)
	SaveConfig(ctx context.Context, cfg *schedule.Config) error
}

// PatientStore verifies booking subjects exist. Patient records themselves
// are another service's concern.
type PatientStore interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// TreatmentStore provides treatment duration and pricing, read-only.
type TreatmentStore interface {
	GetTreatment(ctx context.Context, id uuid.UUID) (*Treatment, error)
	ListTreatments(ctx context.Context, clinicID uuid.UUID) ([]Treatment, error)
}

// DayLocker serializes commits against one clinic-day. Implementations must
// provide mutual exclusion across processes, not just goroutines.
type DayLocker interface {
	WithDayLock(ctx context.Context, clinicID uuid.UUID, date schedule.Date, fn func(ctx context.Context) error) error
}
