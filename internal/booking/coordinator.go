package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnoflow/scheduling/internal/schedule"
)

// Request is a booking submission. Availability snapshots the caller saw are
// never trusted: the coordinator re-reads and re-resolves inside its critical
// section.
type Request struct {
	ClinicID    uuid.UUID          `json:"clinic_id"`
	PatientID   uuid.UUID          `json:"patient_id"`
	TreatmentID uuid.UUID          `json:"treatment_id"`
	Date        schedule.Date      `json:"date"`
	StartTime   schedule.TimeOfDay `json:"start_time"`
}

// Coordinator is the only component allowed to mutate appointment state. All
// commits against one (clinic, date) are serialized through the DayLocker so
// capacity and per-day invariants hold under concurrent callers.
type Coordinator struct {
	repo       Repository
	configs    ConfigStore
	treatments TreatmentStore
	patients   PatientStore
	locker     DayLocker
	cache      CacheInvalidator
	publisher  EventPublisher
	log        *zap.Logger
}

func NewCoordinator(
	repo Repository,
	configs ConfigStore,
	treatments TreatmentStore,
	patients PatientStore,
	locker DayLocker,
	cache CacheInvalidator,
	publisher EventPublisher,
	log *zap.Logger,
) *Coordinator {
	return &Coordinator{
		repo:       repo,
		configs:    configs,
		treatments: treatments,
		patients:   patients,
		locker:     locker,
		cache:      cache,
		publisher:  publisher,
		log:        log,
	}
}

// Commit validates and persists a booking. On success cache invalidation and
// event publication run as detached post-commit side effects so notifier or
// cache unavailability never rolls back a booking.
func (c *Coordinator) Commit(ctx context.Context, req Request) (*Appointment, error) {
	appt, err := c.commit(ctx, req)
	commitsTotal.WithLabelValues(commitOutcome(err)).Inc()
	return appt, err
}

func (c *Coordinator) commit(ctx context.Context, req Request) (*Appointment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cfg, err := c.configs.GetConfig(ctx, req.ClinicID)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	treatment, err := c.treatments.GetTreatment(ctx, req.TreatmentID)
	if err != nil {
		return nil, err
	}

	exists, err := c.patients.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, &TransientError{Op: "check patient", Err: err}
	}
	if !exists {
		return nil, ErrPatientNotFound
	}

	var created *Appointment
	err = c.locker.WithDayLock(ctx, req.ClinicID, req.Date, func(lockCtx context.Context) error {
		// Re-read committed state; caller-side availability may be stale.
		bookings, err := c.repo.ListByDay(lockCtx, req.ClinicID, req.Date)
		if err != nil {
			return &TransientError{Op: "read bookings", Err: err}
		}

		slot, err := resolveSlot(cfg, req.Date, treatment, bookings, req.StartTime)
		if err != nil {
			return err
		}

		appt := &Appointment{
			ID:              uuid.New(),
			ClinicID:        req.ClinicID,
			PatientID:       req.PatientID,
			TreatmentID:     req.TreatmentID,
			Date:            req.Date,
			StartTime:       req.StartTime,
			DurationMinutes: treatment.DurationMinutes,
			Status:          StatusBooked,
		}
		if slot.Status == SlotOverbookable {
			appt.IsOverbooking = true
			appt.SurchargeAmount = slot.Surcharge
		}

		created, err = c.repo.Create(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.afterCommit(newEvent(EventCreated, created))
	return created, nil
}

// Confirm moves a booked appointment to confirmed.
func (c *Coordinator) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusBooked {
		return nil, ErrInvalidTransition
	}

	updated, err := c.repo.UpdateStatus(ctx, id, StatusBooked, StatusConfirmed)
	if err != nil {
		return nil, err
	}

	c.afterCommit(newEvent(EventConfirmed, updated))
	return updated, nil
}

// Cancel soft-deletes an appointment. The row stays for audit history and the
// freed capacity becomes visible on the next resolution.
func (c *Coordinator) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCancelled {
		return nil, ErrInvalidTransition
	}

	updated, err := c.repo.UpdateStatus(ctx, id, appt.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}

	c.afterCommit(newEvent(EventCancelled, updated))
	return updated, nil
}

// Reschedule moves an appointment to a new clinic-day slot in one coordinator
// call, so the capacity check for the target slot cannot be fooled by the
// vacated one. Both the old and new day caches are invalidated.
func (c *Coordinator) Reschedule(ctx context.Context, id uuid.UUID, newDate schedule.Date, newStart schedule.TimeOfDay) (*Appointment, error) {
	appt, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCancelled {
		return nil, ErrInvalidTransition
	}

	cfg, err := c.configs.GetConfig(ctx, appt.ClinicID)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	treatment, err := c.treatments.GetTreatment(ctx, appt.TreatmentID)
	if err != nil {
		return nil, err
	}

	oldDate := appt.Date
	var moved *Appointment
	err = c.locker.WithDayLock(ctx, appt.ClinicID, newDate, func(lockCtx context.Context) error {
		bookings, err := c.repo.ListByDay(lockCtx, appt.ClinicID, newDate)
		if err != nil {
			return &TransientError{Op: "read bookings", Err: err}
		}

		// The appointment being moved must not occupy its own target day.
		remaining := bookings[:0]
		for i := range bookings {
			if bookings[i].ID != id {
				remaining = append(remaining, bookings[i])
			}
		}

		if _, err := resolveSlot(cfg, newDate, treatment, remaining, newStart); err != nil {
			return err
		}

		moved, err = c.repo.Move(lockCtx, id, newDate, newStart)
		return err
	})
	if err != nil {
		return nil, err
	}

	ev := newEvent(EventRescheduled, moved)
	c.afterCommit(ev)
	if oldDate != newDate {
		c.invalidate(moved.ClinicID, oldDate)
	}
	return moved, nil
}

// resolveSlot re-runs day resolution for the requested start time only.
func resolveSlot(cfg *schedule.Config, date schedule.Date, treatment *Treatment, bookings []Appointment, start schedule.TimeOfDay) (TimeSlot, error) {
	snap := ResolveDay(cfg, date, treatment, bookings)

	switch snap.DayStatus {
	case DayClosed:
		return TimeSlot{}, ErrSlotBlocked
	case DayFull:
		return TimeSlot{}, ErrDayFull
	}

	slot, ok := snap.SlotAt(start)
	if !ok {
		return TimeSlot{}, ErrSlotBlocked
	}
	if slot.Status == SlotBooked || slot.Status == SlotBlocked {
		return TimeSlot{}, &CapacityExceededError{
			Start:              start,
			Occupancy:          slot.Occupancy,
			Capacity:           slot.Capacity,
			OverbookingAllowed: cfg.AllowDoubleBooking,
		}
	}
	return slot, nil
}

func validateRequest(req Request) error {
	if req.ClinicID == uuid.Nil {
		return &ValidationError{Field: "clinic_id", Reason: "required"}
	}
	if req.PatientID == uuid.Nil {
		return &ValidationError{Field: "patient_id", Reason: "required"}
	}
	if req.TreatmentID == uuid.Nil {
		return &ValidationError{Field: "treatment_id", Reason: "required"}
	}
	if req.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "required"}
	}
	return nil
}

// afterCommit runs invalidation and event publication as post-commit side
// effects. Invalidation happens before returning so the very next read sees
// fresh occupancy; publication is fired asynchronously. Failures in either
// degrade freshness, never correctness: every reader re-validates against the
// store, and a committed booking is never rolled back here.
func (c *Coordinator) afterCommit(ev Event) {
	c.invalidate(ev.ClinicID, ev.Date)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.publisher.Publish(ctx, ev.ClinicID, ev); err != nil {
			c.log.Warn("event publish failed",
				zap.String("clinic_id", ev.ClinicID.String()),
				zap.String("event_type", string(ev.Type)),
				zap.Error(err))
		}
	}()
}

func (c *Coordinator) invalidate(clinicID uuid.UUID, date schedule.Date) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.cache.Invalidate(ctx, clinicID, date); err != nil {
		c.log.Warn("cache invalidation failed",
			zap.String("clinic_id", clinicID.String()),
			zap.String("date", date.String()),
			zap.Error(err))
	}
}
