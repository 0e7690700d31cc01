package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turnoflow/scheduling/internal/booking"
	"github.com/turnoflow/scheduling/internal/schedule"
)

// bookingStore is a minimal in-memory implementation of the coordinator's
// store interfaces, enough to drive commits against the cached read path.
type bookingStore struct {
	mu        sync.Mutex
	cfg       *schedule.Config
	treatment *booking.Treatment
	rows      []booking.Appointment
}

func (s *bookingStore) GetConfig(_ context.Context, _ uuid.UUID) (*schedule.Config, error) {
	return s.cfg, nil
}

func (s *bookingStore) SaveConfig(_ context.Context, cfg *schedule.Config) error {
	s.cfg = cfg
	return nil
}

func (s *bookingStore) GetTreatment(_ context.Context, _ uuid.UUID) (*booking.Treatment, error) {
	return s.treatment, nil
}

func (s *bookingStore) ListTreatments(_ context.Context, _ uuid.UUID) ([]booking.Treatment, error) {
	return []booking.Treatment{*s.treatment}, nil
}

func (s *bookingStore) PatientExists(_ context.Context, _ uuid.UUID) (bool, error) {
	return true, nil
}

func (s *bookingStore) ListByDay(_ context.Context, _ uuid.UUID, date schedule.Date) ([]booking.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []booking.Appointment
	for _, a := range s.rows {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *bookingStore) GetByID(_ context.Context, _ uuid.UUID) (*booking.Appointment, error) {
	return nil, booking.ErrAppointmentNotFound
}

func (s *bookingStore) Create(_ context.Context, a *booking.Appointment) (*booking.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *a)
	stored := *a
	return &stored, nil
}

func (s *bookingStore) UpdateStatus(_ context.Context, _ uuid.UUID, _, _ booking.AppointmentStatus) (*booking.Appointment, error) {
	return nil, booking.ErrAppointmentNotFound
}

func (s *bookingStore) Move(_ context.Context, _ uuid.UUID, _ schedule.Date, _ schedule.TimeOfDay) (*booking.Appointment, error) {
	return nil, booking.ErrAppointmentNotFound
}

func (s *bookingStore) List(_ context.Context, _ booking.ListFilter) ([]booking.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]booking.Appointment(nil), s.rows...), nil
}

type serialLocker struct{ mu sync.Mutex }

func (l *serialLocker) WithDayLock(ctx context.Context, _ uuid.UUID, _ schedule.Date, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, uuid.UUID, booking.Event) error { return nil }

// A committed booking must be visible on the very next cached read: the
// coordinator drops the clinic-day entries before returning.
func TestCommitRefreshesCachedAvailability(t *testing.T) {
	clinicID := uuid.New()
	date, err := schedule.ParseDate("2026-09-07") // Monday
	require.NoError(t, err)
	open, err := schedule.ParseTimeOfDay("09:00")
	require.NoError(t, err)
	closeAt, err := schedule.ParseTimeOfDay("12:00")
	require.NoError(t, err)
	start, err := schedule.ParseTimeOfDay("10:00")
	require.NoError(t, err)

	store := &bookingStore{
		cfg: &schedule.Config{
			ClinicID:               clinicID,
			WorkDays:               []int{0, 1, 2, 3, 4},
			OpenTime:               open,
			CloseTime:              closeAt,
			SlotMinutes:            30,
			MaxAppointmentsPerDay:  10,
			MaxAppointmentsPerSlot: 1,
			OverbookingFeeType:     schedule.FeeFixed,
		},
		treatment: &booking.Treatment{
			ID:              uuid.New(),
			ClinicID:        clinicID,
			Name:            "Checkup",
			DurationMinutes: 30,
			BasePrice:       100,
		},
	}

	availCache := New(NewMemoryStore(), 5*time.Minute, zap.NewNop())
	resolver := booking.NewResolver(store, store, store)
	coordinator := booking.NewCoordinator(store, store, store, store, &serialLocker{}, availCache, noopPublisher{}, zap.NewNop())

	ctx := context.Background()
	loader := func(ctx context.Context) (*booking.Snapshot, error) {
		return resolver.Resolve(ctx, clinicID, date, store.treatment.ID)
	}

	before, err := availCache.Get(ctx, clinicID, date, store.treatment.ID, loader)
	require.NoError(t, err)
	slot, ok := before.SlotAt(start)
	require.True(t, ok)
	require.Equal(t, booking.SlotFree, slot.Status)

	_, err = coordinator.Commit(ctx, booking.Request{
		ClinicID:    clinicID,
		PatientID:   uuid.New(),
		TreatmentID: store.treatment.ID,
		Date:        date,
		StartTime:   start,
	})
	require.NoError(t, err)

	after, err := availCache.Get(ctx, clinicID, date, store.treatment.ID, loader)
	require.NoError(t, err)
	slot, ok = after.SlotAt(start)
	require.True(t, ok)
	assert.Equal(t, booking.SlotBooked, slot.Status)
	assert.Equal(t, 1, slot.Occupancy)
}
