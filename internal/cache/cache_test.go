package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turnoflow/scheduling/internal/booking"
	"github.com/turnoflow/scheduling/internal/schedule"
)

func testSnapshot(clinicID, treatmentID uuid.UUID, date schedule.Date, generation int64) *booking.Snapshot {
	return &booking.Snapshot{
		ClinicID:    clinicID,
		Date:        date,
		TreatmentID: treatmentID,
		DayStatus:   booking.DayOpen,
		Generation:  generation,
	}
}

func countingLoader(snap *booking.Snapshot, calls *int) Loader {
	return func(context.Context) (*booking.Snapshot, error) {
		*calls++
		return snap, nil
	}
}

func TestCacheGetLoadsOnceWithinTTL(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, 5*time.Minute, zap.NewNop())
	ctx := context.Background()

	clinicID, treatmentID := uuid.New(), uuid.New()
	date, err := schedule.ParseDate("2026-09-07")
	require.NoError(t, err)

	calls := 0
	loader := countingLoader(testSnapshot(clinicID, treatmentID, date, 1), &calls)

	first, err := c.Get(ctx, clinicID, date, treatmentID, loader)
	require.NoError(t, err)
	second, err := c.Get(ctx, clinicID, date, treatmentID, loader)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second read must hit the cache")
	assert.Equal(t, first.Generation, second.Generation)
}

func TestCacheEntriesExpire(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	c := New(store, 5*time.Minute, zap.NewNop())
	ctx := context.Background()

	clinicID, treatmentID := uuid.New(), uuid.New()
	date, err := schedule.ParseDate("2026-09-07")
	require.NoError(t, err)

	calls := 0
	loader := countingLoader(testSnapshot(clinicID, treatmentID, date, 1), &calls)

	_, err = c.Get(ctx, clinicID, date, treatmentID, loader)
	require.NoError(t, err)

	now = now.Add(5*time.Minute + time.Second)
	_, err = c.Get(ctx, clinicID, date, treatmentID, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "expired entry must reload")
}

func TestCacheInvalidateDropsWholeDay(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, 5*time.Minute, zap.NewNop())
	ctx := context.Background()

	clinicID := uuid.New()
	date, err := schedule.ParseDate("2026-09-07")
	require.NoError(t, err)
	otherDate := date.AddDays(1)

	// Two treatments cached for the day, one for the next day.
	var dayCalls, otherCalls int
	for _, treatmentID := range []uuid.UUID{uuid.New(), uuid.New()} {
		_, err := c.Get(ctx, clinicID, date, treatmentID, countingLoader(testSnapshot(clinicID, treatmentID, date, 1), &dayCalls))
		require.NoError(t, err)
	}
	otherTreatment := uuid.New()
	_, err = c.Get(ctx, clinicID, otherDate, otherTreatment, countingLoader(testSnapshot(clinicID, otherTreatment, otherDate, 1), &otherCalls))
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, clinicID, date))
	assert.Equal(t, 1, store.len(), "only the untouched day survives")
}

func TestCacheInvalidateClinicLeavesOthersAlone(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, 5*time.Minute, zap.NewNop())
	ctx := context.Background()

	date, err := schedule.ParseDate("2026-09-07")
	require.NoError(t, err)

	clinicA, clinicB := uuid.New(), uuid.New()
	for _, clinicID := range []uuid.UUID{clinicA, clinicB} {
		treatmentID := uuid.New()
		calls := 0
		_, err := c.Get(ctx, clinicID, date, treatmentID, countingLoader(testSnapshot(clinicID, treatmentID, date, 1), &calls))
		require.NoError(t, err)
	}

	require.NoError(t, c.InvalidateClinic(ctx, clinicA))
	assert.Equal(t, 1, store.len())
}

func TestCacheLoaderErrorsSurface(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, 5*time.Minute, zap.NewNop())

	wantErr := errors.New("resolver blew up")
	_, err := c.Get(context.Background(), uuid.New(), schedule.Date{Year: 2026, Month: 9, Day: 7}, uuid.New(),
		func(context.Context) (*booking.Snapshot, error) { return nil, wantErr })
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, store.len(), "failed loads are not cached")
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "short", time.Minute))
	require.NoError(t, store.Set(ctx, "b", "long", time.Hour))

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.len())

	var v string
	assert.ErrorIs(t, store.Get(ctx, "a", &v), ErrMiss)
	require.NoError(t, store.Get(ctx, "b", &v))
	assert.Equal(t, "long", v)
}
