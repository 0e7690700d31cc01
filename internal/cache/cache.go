// Package cache holds the short-TTL, write-invalidated availability cache.
// Reads never block writes; a snapshot returned here may already be stale,
// which is acceptable because commit decisions never trust cached data.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnoflow/scheduling/internal/booking"
	"github.com/turnoflow/scheduling/internal/schedule"
)

// ErrMiss is returned by stores when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the pluggable backing for cached snapshots. Implementations must
// honor the TTL passed to Set and support prefix deletion for invalidation.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Loader computes a snapshot on cache miss.
type Loader func(ctx context.Context) (*booking.Snapshot, error)

// AvailabilityCache caches resolved availability keyed by
// (clinic, date, treatment). Invalidation is day-granular: any booking affects
// the whole day's occupancy, so all treatment entries for the day go together.
type AvailabilityCache struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
}

func New(store Store, ttl time.Duration, log *zap.Logger) *AvailabilityCache {
	return &AvailabilityCache{store: store, ttl: ttl, log: log}
}

func key(clinicID uuid.UUID, date schedule.Date, treatmentID uuid.UUID) string {
	return fmt.Sprintf("avail:%s:%s:%s", clinicID, date, treatmentID)
}

func dayPrefix(clinicID uuid.UUID, date schedule.Date) string {
	return fmt.Sprintf("avail:%s:%s:", clinicID, date)
}

func clinicPrefix(clinicID uuid.UUID) string {
	return fmt.Sprintf("avail:%s:", clinicID)
}

// Get returns the cached snapshot or computes and stores one via the loader.
// Store failures degrade to a direct load; they are logged, never surfaced.
func (c *AvailabilityCache) Get(ctx context.Context, clinicID uuid.UUID, date schedule.Date, treatmentID uuid.UUID, load Loader) (*booking.Snapshot, error) {
	k := key(clinicID, date, treatmentID)

	var snap booking.Snapshot
	err := c.store.Get(ctx, k, &snap)
	if err == nil {
		return &snap, nil
	}
	if !errors.Is(err, ErrMiss) {
		c.log.Warn("cache read failed", zap.String("key", k), zap.Error(err))
	}

	fresh, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, k, fresh, c.ttl); err != nil {
		c.log.Warn("cache write failed", zap.String("key", k), zap.Error(err))
	}
	return fresh, nil
}

// Invalidate drops every treatment entry for one clinic-day.
func (c *AvailabilityCache) Invalidate(ctx context.Context, clinicID uuid.UUID, date schedule.Date) error {
	return c.store.DeleteByPrefix(ctx, dayPrefix(clinicID, date))
}

// InvalidateClinic drops all cached days of a clinic, used after config writes.
func (c *AvailabilityCache) InvalidateClinic(ctx context.Context, clinicID uuid.UUID) error {
	return c.store.DeleteByPrefix(ctx, clinicPrefix(clinicID))
}
