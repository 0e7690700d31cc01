package redisclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turnoflow/scheduling/internal/schedule"
)

var ErrLockNotAcquired = errors.New("clinic-day lock not acquired")

// DayLocker serializes booking commits per (clinic, date) with a Redis SetNX
// key. Unlike a fail-fast lock, acquisition retries with jitter until the
// wait budget runs out, so concurrent commits against the same day queue up
// instead of bouncing.
type DayLocker struct {
	client  *redis.Client
	ttl     time.Duration
	maxWait time.Duration
}

// NewDayLocker creates a cross-process lock. ttl bounds how long a crashed
// holder can wedge a day; maxWait bounds how long a caller queues.
func NewDayLocker(client *redis.Client, ttl, maxWait time.Duration) *DayLocker {
	return &DayLocker{client: client, ttl: ttl, maxWait: maxWait}
}

func (l *DayLocker) WithDayLock(ctx context.Context, clinicID uuid.UUID, date schedule.Date, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:agenda:%s:%s", clinicID, date)
	token := uuid.NewString()

	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.release(releaseCtx, key, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

func (l *DayLocker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.maxWait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire day lock: %w", err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockNotAcquired
		}

		backoff := time.Duration(10+rand.Intn(40)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Only the holder's token may delete the key, so an expired lock taken over
// by another caller is never released from under them.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *DayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release day lock: %w", err)
	}
	return nil
}
