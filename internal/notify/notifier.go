// Package notify propagates booking lifecycle events to clinic-scoped
// subscribers. Delivery is best-effort and at-least-once: subscribers must
// treat events as cache-invalidation hints and re-resolve from the
// authoritative store, never as state to display.
package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/turnoflow/scheduling/internal/booking"
)

// Subscriber registers interest in one clinic's event stream. The returned
// cancel function releases the subscription; the channel closes afterwards.
type Subscriber interface {
	Subscribe(ctx context.Context, clinicID uuid.UUID) (<-chan booking.Event, func(), error)
}

// Notifier is the full pub/sub surface.
type Notifier interface {
	booking.EventPublisher
	Subscriber
}
