package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/turnoflow/scheduling/internal/booking"
)

// MemoryBus is an in-process Notifier for tests and single-node runs. A slow
// subscriber drops events instead of blocking the publisher; receivers
// re-resolve on the next event anyway.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[uuid.UUID]map[int]chan booking.Event
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[uuid.UUID]map[int]chan booking.Event)}
}

func (b *MemoryBus) Publish(_ context.Context, clinicID uuid.UUID, ev booking.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[clinicID] {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, clinicID uuid.UUID) (<-chan booking.Event, func(), error) {
	ch := make(chan booking.Event, 16)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[clinicID] == nil {
		b.subs[clinicID] = make(map[int]chan booking.Event)
	}
	b.subs[clinicID][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if subs, ok := b.subs[clinicID]; ok {
			if _, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel, nil
}
