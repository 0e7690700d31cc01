package notify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnoflow/scheduling/internal/booking"
)

func TestMemoryBusFansOutPerClinic(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	clinicA, clinicB := uuid.New(), uuid.New()

	chA1, cancelA1, err := bus.Subscribe(ctx, clinicA)
	require.NoError(t, err)
	defer cancelA1()
	chA2, cancelA2, err := bus.Subscribe(ctx, clinicA)
	require.NoError(t, err)
	defer cancelA2()
	chB, cancelB, err := bus.Subscribe(ctx, clinicB)
	require.NoError(t, err)
	defer cancelB()

	ev := booking.Event{Type: booking.EventCreated, ClinicID: clinicA, AppointmentID: uuid.New()}
	require.NoError(t, bus.Publish(ctx, clinicA, ev))

	for _, ch := range []<-chan booking.Event{chA1, chA2} {
		select {
		case got := <-ch:
			assert.Equal(t, ev.AppointmentID, got.AppointmentID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}

	select {
	case <-chB:
		t.Fatal("event leaked to another clinic")
	default:
	}
}

func TestMemoryBusCancelClosesChannel(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()
	clinicID := uuid.New()

	ch, cancel, err := bus.Subscribe(ctx, clinicID)
	require.NoError(t, err)

	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Idempotent: a second cancel must not panic on the closed channel.
	cancel()

	// Publishing after cancel reaches nobody but still succeeds.
	require.NoError(t, bus.Publish(ctx, clinicID, booking.Event{Type: booking.EventCancelled, ClinicID: clinicID}))
}

func TestMemoryBusDropsWhenSubscriberIsSlow(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()
	clinicID := uuid.New()

	ch, cancel, err := bus.Subscribe(ctx, clinicID)
	require.NoError(t, err)
	defer cancel()

	// Nobody reads: fill the buffer and then some. Publish must never block.
	for i := 0; i < 64; i++ {
		require.NoError(t, bus.Publish(ctx, clinicID, booking.Event{Type: booking.EventCreated, ClinicID: clinicID}))
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, 16, received, "buffer bounds how much a slow subscriber sees")
}
