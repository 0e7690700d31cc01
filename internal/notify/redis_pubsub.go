package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/turnoflow/scheduling/internal/booking"
)

// RedisNotifier fans events out over Redis pub/sub so subscribers on other
// nodes see them. Messages published while a subscriber is disconnected are
// lost; the cache TTL bounds the resulting staleness.
type RedisNotifier struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisNotifier(client *redis.Client, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, log: log}
}

func channelFor(clinicID uuid.UUID) string {
	return fmt.Sprintf("clinic:%s:events", clinicID)
}

func (n *RedisNotifier) Publish(ctx context.Context, clinicID uuid.UUID, ev booking.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, channelFor(clinicID), payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channelFor(clinicID), err)
	}
	return nil
}

func (n *RedisNotifier) Subscribe(ctx context.Context, clinicID uuid.UUID) (<-chan booking.Event, func(), error) {
	sub := n.client.Subscribe(ctx, channelFor(clinicID))
	// Force the subscription onto the wire before handing out the channel.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe to %s: %w", channelFor(clinicID), err)
	}

	out := make(chan booking.Event, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev booking.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				n.log.Warn("dropping malformed event",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		if err := sub.Close(); err != nil {
			n.log.Warn("closing subscription", zap.Error(err))
		}
	}
	return out, cancel, nil
}
