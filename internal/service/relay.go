package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/flight-board/internal/events"
)

// EventRelay republishes every broadcast event to a Redis pub/sub channel
// so external consumers can follow the board's event stream. Relay failures
// are logged and never surface to the originating operation.
type EventRelay struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewEventRelay creates the relay.
func NewEventRelay(client *redis.Client, channel string, logger *zap.Logger) *EventRelay {
	return &EventRelay{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// RegisterHandlers subscribes the relay to all board events.
func (r *EventRelay) RegisterHandlers(b events.Broadcaster) {
	if b == nil || r.client == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventFlightAdded,
		events.EventFlightDeleted,
		events.EventFlightStatusUpdated,
	} {
		b.Subscribe(eventType, r.relay)
	}
}

func (r *EventRelay) relay(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("relay marshal failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		r.logger.Warn("relay publish failed",
			zap.String("channel", r.channel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}
