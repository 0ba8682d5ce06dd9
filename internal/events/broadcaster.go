package events

import (
	"context"
	"sync"
)

// Handler handles a published event.
type Handler func(context.Context, Event) error

// Broadcaster fans a named event out to every current subscriber. Delivery
// is best-effort: a handler error never propagates back to the publisher.
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler)
}

// inMemoryBroadcaster is a simple synchronous fan-out.
type inMemoryBroadcaster struct {
	mu        sync.RWMutex
	listeners map[EventType][]Handler
}

// NewInMemoryBroadcaster creates a broadcaster instance.
func NewInMemoryBroadcaster() Broadcaster {
	return &inMemoryBroadcaster{
		listeners: make(map[EventType][]Handler),
	}
}

// Publish synchronously invokes handlers for the given event. Handlers for
// one flight's event run in registration order; handler failures are
// swallowed so that every subscriber gets a delivery attempt.
func (b *inMemoryBroadcaster) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler{}, b.listeners[event.Type]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (b *inMemoryBroadcaster) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventType] = append(b.listeners[eventType], handler)
}
