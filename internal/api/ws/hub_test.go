package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/flight-board/internal/events"
)

func TestFanOutWithNoClients(t *testing.T) {
	hub := NewHub(4, zap.NewNop(), nil)
	broadcaster := events.NewInMemoryBroadcaster()
	hub.RegisterSubscriptions(broadcaster)

	err := broadcaster.Publish(context.Background(), events.Event{
		Type:    events.EventFlightAdded,
		Payload: events.FlightDeletedPayload{ID: 1},
	})
	require.NoError(t, err)
	assert.Zero(t, hub.ClientCount())
}

func TestFanOutDeliversFrames(t *testing.T) {
	hub := NewHub(4, zap.NewNop(), nil)
	cl := &client{send: make(chan []byte, 4)}
	hub.clients[cl] = struct{}{}

	err := hub.fanOut(context.Background(), events.Event{
		Type:    events.EventFlightStatusUpdated,
		Payload: events.FlightDeletedPayload{ID: 7},
	})
	require.NoError(t, err)

	require.Len(t, cl.send, 1)
	var frame Frame
	require.NoError(t, json.Unmarshal(<-cl.send, &frame))
	assert.Equal(t, "FlightStatusUpdated", frame.Event)
}

func TestFanOutDropsSlowClient(t *testing.T) {
	hub := NewHub(1, zap.NewNop(), nil)
	slow := &client{send: make(chan []byte, 1)}
	hub.clients[slow] = struct{}{}

	event := events.Event{Type: events.EventFlightAdded, Payload: events.FlightDeletedPayload{ID: 1}}
	require.NoError(t, hub.fanOut(context.Background(), event))
	require.NoError(t, hub.fanOut(context.Background(), event))

	assert.Zero(t, hub.ClientCount(), "a client with a full buffer is dropped")
	_, open := <-slow.send
	assert.True(t, open, "buffered frame is still readable")
	_, open = <-slow.send
	assert.False(t, open, "send channel is closed after drop")
}
