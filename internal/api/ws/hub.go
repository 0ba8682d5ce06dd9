package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/flight-board/internal/events"
	"github.com/spec-kit/flight-board/internal/observability"
)

// Frame is the wire envelope delivered to websocket clients.
type Frame struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans broadcast events out to every connected websocket client.
// Delivery is best-effort: a client whose send buffer is full is dropped
// rather than blocking the publisher.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	bufferSize int
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewHub creates a hub with the given per-client buffer size.
func NewHub(bufferSize int, logger *zap.Logger, metrics *observability.Metrics) *Hub {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		bufferSize: bufferSize,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterSubscriptions subscribes the hub to all board events.
func (h *Hub) RegisterSubscriptions(b events.Broadcaster) {
	if b == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventFlightAdded,
		events.EventFlightDeleted,
		events.EventFlightStatusUpdated,
	} {
		b.Subscribe(eventType, h.fanOut)
	}
}

func (h *Hub) fanOut(_ context.Context, event events.Event) error {
	data, err := json.Marshal(Frame{Event: string(event.Type), Payload: event.Payload})
	if err != nil {
		h.logger.Warn("frame marshal failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			// slow consumer: disconnect instead of blocking the publisher
			h.dropLocked(cl)
		}
	}
	return nil
}

// HandleConnection runs the write pump for one websocket connection. It
// blocks until the client disconnects or is dropped.
func (h *Hub) HandleConnection(conn *websocket.Conn) {
	cl := &client{conn: conn, send: make(chan []byte, h.bufferSize)}
	h.add(cl)
	defer h.remove(cl)

	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-disconnected:
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[cl] = struct{}{}
	if h.metrics != nil {
		h.metrics.ConnectedClients.Inc()
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		if h.metrics != nil {
			h.metrics.ConnectedClients.Dec()
		}
	}
	h.mu.Unlock()
	_ = cl.conn.Close()
}

// dropLocked removes a client and closes its send channel. Callers hold the
// hub mutex. Closing the channel makes the client's write pump exit.
func (h *Hub) dropLocked(cl *client) {
	delete(h.clients, cl)
	if h.metrics != nil {
		h.metrics.ConnectedClients.Dec()
	}
	close(cl.send)
	h.logger.Warn("dropped slow websocket client")
}
