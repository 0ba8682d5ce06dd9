package events

import (
	"time"

	"github.com/spec-kit/flight-board/internal/domain"
)

// EventType enumerates supported event identifiers. The names double as the
// frame names delivered to websocket subscribers.
type EventType string

const (
	EventFlightAdded         EventType = "FlightAdded"
	EventFlightDeleted       EventType = "FlightDeleted"
	EventFlightStatusUpdated EventType = "FlightStatusUpdated"
)

// Event represents a domain event emitted after a successful mutation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// FlightPayload carries the full flight record for FlightAdded and
// FlightStatusUpdated events.
type FlightPayload struct {
	ID            int64               `json:"id"`
	FlightNumber  string              `json:"flight_number"`
	Destination   string              `json:"destination"`
	DepartureTime time.Time           `json:"departure_time"`
	Gate          string              `json:"gate"`
	Status        domain.FlightStatus `json:"status"`
}

// FlightDeletedPayload carries only the removed flight's id.
type FlightDeletedPayload struct {
	ID int64 `json:"id"`
}

// NewFlightPayload builds the wire payload from a domain record.
func NewFlightPayload(flight *domain.Flight) FlightPayload {
	return FlightPayload{
		ID:            flight.ID,
		FlightNumber:  flight.FlightNumber,
		Destination:   flight.Destination,
		DepartureTime: flight.DepartureTime,
		Gate:          flight.Gate,
		Status:        flight.Status,
	}
}
