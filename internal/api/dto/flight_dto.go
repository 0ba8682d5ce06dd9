package dto

import (
	"time"

	"github.com/spec-kit/flight-board/internal/domain"
)

// CreateFlightRequest payload.
type CreateFlightRequest struct {
	FlightNumber  string    `json:"flight_number"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	Gate          string    `json:"gate"`
}

// FlightResponse response.
type FlightResponse struct {
	ID            int64               `json:"id"`
	FlightNumber  string              `json:"flight_number"`
	Destination   string              `json:"destination"`
	DepartureTime time.Time           `json:"departure_time"`
	Gate          string              `json:"gate"`
	Status        domain.FlightStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// FromFlight maps a domain record to its response shape.
func FromFlight(flight *domain.Flight) FlightResponse {
	return FlightResponse{
		ID:            flight.ID,
		FlightNumber:  flight.FlightNumber,
		Destination:   flight.Destination,
		DepartureTime: flight.DepartureTime,
		Gate:          flight.Gate,
		Status:        flight.Status,
		CreatedAt:     flight.CreatedAt,
		UpdatedAt:     flight.UpdatedAt,
	}
}
