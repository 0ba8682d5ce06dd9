package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/flight-board/internal/domain"
	"github.com/spec-kit/flight-board/internal/events"
	"github.com/spec-kit/flight-board/internal/observability"
	"github.com/spec-kit/flight-board/internal/repository"
	apperrors "github.com/spec-kit/flight-board/pkg/util"
)

// FlightService coordinates flight lifecycle workflows. Every mutation that
// changes visible board state emits exactly one broadcast event, published
// only after the repository write succeeded. Reads return the persisted
// status as-is: it may lag the classifier by at most one reconciliation
// interval and is never recomputed lazily.
type FlightService struct {
	flights     repository.FlightRepository
	broadcaster events.Broadcaster
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// FlightDependencies bundles collaborators for the flight service.
type FlightDependencies struct {
	FlightRepo  repository.FlightRepository
	Broadcaster events.Broadcaster
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Clock       func() time.Time
}

// FlightCreateInput describes flight creation payload.
type FlightCreateInput struct {
	FlightNumber  string
	Destination   string
	DepartureTime time.Time
	Gate          string
}

// NewFlightService constructs the service.
func NewFlightService(deps FlightDependencies) *FlightService {
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &FlightService{
		flights:     deps.FlightRepo,
		broadcaster: deps.Broadcaster,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		now:         clock,
	}
}

// AddFlight validates and persists a new flight, then broadcasts FlightAdded.
func (s *FlightService) AddFlight(ctx context.Context, input FlightCreateInput) (*domain.Flight, error) {
	number := strings.TrimSpace(input.FlightNumber)
	destination := strings.TrimSpace(input.Destination)
	gate := strings.TrimSpace(input.Gate)

	missing := map[string]any{}
	if number == "" {
		missing["flight_number"] = "required"
	}
	if destination == "" {
		missing["destination"] = "required"
	}
	if gate == "" {
		missing["gate"] = "required"
	}
	if input.DepartureTime.IsZero() {
		missing["departure_time"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", missing)
	}

	now := s.now()
	if !input.DepartureTime.After(now) {
		return nil, apperrors.NewValidationError("departure time must be in the future", map[string]any{
			"departure_time": input.DepartureTime,
		})
	}

	flight := &domain.Flight{
		FlightNumber:  number,
		Destination:   destination,
		DepartureTime: input.DepartureTime.UTC(),
		Gate:          gate,
		Status:        domain.ClassifyStatus(input.DepartureTime, now),
	}

	if err := s.flights.Insert(ctx, flight); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventFlightAdded,
		Payload: events.NewFlightPayload(flight),
	})
	return flight, nil
}

// DeleteFlight removes a flight and broadcasts FlightDeleted.
func (s *FlightService) DeleteFlight(ctx context.Context, id int64) error {
	if err := s.flights.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventFlightDeleted,
		Payload: events.FlightDeletedPayload{ID: id},
	})
	return nil
}

// SearchFlights returns flights matching the optional filters. Read-only,
// no event side effect.
func (s *FlightService) SearchFlights(ctx context.Context, filter repository.SearchFilter) ([]domain.Flight, error) {
	return s.flights.Search(ctx, filter)
}

// ListFlights returns every flight on the board.
func (s *FlightService) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	return s.flights.List(ctx)
}

func (s *FlightService) publishEvent(ctx context.Context, event events.Event) {
	if s.broadcaster == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.broadcaster.Publish(ctx, event); err != nil {
		// the write is the source of truth; a lost broadcast is tolerated
		if s.logger != nil {
			s.logger.Warn("broadcast failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
		return
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
	}
}
