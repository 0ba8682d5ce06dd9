package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/flight-board/internal/domain"
	apperrors "github.com/spec-kit/flight-board/pkg/util"
)

// memoryFlightRepository is a mutex-guarded in-memory store. It backs the
// service when no POSTGRES_DSN is configured and doubles as the repository
// fake in tests. Uniqueness of flight numbers is enforced under the same
// lock as the insert, so concurrent duplicate inserts cannot both succeed.
type memoryFlightRepository struct {
	mu      sync.RWMutex
	nextID  int64
	flights map[int64]domain.Flight
}

// NewMemoryFlightRepository creates an empty in-memory store.
func NewMemoryFlightRepository() FlightRepository {
	return &memoryFlightRepository{
		nextID:  1,
		flights: make(map[int64]domain.Flight),
	}
}

func (r *memoryFlightRepository) Insert(_ context.Context, flight *domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.flights {
		if existing.FlightNumber == flight.FlightNumber {
			return apperrors.NewConflict("flight number already exists", map[string]any{
				"flight_number": flight.FlightNumber,
			})
		}
	}

	now := time.Now().UTC()
	flight.ID = r.nextID
	r.nextID++
	flight.CreatedAt = now
	flight.UpdatedAt = now
	r.flights[flight.ID] = *flight
	return nil
}

func (r *memoryFlightRepository) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flight, ok := r.flights[id]
	if !ok {
		return nil, apperrors.NewNotFound("flight", map[string]any{"id": id})
	}
	return &flight, nil
}

func (r *memoryFlightRepository) FindInWindow(_ context.Context, start, end time.Time) ([]domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Flight
	for _, flight := range r.flights {
		if flight.DepartureTime.Before(start) || flight.DepartureTime.After(end) {
			continue
		}
		result = append(result, flight)
	}
	sortByDeparture(result)
	return result, nil
}

func (r *memoryFlightRepository) UpdateStatus(_ context.Context, id int64, status domain.FlightStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flight, ok := r.flights[id]
	if !ok {
		return false, nil
	}
	flight.Status = status
	flight.UpdatedAt = time.Now().UTC()
	r.flights[id] = flight
	return true, nil
}

func (r *memoryFlightRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flights[id]; !ok {
		return apperrors.NewNotFound("flight", map[string]any{"id": id})
	}
	delete(r.flights, id)
	return nil
}

func (r *memoryFlightRepository) Search(_ context.Context, filter SearchFilter) ([]domain.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := strings.ToLower(strings.TrimSpace(filter.Status))
	dest := strings.ToLower(strings.TrimSpace(filter.Destination))

	var result []domain.Flight
	for _, flight := range r.flights {
		if status != "" && strings.ToLower(string(flight.Status)) != status {
			continue
		}
		if dest != "" && !strings.Contains(strings.ToLower(flight.Destination), dest) {
			continue
		}
		result = append(result, flight)
	}
	sortByDeparture(result)
	return result, nil
}

func (r *memoryFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.Search(ctx, SearchFilter{})
}

func sortByDeparture(flights []domain.Flight) {
	sort.Slice(flights, func(i, j int) bool {
		if flights[i].DepartureTime.Equal(flights[j].DepartureTime) {
			return flights[i].ID < flights[j].ID
		}
		return flights[i].DepartureTime.Before(flights[j].DepartureTime)
	})
}
