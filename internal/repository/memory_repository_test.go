package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/flight-board/internal/domain"
	apperrors "github.com/spec-kit/flight-board/pkg/util"
)

func newFlight(number, destination string, departure time.Time) *domain.Flight {
	return &domain.Flight{
		FlightNumber:  number,
		Destination:   destination,
		DepartureTime: departure,
		Gate:          "A1",
		Status:        domain.StatusScheduled,
	}
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	repo := NewMemoryFlightRepository()
	ctx := context.Background()
	departure := time.Now().UTC().Add(2 * time.Hour)

	first := newFlight("LY001", "Paris", departure)
	second := newFlight("LY002", "Berlin", departure)
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestInsertRejectsDuplicateFlightNumber(t *testing.T) {
	repo := NewMemoryFlightRepository()
	ctx := context.Background()
	departure := time.Now().UTC().Add(2 * time.Hour)

	require.NoError(t, repo.Insert(ctx, newFlight("LY001", "Paris", departure)))

	err := repo.Insert(ctx, newFlight("LY001", "Berlin", departure))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestInsertAfterDeleteReleasesFlightNumber(t *testing.T) {
	repo := NewMemoryFlightRepository()
	ctx := context.Background()
	departure := time.Now().UTC().Add(2 * time.Hour)

	flight := newFlight("LY001", "Paris", departure)
	require.NoError(t, repo.Insert(ctx, flight))
	require.NoError(t, repo.Delete(ctx, flight.ID))

	require.NoError(t, repo.Insert(ctx, newFlight("LY001", "Rome", departure)))
}

func TestFindInWindowBoundsAreInclusive(t *testing.T) {
	repo := NewMemoryFlightRepository()
	ctx := context.Background()
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	onStart := newFlight("LY001", "Paris", base)
	inside := newFlight("LY002", "Berlin", base.Add(time.Hour))
	onEnd := newFlight("LY003", "Rome", base.Add(2*time.Hour))
	outside := newFlight("LY004", "Oslo", base.Add(2*time.Hour+time.Second))
	for _, f := range []*domain.Flight{onStart, inside, onEnd, outside} {
		require.NoError(t, repo.Insert(ctx, f))
	}

	found, err := repo.FindInWindow(ctx, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "LY001", found[0].FlightNumber)
	assert.Equal(t, "LY002", found[1].FlightNumber)
	assert.Equal(t, "LY003", found[2].FlightNumber)
}

func TestUpdateStatusOnMissingFlightIsNoOp(t *testing.T) {
	repo := NewMemoryFlightRepository()

	updated, err := repo.UpdateStatus(context.Background(), 42, domain.StatusLanded)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDeleteMissingFlightReturnsNotFound(t *testing.T) {
	repo := NewMemoryFlightRepository()

	err := repo.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSearchFilters(t *testing.T) {
	repo := NewMemoryFlightRepository()
	ctx := context.Background()
	departure := time.Now().UTC().Add(2 * time.Hour)

	paris := newFlight("LY001", "Paris", departure)
	berlin := newFlight("LY002", "Berlin", departure.Add(time.Minute))
	berlin.Status = domain.StatusBoarding
	require.NoError(t, repo.Insert(ctx, paris))
	require.NoError(t, repo.Insert(ctx, berlin))

	t.Run("destination substring is case-insensitive", func(t *testing.T) {
		found, err := repo.Search(ctx, SearchFilter{Destination: "PAR"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Paris", found[0].Destination)
	})

	t.Run("status equality is case-insensitive", func(t *testing.T) {
		found, err := repo.Search(ctx, SearchFilter{Status: "boarding"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "LY002", found[0].FlightNumber)
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		found, err := repo.Search(ctx, SearchFilter{Status: "boarding", Destination: "par"})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		found, err := repo.Search(ctx, SearchFilter{})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})
}
