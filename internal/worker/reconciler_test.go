package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/flight-board/internal/domain"
	"github.com/spec-kit/flight-board/internal/events"
	"github.com/spec-kit/flight-board/internal/repository"
)

type capturedEvents struct {
	events []events.Event
}

func (c *capturedEvents) record(_ context.Context, e events.Event) error {
	c.events = append(c.events, e)
	return nil
}

func subscribeAll(b events.Broadcaster, c *capturedEvents) {
	for _, eventType := range []events.EventType{
		events.EventFlightAdded,
		events.EventFlightDeleted,
		events.EventFlightStatusUpdated,
	} {
		b.Subscribe(eventType, c.record)
	}
}

// countingRepo tracks status writes on top of a real repository.
type countingRepo struct {
	repository.FlightRepository
	statusWrites int
}

func (r *countingRepo) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (bool, error) {
	r.statusWrites++
	return r.FlightRepository.UpdateStatus(ctx, id, status)
}

func seedFlight(t *testing.T, repo repository.FlightRepository, number string, departure time.Time, status domain.FlightStatus) *domain.Flight {
	t.Helper()
	flight := &domain.Flight{
		FlightNumber:  number,
		Destination:   "Paris",
		DepartureTime: departure,
		Gate:          "B4",
		Status:        status,
	}
	require.NoError(t, repo.Insert(context.Background(), flight))
	return flight
}

func newTestReconciler(repo repository.FlightRepository, clock func() time.Time) (*Reconciler, *capturedEvents) {
	broadcaster := events.NewInMemoryBroadcaster()
	captured := &capturedEvents{}
	subscribeAll(broadcaster, captured)
	r := NewReconciler(ReconcilerDependencies{
		FlightRepo:  repo,
		Broadcaster: broadcaster,
		Logger:      zap.NewNop(),
		Interval:    time.Millisecond,
		Clock:       clock,
	})
	return r, captured
}

func TestPassPersistsAndBroadcastsTransition(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryFlightRepository()
	flight := seedFlight(t, repo, "LY315", base.Add(10*time.Minute), domain.StatusBoarding)

	now := base.Add(35 * time.Minute)
	r, captured := newTestReconciler(repo, func() time.Time { return now })
	r.runPass(context.Background())

	stored, err := repo.GetByID(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeparted, stored.Status)

	require.Len(t, captured.events, 1)
	assert.Equal(t, events.EventFlightStatusUpdated, captured.events[0].Type)
	payload, ok := captured.events[0].Payload.(events.FlightPayload)
	require.True(t, ok)
	assert.Equal(t, flight.ID, payload.ID)
	assert.Equal(t, domain.StatusDeparted, payload.Status)
}

func TestSecondImmediatePassIsIdempotent(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	inner := repository.NewMemoryFlightRepository()
	repo := &countingRepo{FlightRepository: inner}
	seedFlight(t, repo, "LY315", base.Add(10*time.Minute), domain.StatusBoarding)
	seedFlight(t, repo, "LH441", base.Add(5*time.Hour), domain.StatusScheduled)

	now := base.Add(35 * time.Minute)
	r, captured := newTestReconciler(repo, func() time.Time { return now })

	r.runPass(context.Background())
	writesAfterFirst := repo.statusWrites
	eventsAfterFirst := len(captured.events)

	r.runPass(context.Background())
	assert.Equal(t, writesAfterFirst, repo.statusWrites, "second pass must not write")
	assert.Equal(t, eventsAfterFirst, len(captured.events), "second pass must not broadcast")
}

func TestUnchangedFlightsGenerateNoTraffic(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	inner := repository.NewMemoryFlightRepository()
	repo := &countingRepo{FlightRepository: inner}
	seedFlight(t, repo, "LH441", base.Add(5*time.Hour), domain.StatusScheduled)

	r, captured := newTestReconciler(repo, func() time.Time { return base })
	r.runPass(context.Background())

	assert.Zero(t, repo.statusWrites)
	assert.Empty(t, captured.events)
}

func TestLandedTransitionStaysObservableAfterDelayedPass(t *testing.T) {
	// Departure 64 minutes ago: already past the Departed->Landed threshold,
	// but still inside the 65-minute lookback. Even if the previous pass was
	// missed by a full interval, this pass must observe the transition.
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryFlightRepository()
	flight := seedFlight(t, repo, "LY315", base.Add(-64*time.Minute), domain.StatusDeparted)

	r, captured := newTestReconciler(repo, func() time.Time { return base })
	r.runPass(context.Background())

	stored, err := repo.GetByID(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLanded, stored.Status)
	require.Len(t, captured.events, 1)
	assert.Equal(t, events.EventFlightStatusUpdated, captured.events[0].Type)
}

func TestFlightOutsideLookbackIsIgnored(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	inner := repository.NewMemoryFlightRepository()
	repo := &countingRepo{FlightRepository: inner}
	seedFlight(t, repo, "LY315", base.Add(-66*time.Minute), domain.StatusDeparted)

	r, captured := newTestReconciler(repo, func() time.Time { return base })
	r.runPass(context.Background())

	assert.Zero(t, repo.statusWrites)
	assert.Empty(t, captured.events)
}

// raceRepo serves a flight from the window scan but reports it gone on
// update, simulating a delete landing between fetch and write.
type raceRepo struct {
	repository.FlightRepository
}

func (r *raceRepo) UpdateStatus(context.Context, int64, domain.FlightStatus) (bool, error) {
	return false, nil
}

func TestConcurrentDeleteIsSwallowed(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	inner := repository.NewMemoryFlightRepository()
	seedFlight(t, inner, "LY315", base.Add(10*time.Minute), domain.StatusBoarding)

	now := base.Add(35 * time.Minute)
	r, captured := newTestReconciler(&raceRepo{FlightRepository: inner}, func() time.Time { return now })
	r.runPass(context.Background())

	assert.Empty(t, captured.events, "a vanished flight must not broadcast")
}

// flakyRepo fails status writes for one flight id.
type flakyRepo struct {
	repository.FlightRepository
	failID int64
}

func (r *flakyRepo) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) (bool, error) {
	if id == r.failID {
		return false, errors.New("connection reset")
	}
	return r.FlightRepository.UpdateStatus(ctx, id, status)
}

func TestStoreFailureDoesNotAbortPass(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	inner := repository.NewMemoryFlightRepository()
	broken := seedFlight(t, inner, "LY315", base.Add(5*time.Minute), domain.StatusBoarding)
	healthy := seedFlight(t, inner, "LH441", base.Add(10*time.Minute), domain.StatusBoarding)

	now := base.Add(35 * time.Minute)
	r, captured := newTestReconciler(&flakyRepo{FlightRepository: inner, failID: broken.ID}, func() time.Time { return now })
	r.runPass(context.Background())

	stored, err := inner.GetByID(context.Background(), healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeparted, stored.Status, "pass must continue past a failing flight")
	require.Len(t, captured.events, 1)
	payload := captured.events[0].Payload.(events.FlightPayload)
	assert.Equal(t, healthy.ID, payload.ID)
}

func TestCancelledContextAbortsPassBeforeNextFlight(t *testing.T) {
	base := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	inner := repository.NewMemoryFlightRepository()
	repo := &countingRepo{FlightRepository: inner}
	seedFlight(t, repo, "LY315", base.Add(5*time.Minute), domain.StatusBoarding)
	seedFlight(t, repo, "LH441", base.Add(10*time.Minute), domain.StatusBoarding)

	now := base.Add(35 * time.Minute)
	r, _ := newTestReconciler(repo, func() time.Time { return now })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.runPass(ctx)

	assert.Zero(t, repo.statusWrites, "no flight should start processing after cancellation")
}

func TestStartStopsPromptly(t *testing.T) {
	repo := repository.NewMemoryFlightRepository()
	r, _ := newTestReconciler(repo, func() time.Time { return time.Now().UTC() })

	stop := r.Start(context.Background())

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not stop in time")
	}
}
