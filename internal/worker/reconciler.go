package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/flight-board/internal/domain"
	"github.com/spec-kit/flight-board/internal/events"
	"github.com/spec-kit/flight-board/internal/observability"
	"github.com/spec-kit/flight-board/internal/repository"
)

// Reconciler periodically re-derives every candidate flight's status and
// broadcasts the ones that changed. It is the only writer of the status
// column after creation. A single instance runs per deployment.
type Reconciler struct {
	flights     repository.FlightRepository
	broadcaster events.Broadcaster
	logger      *zap.Logger
	metrics     *observability.Metrics
	interval    time.Duration
	lookback    time.Duration
	lookahead   time.Duration
	now         func() time.Time
}

// ReconcilerDependencies bundles collaborators for the reconciler.
type ReconcilerDependencies struct {
	FlightRepo  repository.FlightRepository
	Broadcaster events.Broadcaster
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Interval    time.Duration
	Lookback    time.Duration
	Lookahead   time.Duration
	Clock       func() time.Time
}

// NewReconciler constructs the loop. Lookback defaults to 65 minutes: five
// minutes wider than the Departed->Landed threshold, so a flight that
// crossed into Landed stays in the scan window for one extra interval and
// the transition is observed even when a pass was delayed or missed.
func NewReconciler(deps ReconcilerDependencies) *Reconciler {
	interval := deps.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	lookback := deps.Lookback
	if lookback <= 0 {
		lookback = 65 * time.Minute
	}
	lookahead := deps.Lookahead
	if lookahead <= 0 {
		lookahead = 24 * time.Hour
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Reconciler{
		flights:     deps.FlightRepo,
		broadcaster: deps.Broadcaster,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		interval:    interval,
		lookback:    lookback,
		lookahead:   lookahead,
		now:         clock,
	}
}

// Run blocks until ctx is cancelled, executing one reconciliation pass per
// tick. The ticker fires on a fixed cadence regardless of pass duration, so
// a fast pass does not drift the schedule. The first pass runs immediately.
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciler started",
		zap.Duration("interval", r.interval),
		zap.Duration("lookback", r.lookback),
		zap.Duration("lookahead", r.lookahead))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runPass(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.runPass(ctx)
		}
	}
}

// Start runs the loop in a goroutine and returns a stop function that
// cancels it and waits for the current pass to wind down.
func (r *Reconciler) Start(ctx context.Context) (stop func()) {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(runCtx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// runPass executes one scan-and-update cycle. Per-flight failures are
// logged and skipped; only ctx cancellation aborts the pass early.
func (r *Reconciler) runPass(ctx context.Context) {
	start := time.Now()
	now := r.now()

	flights, err := r.flights.FindInWindow(ctx, now.Add(-r.lookback), now.Add(r.lookahead))
	if err != nil {
		r.logger.Error("reconcile fetch failed", zap.Error(err))
		r.countError("reconcile_fetch")
		return
	}

	changed := 0
	for i := range flights {
		if ctx.Err() != nil {
			r.logger.Info("reconcile pass interrupted", zap.Int("remaining", len(flights)-i))
			return
		}
		if r.reconcileFlight(ctx, &flights[i], now) {
			changed++
		}
	}

	if r.metrics != nil {
		r.metrics.ReconcilePasses.Inc()
		r.metrics.ReconcileDuration.Observe(time.Since(start).Seconds())
	}
	if changed > 0 {
		r.logger.Info("reconcile pass complete",
			zap.Int("scanned", len(flights)),
			zap.Int("changed", changed))
	}
}

func (r *Reconciler) reconcileFlight(ctx context.Context, flight *domain.Flight, now time.Time) bool {
	newStatus := domain.ClassifyStatus(flight.DepartureTime, now)
	if newStatus == flight.Status {
		// idle flights generate zero writes and zero broadcast traffic
		return false
	}

	updated, err := r.flights.UpdateStatus(ctx, flight.ID, newStatus)
	if err != nil {
		r.logger.Error("status update failed",
			zap.Int64("flight_id", flight.ID),
			zap.String("flight_number", flight.FlightNumber),
			zap.Error(err))
		r.countError("status_update")
		return false
	}
	if !updated {
		// flight was deleted while this pass was running
		return false
	}

	oldStatus := flight.Status
	flight.Status = newStatus
	flight.UpdatedAt = now

	r.logger.Info("flight status changed",
		zap.Int64("flight_id", flight.ID),
		zap.String("flight_number", flight.FlightNumber),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)))
	if r.metrics != nil {
		r.metrics.StatusTransitions.WithLabelValues(string(newStatus)).Inc()
	}

	r.publish(ctx, events.Event{
		Type:    events.EventFlightStatusUpdated,
		Payload: events.NewFlightPayload(flight),
	})
	return true
}

func (r *Reconciler) publish(ctx context.Context, event events.Event) {
	if r.broadcaster == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = r.now()
	if err := r.broadcaster.Publish(ctx, event); err != nil {
		// persisted status is the source of truth; clients resync on refresh
		r.logger.Warn("broadcast failed", zap.Error(err))
		return
	}
	if r.metrics != nil {
		r.metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
	}
}

func (r *Reconciler) countError(operation string) {
	if r.metrics != nil {
		r.metrics.ErrorsCount.WithLabelValues(operation).Inc()
	}
}
