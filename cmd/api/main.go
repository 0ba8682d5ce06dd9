package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/flight-board/internal/api/http"
	"github.com/spec-kit/flight-board/internal/api/http/handlers"
	"github.com/spec-kit/flight-board/internal/api/ws"
	"github.com/spec-kit/flight-board/internal/config"
	"github.com/spec-kit/flight-board/internal/events"
	"github.com/spec-kit/flight-board/internal/observability"
	"github.com/spec-kit/flight-board/internal/persistence"
	"github.com/spec-kit/flight-board/internal/repository"
	"github.com/spec-kit/flight-board/internal/service"
	"github.com/spec-kit/flight-board/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("flightboard")

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var flightRepo repository.FlightRepository
	if pool := pg.PoolHandle(); pool != nil {
		flightRepo = repository.NewPostgresFlightRepository(pool)
	} else {
		flightRepo = repository.NewMemoryFlightRepository()
	}

	broadcaster := events.NewInMemoryBroadcaster()

	hub := ws.NewHub(cfg.Broadcast.ClientBufferSize, logger, metrics)
	hub.RegisterSubscriptions(broadcaster)

	relay := service.NewEventRelay(redis.Client, cfg.Broadcast.RedisChannel, logger)
	relay.RegisterHandlers(broadcaster)

	flightService := service.NewFlightService(service.FlightDependencies{
		FlightRepo:  flightRepo,
		Broadcaster: broadcaster,
		Logger:      logger,
		Metrics:     metrics,
	})

	reconciler := worker.NewReconciler(worker.ReconcilerDependencies{
		FlightRepo:  flightRepo,
		Broadcaster: broadcaster,
		Logger:      logger,
		Metrics:     metrics,
		Interval:    cfg.Reconciler.Interval(),
		Lookback:    cfg.Reconciler.Lookback(),
		Lookahead:   cfg.Reconciler.Lookahead(),
	})
	stopReconciler := reconciler.Start(ctx)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	flightsHandler := handlers.NewFlightsHandler(flightService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Flights: flightsHandler,
		Hub:     hub,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	stopReconciler()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
