package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/forno-backend/pkg/config"
	"github.com/angelmondragon/forno-backend/pkg/db"
	"github.com/angelmondragon/forno-backend/pkg/instance"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	"github.com/angelmondragon/forno-backend/pkg/metrics"
	"github.com/angelmondragon/forno-backend/pkg/migrate"
	"github.com/angelmondragon/forno-backend/pkg/outbox"
	"github.com/angelmondragon/forno-backend/pkg/outbox/registry"
	"github.com/angelmondragon/forno-backend/pkg/pubsub"
)

const serviceKind = "outbox-publisher"

func main() {
	os.Exit(run())
}

func run() int {
	requeue := flag.String("requeue", "", "move the dead-lettered event with this id back to the outbox and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return 1
	}
	if err := cfg.RequirePublisher(); err != nil {
		logg.Error(context.Background(), "invalid publisher config", err)
		return 1
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"instance": instance.GetID(), "env": cfg.App.Env},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		return 1
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		return 1
	}

	if *requeue != "" {
		return requeueDeadLetter(ctx, logg, dbClient, *requeue)
	}

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		logg.Error(ctx, "failed to build event registry", err)
		return 1
	}

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, eventRegistry.Topics(), logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		return 1
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	service, err := NewService(ServiceParams{
		Config:        cfg.Outbox,
		Logger:        logg,
		Metrics:       metrics.NewOutboxMetrics(promRegistry),
		DB:            dbClient,
		PubSub:        pubsubClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(ctx, "failed to create outbox publisher", err)
		return 1
	}
	defer service.Close()

	ctx = logg.WithFields(ctx, map[string]any{
		"serviceKind": serviceKind,
	})
	serveMetrics(ctx, logg, cfg.App.WorkerMetricsAddr, promRegistry)
	logg.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		return 1
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
	return 0
}

func requeueDeadLetter(ctx context.Context, logg *logger.Logger, dbClient *db.Client, rawID string) int {
	eventID, err := uuid.Parse(rawID)
	if err != nil {
		logg.Error(ctx, "invalid -requeue event id", err)
		return 2
	}
	ctx = logg.WithField(ctx, "event_id", eventID.String())
	err = dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return outbox.NewDLQRepository(tx).Requeue(ctx, tx, eventID)
	})
	if err != nil {
		logg.Error(ctx, "failed to requeue dead letter", err)
		return 1
	}
	logg.Info(ctx, "dead letter requeued")
	return 0
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string, gatherer prometheus.Gatherer) {
	if addr == "" {
		return
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
