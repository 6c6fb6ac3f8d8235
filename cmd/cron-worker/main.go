package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/forno-backend/internal/cron"
	"github.com/angelmondragon/forno-backend/pkg/config"
	"github.com/angelmondragon/forno-backend/pkg/db"
	"github.com/angelmondragon/forno-backend/pkg/instance"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	"github.com/angelmondragon/forno-backend/pkg/metrics"
	"github.com/angelmondragon/forno-backend/pkg/migrate"
	"github.com/angelmondragon/forno-backend/pkg/outbox"
	"github.com/angelmondragon/forno-backend/pkg/redis"
)

const (
	serviceKind   = "cron-worker"
	lockKeyFormat = "forno:cron-worker:lock:%s"
)

func main() {
	os.Exit(run())
}

func run() int {
	once := flag.Bool("once", false, "run a single cycle and exit")
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

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		return 1
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	lock, err := cron.NewKeyLock(redisClient, lockKey(cfg.App.Env), instance.GetID(), lockTTL(cfg.Cron))
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		return 1
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:       logg,
		DB:           dbClient,
		Events:       outbox.NewRepository(dbClient.DB()),
		DeadLetters:  outbox.NewDLQRepository(dbClient.DB()),
		Retention:    cfg.Outbox.RetentionDays,
		DLQRetention: cfg.Outbox.DLQRetentionDays,
		MinAttempts:  cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(ctx, "failed to create outbox retention job", err)
		return 1
	}
	registry, err := cron.NewRegistry(retention)
	if err != nil {
		logg.Error(ctx, "failed to register cron jobs", err)
		return 1
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(promRegistry),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		return 1
	}

	if *once {
		if err := service.RunOnce(ctx); err != nil && !errors.Is(err, cron.ErrCycleSkipped) {
			logg.Error(ctx, "cron cycle failed", err)
			return 1
		}
		return 0
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"serviceKind": serviceKind,
	})
	serveMetrics(ctx, logg, cfg.App.WorkerMetricsAddr, promRegistry)
	logg.Info(logg.WithField(ctx, "jobs", registry.Names()), "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		return 1
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
	return 0
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

// lockTTL outlives a full cycle so a crashed worker frees the lock before the next tick.
func lockTTL(cfg config.CronConfig) time.Duration {
	return cfg.JobTimeout + time.Minute
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
