package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/forno-backend/api/controllers"
	"github.com/angelmondragon/forno-backend/api/routes"
	"github.com/angelmondragon/forno-backend/api/validators"
	"github.com/angelmondragon/forno-backend/internal/assistant"
	"github.com/angelmondragon/forno-backend/internal/catalog"
	"github.com/angelmondragon/forno-backend/internal/checkout"
	"github.com/angelmondragon/forno-backend/internal/coupons"
	"github.com/angelmondragon/forno-backend/internal/delivery"
	"github.com/angelmondragon/forno-backend/internal/orders"
	"github.com/angelmondragon/forno-backend/internal/pricing"
	"github.com/angelmondragon/forno-backend/internal/session"
	"github.com/angelmondragon/forno-backend/pkg/config"
	"github.com/angelmondragon/forno-backend/pkg/db"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	"github.com/angelmondragon/forno-backend/pkg/metrics"
	"github.com/angelmondragon/forno-backend/pkg/migrate"
	"github.com/angelmondragon/forno-backend/pkg/outbox"
	"github.com/angelmondragon/forno-backend/pkg/redis"
)

// sources are the data-facing dependencies of checkout. Online they are backed by Postgres
// and Redis; offline by JSON files and process memory.
type sources struct {
	catalog   catalog.Service
	regions   checkout.RegionSource
	coupons   coupons.Lookup
	writer    orders.Writer
	orders    orders.Service
	kv        routes.KeyValueStore
	store     *session.Store
	readiness map[string]controllers.Pinger

	db    *db.Client
	redis *redis.Client
}

func (s *sources) Close() error {
	var errs error
	if s.redis != nil {
		errs = multierr.Append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = multierr.Append(errs, s.db.Close())
	}
	return errs
}

func openOnline(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*sources, error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	src := &sources{db: dbClient}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return nil, multierr.Append(fmt.Errorf("run dev migrations: %w", err), src.Close())
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("bootstrap redis: %w", err), src.Close())
	}
	src.redis = redisClient

	src.catalog, err = catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return nil, multierr.Append(err, src.Close())
	}
	src.regions = delivery.NewRepository(dbClient.DB())
	src.coupons = coupons.NewCachedLookup(coupons.NewRepository(dbClient.DB()), redisClient, cfg.Coupons.CacheTTL, logg)

	ordersRepo := orders.NewRepository(dbClient.DB())
	if cfg.Outbox.Enabled {
		events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
		src.writer, err = orders.NewOutboxWriter(dbClient, ordersRepo, events)
	} else {
		src.writer, err = orders.NewWriter(ordersRepo)
	}
	if err != nil {
		return nil, multierr.Append(err, src.Close())
	}
	if src.orders, err = orders.NewService(ordersRepo); err != nil {
		return nil, multierr.Append(err, src.Close())
	}

	src.kv = redisClient
	if src.store, err = session.NewStore(redisClient, cfg.Session.TTL); err != nil {
		return nil, multierr.Append(err, src.Close())
	}
	src.readiness = map[string]controllers.Pinger{"postgres": dbClient, "redis": redisClient}
	return src, nil
}

func openOffline(cfg *config.Config, logg *logger.Logger) (*sources, error) {
	if cfg.Store.MenuFile == "" {
		return nil, fmt.Errorf("offline mode requires %s", config.EnvMenuFile)
	}
	menu, err := catalog.LoadMenuFile(cfg.Store.MenuFile)
	if err != nil {
		return nil, err
	}

	regions := delivery.NewStaticSource(nil)
	if cfg.Store.RegionsFile != "" {
		if regions, err = delivery.LoadFile(cfg.Store.RegionsFile); err != nil {
			return nil, err
		}
	}

	registry, err := coupons.ParseStatic(cfg.Coupons.Static)
	if err != nil {
		return nil, err
	}

	memory := session.NewMemory()
	store, err := session.NewStore(memory, cfg.Session.TTL)
	if err != nil {
		return nil, err
	}

	logg.Warn(logg.WithFields(context.Background(), map[string]any{
		"coupons": registry.Len(),
		"menu":    cfg.Store.MenuFile,
	}), "offline mode: orders are not persisted")

	return &sources{
		catalog:   menu,
		regions:   regions,
		coupons:   registry,
		writer:    orders.NewNoopWriter(),
		kv:        memory,
		store:     store,
		readiness: map[string]controllers.Pinger{},
	}, nil
}

func buildDeps(cfg *config.Config, logg *logger.Logger, src *sources) (*routes.Deps, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	validator, err := coupons.NewValidator(src.coupons)
	if err != nil {
		return nil, err
	}

	svc, err := checkout.NewService(checkout.ServiceParams{
		Writer:  src.writer,
		Coupons: validator,
		Regions: src.regions,
		Store: checkout.StoreInfo{
			Name:             cfg.Store.Name,
			Phone:            cfg.Store.Phone,
			CountryCode:      cfg.Store.CountryCode,
			MessagingBaseURL: cfg.Store.MessagingBaseURL,
		},
		FreeShipping: pricing.FreeShippingPolicy{
			Always:  cfg.Store.FreeShipping,
			Minimum: cfg.Store.FreeShippingMinimum,
		},
		PersistTimeout:    cfg.Checkout.PersistTimeout,
		BackgroundTimeout: cfg.Checkout.BackgroundTimeout,
		RecentLimit:       cfg.Checkout.RecentOrdersLimit,
		PlaceholderPrefix: cfg.Checkout.PlaceholderPrefix,
		Logger:            logg,
		Metrics:           metrics.NewCheckoutMetrics(registry),
	})
	if err != nil {
		return nil, fmt.Errorf("checkout service: %w", err)
	}

	mgr, err := session.NewManager(src.store, svc, cfg.Checkout.LockTTL, logg)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	deps := &routes.Deps{
		Sessions:    mgr,
		Catalog:     src.catalog,
		Orders:      src.orders,
		KV:          src.kv,
		Readiness:   src.readiness,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if cfg.FeatureFlags.AssistantTools {
		dispatcher, err := assistant.NewDispatcher(mgr, src.catalog, validators.DecodeJSON, logg)
		if err != nil {
			return nil, fmt.Errorf("assistant dispatcher: %w", err)
		}
		deps.Assistant = dispatcher
	}
	return deps, nil
}
