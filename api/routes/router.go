package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/forno-backend/api/controllers"
	"github.com/angelmondragon/forno-backend/api/middleware"
	"github.com/angelmondragon/forno-backend/internal/catalog"
	"github.com/angelmondragon/forno-backend/internal/orders"
	"github.com/angelmondragon/forno-backend/pkg/config"
	"github.com/angelmondragon/forno-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/forno-backend/pkg/redis"
)

// KeyValueStore backs idempotency replay and rate limiting. Both the Redis client and the
// in-memory session backend satisfy it.
type KeyValueStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Deps groups what the HTTP surface needs. Optional entries may be nil: Orders when running
// offline, Assistant when tools are disabled, Metrics when no registry is exposed.
type Deps struct {
	Sessions    controllers.SessionManager
	Catalog     catalog.Service
	Orders      orders.Service
	Assistant   controllers.ToolDispatcher
	KV          KeyValueStore
	Readiness   map[string]controllers.Pinger
	HTTPMetrics middleware.HTTPObserver
	Metrics     http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	createPolicy := middleware.NewRateLimitPolicy(
		"session-create",
		cfg.Session.RateLimitWindow,
		cfg.Session.RateLimit,
		0,
	)
	sessionPolicy := middleware.NewRateLimitPolicy(
		"session",
		cfg.Session.RateLimitWindow,
		0,
		cfg.Session.RateLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", controllers.CatalogMenu(deps.Catalog, logg))
		r.Get("/orders/{orderId}", controllers.OrderFetch(deps.Orders, logg))
		r.With(middleware.RateLimit(createPolicy, deps.KV, logg)).Post("/session", controllers.SessionCreate(deps.Sessions, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionContext(logg))
			r.Use(middleware.RateLimit(sessionPolicy, deps.KV, logg))
			r.Use(middleware.Idempotency(deps.KV, logg))

			r.Get("/session", controllers.SessionFetch(deps.Sessions, logg))
			r.Put("/session/mode", controllers.SessionSetMode(deps.Sessions, logg))
			r.Post("/session/reset", controllers.SessionReset(deps.Sessions, logg))
			r.Get("/session/orders", controllers.SessionOrders(deps.Sessions, deps.Orders, logg))

			r.Post("/session/cart/lines", controllers.CartAddLine(deps.Sessions, deps.Catalog, logg))
			r.Patch("/session/cart/lines/{index}", controllers.CartUpdateLine(deps.Sessions, logg))
			r.Delete("/session/cart/lines/{index}", controllers.CartRemoveLine(deps.Sessions, logg))
			r.Delete("/session/cart", controllers.CartClear(deps.Sessions, logg))

			r.Post("/session/coupon", controllers.CouponApply(deps.Sessions, logg))
			r.Delete("/session/coupon", controllers.CouponRemove(deps.Sessions, logg))
			r.Post("/session/delivery/quote", controllers.DeliveryQuote(deps.Sessions, logg))

			r.Post("/session/checkout", controllers.CheckoutSubmit(deps.Sessions, logg))
			r.Post("/session/checkout/recover", controllers.CheckoutRecover(deps.Sessions, logg))
			r.Post("/session/checkout/handoff", controllers.CheckoutHandoff(deps.Sessions, logg))

			r.Post("/assistant/tools/{tool}", controllers.AssistantTool(deps.Assistant, logg))
		})
	})

	return r
}
