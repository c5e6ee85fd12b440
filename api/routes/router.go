package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tavolapos/tavola-backend/api/controllers"
	catalogcontrollers "github.com/tavolapos/tavola-backend/api/controllers/catalog"
	inventorycontrollers "github.com/tavolapos/tavola-backend/api/controllers/inventory"
	ordercontrollers "github.com/tavolapos/tavola-backend/api/controllers/orders"
	paymentcontrollers "github.com/tavolapos/tavola-backend/api/controllers/payments"
	tablecontrollers "github.com/tavolapos/tavola-backend/api/controllers/tables"
	"github.com/tavolapos/tavola-backend/api/middleware"
	internalcatalog "github.com/tavolapos/tavola-backend/internal/catalog"
	"github.com/tavolapos/tavola-backend/internal/inventory"
	"github.com/tavolapos/tavola-backend/internal/orders"
	"github.com/tavolapos/tavola-backend/internal/payments"
	"github.com/tavolapos/tavola-backend/internal/tables"
	"github.com/tavolapos/tavola-backend/pkg/config"
	"github.com/tavolapos/tavola-backend/pkg/db"
	"github.com/tavolapos/tavola-backend/pkg/logger"
	"github.com/tavolapos/tavola-backend/pkg/metrics"
	"github.com/tavolapos/tavola-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	catalogReader internalcatalog.Reader,
	ordersService orders.Service,
	inventoryService inventory.Service,
	paymentsService payments.Service,
	tablesRepo tables.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	publicOrdersPolicy := middleware.NewRateLimitPolicy(
		"public_orders",
		cfg.PublicOrders.RateLimitWindow,
		cfg.PublicOrders.RateLimitPerIP,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger(redisClient)))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public/v1", func(r chi.Router) {
		r.Get("/products", catalogcontrollers.Menu(catalogReader, logg))
		r.Get("/categories", catalogcontrollers.Categories(catalogReader, logg))
		r.With(middleware.RateLimit(publicOrdersPolicy, limiterStore(redisClient), logg)).
			Post("/orders", ordercontrollers.PublicCreate(ordersService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersService, logg))
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(ordersService, logg))
			r.Get("/{orderId}/payment", paymentcontrollers.GetByOrder(paymentsService, logg))
		})

		r.Post("/payments", paymentcontrollers.Settle(paymentsService, logg))

		r.Get("/tables", tablecontrollers.List(tablesRepo, logg))

		r.Route("/ingredients", func(r chi.Router) {
			r.Post("/", inventorycontrollers.CreateIngredient(inventoryService, logg))
			r.Get("/", inventorycontrollers.ListIngredients(inventoryService, logg))
			r.Get("/{ingredientId}", inventorycontrollers.GetIngredient(inventoryService, logg))
			r.Patch("/{ingredientId}", inventorycontrollers.UpdateIngredient(inventoryService, logg))
		})

		r.Route("/stock", func(r chi.Router) {
			r.Post("/", inventorycontrollers.CreateTransaction(inventoryService, logg))
			r.Get("/", inventorycontrollers.ListTransactions(inventoryService, logg))
		})
	})

	return r
}

// limiterStore and redisPinger keep a typed nil redis client from reaching
// the consumers as a non-nil interface.
func limiterStore(client *redis.Client) redis.Limiter {
	if client == nil {
		return nil
	}
	return client
}

func redisPinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
