package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/staffstore-backend/api/controllers"
	"github.com/angelmondragon/staffstore-backend/api/middleware"
	"github.com/angelmondragon/staffstore-backend/internal/admin"
	"github.com/angelmondragon/staffstore-backend/internal/catalog"
	"github.com/angelmondragon/staffstore-backend/internal/ledger"
	"github.com/angelmondragon/staffstore-backend/internal/orders"
	"github.com/angelmondragon/staffstore-backend/pkg/config"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/staffstore-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. RateLimiter, Idempotency,
// Gatherer and HTTPMetrics are optional; leave them nil to disable the
// corresponding feature.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Store   db.Provider
	Mail    controllers.MailStatus
	Catalog catalog.Service
	Orders  orders.Service
	Ledger  ledger.Service
	Admin   admin.Service

	RateLimiter pkgredis.RateLimiter
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

// NewRouter mounts every storefront route at the root and again under /api.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)
	r.NotFound(controllers.NotFound())
	r.MethodNotAllowed(controllers.NotFound())

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	storefront := storefrontRoutes(deps)
	r.Group(storefront)
	r.Route("/api", func(r chi.Router) {
		r.NotFound(controllers.NotFound())
		r.MethodNotAllowed(controllers.NotFound())
		storefront(r)
	})

	return r
}

func storefrontRoutes(deps Deps) func(r chi.Router) {
	cfg := deps.Config
	logg := deps.Logger

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"admin_login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
	)
	idempotency := middleware.Idempotency(deps.Idempotency, cfg.RateLimit.IdempotencyTTL, logg)

	return func(r chi.Router) {
		r.Route("/health", func(r chi.Router) {
			r.Get("/", controllers.Health(deps.Store, deps.Mail, logg))
			r.Get("/live", controllers.HealthLive())
		})

		r.Get("/products", controllers.ListProducts(deps.Catalog, logg))
		r.With(idempotency).Post("/orders", controllers.CreateOrder(deps.Orders, logg))

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).
				Post("/login", controllers.AdminLogin(deps.Admin, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminAuth(deps.Admin, logg))
				r.Get("/products", controllers.AdminListProducts(deps.Catalog, logg))
				r.Put("/products/{productId}/variants", controllers.AdminSetVariantStock(deps.Catalog, logg))
				r.Get("/orders", controllers.AdminListOrders(deps.Ledger, logg))
			})
		})
	}
}
