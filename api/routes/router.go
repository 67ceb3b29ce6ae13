package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	authcontrollers "github.com/angelmondragon/storefront/api/controllers/auth"
	cartcontrollers "github.com/angelmondragon/storefront/api/controllers/cart"
	catalogcontrollers "github.com/angelmondragon/storefront/api/controllers/catalog"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/account"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

type rateLimitStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Params lists everything the router wires into handlers.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	Redis      redis.Pinger
	RateLimits rateLimitStore
	Sessions   session.AccessSessionChecker
	Catalog    catalog.Service
	Cart       cart.Service
	Accounts   account.Service
	Gatherer   prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	policies := middleware.PoliciesFromConfig(cfg.AuthRateLimit)
	authenticated := middleware.Auth(cfg.JWT, p.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, p.Redis, logg))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", catalogcontrollers.Browse(p.Catalog, logg))
		r.Get("/products/grouped", catalogcontrollers.Grouped(p.Catalog, logg))
		r.Get("/products/suggest", catalogcontrollers.Suggest(p.Catalog, logg))
		r.Get("/products/{productID}", catalogcontrollers.Product(p.Catalog, logg))
		r.Get("/categories", catalogcontrollers.Categories(p.Catalog, logg))
		r.Get("/categories/default/products", catalogcontrollers.DefaultCategoryPage(p.Catalog, logg))
		r.Get("/categories/{category}/products", catalogcontrollers.CategoryPage(p.Catalog, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(policies.Signup, p.RateLimits, logg)).Post("/signup", authcontrollers.AuthSignup(p.Accounts, logg))
		r.With(middleware.AuthRateLimit(policies.Login, p.RateLimits, logg)).Post("/login", authcontrollers.AuthLogin(p.Accounts, logg))
		r.With(authenticated).Post("/logout", authcontrollers.AuthLogout(p.Accounts, logg))
		r.With(authenticated).Get("/me", authcontrollers.AuthMe(logg))

		r.Route("/recovery", func(r chi.Router) {
			r.Use(middleware.AuthRateLimit(policies.Recovery, p.RateLimits, logg))
			r.Post("/otp", authcontrollers.RecoverySendOTP(p.Accounts, logg))
			r.Post("/verify", authcontrollers.RecoveryVerifyOTP(p.Accounts, logg))
			r.Post("/reset", authcontrollers.RecoveryResetPassword(p.Accounts, logg))
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(p.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(p.Cart, logg))
			r.Post("/items", cartcontrollers.CartAddItem(p.Cart, logg))
			r.Patch("/items/{productID}", cartcontrollers.CartUpdateQuantity(p.Cart, logg))
			r.Delete("/items/{productID}", cartcontrollers.CartRemoveItem(p.Cart, logg))
			r.Post("/items/{productID}/increment", cartcontrollers.CartIncrement(p.Cart, logg))
			r.Post("/items/{productID}/decrement", cartcontrollers.CartDecrement(p.Cart, logg))
			r.Post("/checkout", cartcontrollers.CartCheckout(p.Cart, logg))
		})
	})

	return r
}
