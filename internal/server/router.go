package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cyberkittens/kittens/internal/handler"
	"github.com/cyberkittens/kittens/internal/metrics"
	"github.com/cyberkittens/kittens/internal/middleware"
)

// RouterConfig carries everything the HTTP routes need.
type RouterConfig struct {
	Logger      *slog.Logger
	Metrics     metrics.Recorder
	Security    middleware.SecurityConfig
	CORS        middleware.CORSConfig
	MaxBodySize int64

	// Auth protects the /kittens routes. Its OnError is set to the responder.
	Auth      middleware.AuthConfig
	Responder *handler.ErrorResponder

	Pages   *handler.Handler
	Kittens *handler.KittenHandler
	Login   *handler.LoginHandler
	Health  *handler.HealthHandler
	Scrape  *handler.MetricsHandler
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Responder == nil {
		cfg.Responder = handler.NewErrorResponder(cfg.Logger)
	}
	if cfg.Pages == nil {
		cfg.Pages = handler.New()
	}
	if cfg.Health == nil {
		cfg.Health = handler.NewHealthHandler()
	}
	if cfg.Scrape == nil {
		cfg.Scrape = handler.NewMetricsHandler(nil)
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 1 << 20
	}

	authCfg := cfg.Auth
	if authCfg.Logger == nil {
		authCfg.Logger = cfg.Logger
	}
	if authCfg.Metrics == nil {
		authCfg.Metrics = cfg.Metrics
	}
	authCfg.OnError = cfg.Responder.Respond

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

	// Public endpoints
	r.Get("/", cfg.Pages.Welcome)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	r.Get("/metrics", cfg.Scrape.Metrics)
	if cfg.Login != nil {
		r.Post("/login", cfg.Responder.Wrap(cfg.Login.Login))
	}

	// Kitten routes (require authentication)
	if cfg.Kittens != nil {
		r.Route("/kittens", func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Post("/", cfg.Responder.Wrap(cfg.Kittens.Create))
			r.Get("/{id}", cfg.Responder.Wrap(cfg.Kittens.Get))
			r.Delete("/{id}", cfg.Responder.Wrap(cfg.Kittens.Delete))
		})
	}

	// 404 and 405 handlers
	r.NotFound(cfg.Pages.NotFound)
	r.MethodNotAllowed(cfg.Pages.MethodNotAllowed)

	return r
}
