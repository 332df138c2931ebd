package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"hotspotcli/internal/config"
	"hotspotcli/internal/infrastructure"
	"hotspotcli/internal/middleware"
	"hotspotcli/internal/services"
	ws "hotspotcli/internal/websocket"
)

// RouterDeps carries everything the router mounts
type RouterDeps struct {
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      *infrastructure.BusinessMetrics
	MetricsHTTP  http.Handler
	Vouchers     *services.VoucherService
	Configs      *services.ConfigService
	Subscription *services.SubscriptionService
	Health       *services.HealthService
	Hub          *ws.Hub
}

// NewRouter assembles the middleware chain and mounts every handler
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(chimiddleware.Timeout(deps.Config.Server.WriteTimeout))

	if deps.Config.Security.EnableCORS {
		r.Use(middleware.CORS(deps.Config.Security.AllowedOrigins))
	}
	if deps.Config.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			deps.Config.Security.RateLimit.RPS,
			deps.Config.Security.RateLimit.Burst,
			deps.Logger,
		)
		r.Use(limiter.Handler)
	}

	healthHandler := NewHealthHandler(deps.Health, deps.Logger)
	r.Get("/healthz", healthHandler.Check)

	if deps.MetricsHTTP != nil {
		r.Handle("/metrics", deps.MetricsHTTP)
	}

	wsHandler := NewWebSocketHandler(deps.Hub, deps.Logger)
	r.Get("/ws", wsHandler.Serve)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/vouchers", NewVoucherHandler(deps.Vouchers, deps.Logger).Routes())
		api.Mount("/configs", NewConfigHandler(deps.Configs, deps.Logger).Routes())
		api.Mount("/templates", NewTemplateHandler(deps.Configs, deps.Logger).Routes())
		api.Mount("/profiles", NewProfileHandler(deps.Configs, deps.Logger).Routes())
		api.Mount("/subscriptions", NewSubscriptionHandler(deps.Subscription, deps.Logger).Routes())
	})

	return r
}
