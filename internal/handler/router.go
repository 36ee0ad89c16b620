package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/autodoc/autodoc/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
// Metrics may be nil to leave /metrics unmounted.
type Handlers struct {
	Root         *Handler
	Health       *HealthHandler
	Auth         *AuthHandler
	Document     *DocumentHandler
	Subscription *SubscriptionHandler
	Admin        *AdminHandler
	Metrics      *MetricsHandler
}

// RouterConfig holds everything NewRouter needs besides the handlers.
type RouterConfig struct {
	Logger        *slog.Logger
	Authenticator middleware.Authenticator
	RateLimit     middleware.RateLimitConfig
	CORS          middleware.CORSConfig
	Security      middleware.SecurityConfig
	MaxBodySize   int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(h Handlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)

	// Root info endpoint
	r.Get("/", h.Root.Hello)

	authGuard := middleware.Auth(middleware.AuthConfig{
		Logger:        cfg.Logger,
		Authenticator: cfg.Authenticator,
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		// Public, rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(cfg.RateLimit))
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password", h.Auth.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(authGuard)
			r.Use(middleware.RateLimitAPI(cfg.RateLimit))
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
		})
	})

	// Authenticated application routes
	r.Group(func(r chi.Router) {
		r.Use(authGuard)
		r.Use(middleware.RateLimitAPI(cfg.RateLimit))
		r.Use(middleware.RequireJSON)

		r.Get("/api/profile", h.Auth.GetProfile)
		r.Patch("/api/profile", h.Auth.UpdateProfile)

		r.Route("/api/subscription", func(r chi.Router) {
			r.Get("/", h.Subscription.Status)
			r.Post("/upgrade", h.Subscription.Upgrade)
			r.Post("/cancel", h.Subscription.Cancel)
		})

		r.Route("/documento", func(r chi.Router) {
			r.Get("/tipos", h.Document.Types)
			r.Get("/tipos/{type}", h.Document.Type)
			r.Post("/formatar", h.Document.Format)
			r.Post("/gerar", h.Document.Generate)
			r.Get("/download/{path}", h.Document.Download)
			r.Get("/listar", h.Document.List)
			r.Get("/historico", h.Document.List)
			r.With(middleware.ValidateEmailParam("email")).Get("/dashboard/{email}", h.Document.Dashboard)
			r.Get("/{id}", h.Document.Get)
			r.Put("/{id}/status", h.Document.UpdateStatus)
			r.Patch("/{id}/status", h.Document.UpdateStatus)
		})

		// Admin panel
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/api/admin/stats", h.Admin.Stats)
			r.Get("/api/admin/users", h.Admin.Users)
			r.Get("/api/admin/documents", h.Admin.Documents)
			if h.Metrics != nil {
				r.Get("/metrics", h.Metrics.Metrics)
			}
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	return r
}
