// Package main is the entrypoint for the AutoDoc API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/cache"
	"github.com/autodoc/autodoc/internal/config"
	"github.com/autodoc/autodoc/internal/handler"
	"github.com/autodoc/autodoc/internal/metrics"
	"github.com/autodoc/autodoc/internal/middleware"
	"github.com/autodoc/autodoc/internal/quota"
	"github.com/autodoc/autodoc/internal/render"
	"github.com/autodoc/autodoc/internal/repository"
	"github.com/autodoc/autodoc/internal/server"
	"github.com/autodoc/autodoc/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(1)
	}

	if cfg.AutoMigrate {
		applied, err := repository.Migrate(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			os.Exit(1)
		}
		logger.Info("migrations applied", "count", len(applied), "versions", applied)
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	renderer, rendererName, err := newRenderer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize renderer", "error", err)
		os.Exit(1)
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Error("invalid JWT secret", "error", err)
		os.Exit(1)
	}

	// Initialize services
	recorder := metrics.NewInMemory()
	authService := service.NewAuthService(repo, cacheClient, cacheClient, issuer, nil, service.AuthConfig{
		TokenTTL:      cfg.TokenTTL,
		RememberMeTTL: cfg.RememberMeTTL,
		ResetTokenTTL: cfg.ResetTokenTTL,
	}, recorder, logger)
	documentService := service.NewDocumentService(repo, repo, cacheClient, renderer, service.DocumentConfig{
		Gate:     quota.NewGate(cfg.FreeMonthlyQuota),
		Location: loc,
	}, recorder, logger)
	subscriptionService := service.NewSubscriptionService(repo, cacheClient, documentService, cfg.ProPeriodMonths, recorder, logger)
	adminService := service.NewAdminService(repo)

	// Setup router
	r := handler.NewRouter(handler.Handlers{
		Root:         handler.New(),
		Health:       handler.NewHealthHandler(repo, cacheClient, rendererName, logger),
		Auth:         handler.NewAuthHandler(authService, documentService, logger),
		Document:     handler.NewDocumentHandler(documentService, logger),
		Subscription: handler.NewSubscriptionHandler(subscriptionService, logger),
		Admin:        handler.NewAdminHandler(adminService, logger),
		Metrics:      handler.NewMetricsHandler(recorder),
	}, handler.RouterConfig{
		Logger:        logger,
		Authenticator: authService,
		RateLimit: middleware.RateLimitConfig{
			Logger:      logger,
			Limiter:     cacheClient,
			APIEnabled:  cfg.RateLimitAPIEnabled,
			AuthEnabled: cfg.RateLimitAuthEnabled,
			AuthRPS:     cfg.RateLimitAuthRPS,
			AuthBurst:   cfg.RateLimitAuthBurst,
		},
		CORS:        corsConfig(cfg),
		Security:    middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodySize: cfg.MaxRequestBodySize,
	})

	// Create and run server
	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
	})
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"renderer", rendererName,
		"free_monthly_quota", cfg.FreeMonthlyQuota,
		"timezone", loc.String(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newRenderer picks the Gemini renderer when an API key is configured and
// the built-in templates otherwise.
func newRenderer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (render.Renderer, string, error) {
	if !cfg.GenAIEnabled() {
		return render.NewTemplateRenderer(), "template", nil
	}

	client, err := render.NewGenAIClient(ctx, cfg.GenAIAPIKey)
	if err != nil {
		return nil, "", err
	}
	renderer := render.NewGenAIRenderer(client.Models, render.GenAIConfig{
		Model:   cfg.GenAIModel,
		Timeout: cfg.RenderTimeout,
	}, logger)
	return renderer, "genai:" + cfg.GenAIModel, nil
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	return corsCfg
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
