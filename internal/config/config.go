// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"
	// Embedded zone database so APP_TIMEZONE resolves on minimal images.
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
)

// minJWTSecretLength matches the HMAC key size of HS256.
const minJWTSecretLength = 32

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Authentication
	JWTSecret     string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	RememberMeTTL time.Duration `env:"REMEMBER_ME_TTL" envDefault:"720h"`
	ResetTokenTTL time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`

	// Plans
	FreeMonthlyQuota int    `env:"FREE_MONTHLY_QUOTA" envDefault:"5"`
	ProPeriodMonths  int    `env:"PRO_PERIOD_MONTHS" envDefault:"1"`
	Timezone         string `env:"APP_TIMEZONE" envDefault:"America/Sao_Paulo"`

	// Document rendering. Without an API key the built-in templates are used.
	GenAIAPIKey   string        `env:"GENAI_API_KEY"`
	GenAIModel    string        `env:"GENAI_MODEL" envDefault:"gemini-2.5-flash"`
	RenderTimeout time.Duration `env:"RENDER_TIMEOUT" envDefault:"60s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. WriteTimeout leaves room for a slow render.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitAPIEnabled  bool `env:"RATE_LIMIT_API_ENABLED" envDefault:"true"`
	RateLimitAuthEnabled bool `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthRPS     int  `env:"RATE_LIMIT_AUTH_RPS" envDefault:"1"`
	RateLimitAuthBurst   int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"5"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://autodoc.com.br,http://localhost:5173")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GenAIEnabled reports whether documents are written by the Gemini renderer.
func (c *Config) GenAIEnabled() bool {
	return strings.TrimSpace(c.GenAIAPIKey) != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Location returns the zone whose calendar months bound the free quota.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.FreeMonthlyQuota < 1 {
		return fmt.Errorf("FREE_MONTHLY_QUOTA must be positive, got %d", c.FreeMonthlyQuota)
	}
	if c.ProPeriodMonths < 1 {
		return fmt.Errorf("PRO_PERIOD_MONTHS must be positive, got %d", c.ProPeriodMonths)
	}
	if c.TokenTTL <= 0 || c.RememberMeTTL <= 0 || c.ResetTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
