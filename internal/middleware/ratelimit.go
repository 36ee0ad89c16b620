package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/cache"
)

// RateLimiter takes tokens from per-user and per-address buckets.
type RateLimiter interface {
	CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig configures both limiters.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter

	// APIEnabled turns on the per-user limiter. Its rate follows the plan.
	APIEnabled bool

	// AuthEnabled turns on the per-address limiter of login, registration
	// and password reset.
	AuthEnabled bool
	AuthRPS     int
	AuthBurst   int
}

// RateLimitAPI limits authenticated requests per user. Must run after Auth.
// Requests pass when the limiter itself fails.
func RateLimitAPI(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := auth.SessionFromContext(r.Context())
			if !cfg.APIEnabled || session == nil {
				next.ServeHTTP(w, r)
				return
			}
			tier := session.RateLimit()
			if tier.RequestsPerMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.CheckUserRateLimit(r.Context(), session.UserID, tier.RequestsPerMinute, tier.Burst)
			if err != nil {
				cfg.Logger.ErrorContext(r.Context(), "rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("user_id", session.UserID),
				)
				next.ServeHTTP(w, r)
				return
			}
			setRateLimitHeaders(w, tier.RequestsPerMinute, result.Remaining, result.ResetAt)

			if !result.Allowed {
				rejectRateLimited(w, r, cfg.Logger, result, slog.String("limiter", "api"), slog.String("user_id", session.UserID))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitIP limits requests per client address to slow down credential
// guessing on the public auth endpoints.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.AuthEnabled {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), getClientIP(r), cfg.AuthRPS, cfg.AuthBurst)
			if err != nil {
				cfg.Logger.ErrorContext(r.Context(), "ip rate limit check failed", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				rejectRateLimited(w, r, cfg.Logger, result, slog.String("limiter", "auth"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(w http.ResponseWriter, r *http.Request, logger *slog.Logger, result *cache.RateLimitResult, attrs ...any) {
	attrs = append(attrs,
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Duration("retry_after", result.RetryAfter),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	logger.WarnContext(r.Context(), "rate limit exceeded", attrs...)
	writeRateLimitError(w, result.RetryAfter)
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit <= 0 {
		return
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// writeRateLimitError answers 429 with Retry-After rounded up to whole
// seconds, never less than one.
func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
	writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", msgRateLimited)
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
