package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/service"
)

// Authenticator resolves a bearer token into a session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
}

// Auth returns the single auth guard of the API. It reads the bearer token
// from the Authorization header, resolves it into a session and injects the
// session into the request context. Every failure yields the same 401.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := auth.ExtractBearer(r.Header.Get("Authorization"))
			if !ok {
				cfg.Logger.WarnContext(ctx, "authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", msgUnauthorized)
				return
			}

			session, err := cfg.Authenticator.Authenticate(ctx, token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					cfg.Logger.WarnContext(ctx, "authentication failed",
						slog.String("reason", "invalid_token"),
						slog.String("endpoint", r.Method+" "+r.URL.Path),
						slog.String("request_id", GetRequestID(ctx)),
					)
					writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", msgUnauthorized)
					return
				}

				cfg.Logger.ErrorContext(ctx, "authentication backend error",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(ctx)),
				)
				writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", msgUnavailable)
				return
			}

			if st := stateFromContext(ctx); st != nil {
				st.userID = session.UserID
				st.plan = string(session.Plan)
				st.role = string(session.Role)
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(ctx, session)))
		})
	}
}

// RequireRole returns middleware that admits only sessions with role.
// Must be applied after Auth.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := auth.SessionFromContext(r.Context())
			if session == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", msgUnauthorized)
				return
			}
			if session.Role != role {
				writeError(w, http.StatusForbidden, "FORBIDDEN", msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits only admin sessions.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}
