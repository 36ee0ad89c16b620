package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/service"
)

type fakeAuthenticator struct {
	sessions map[string]*model.Session
	err      error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[token]
	if !ok {
		return nil, service.ErrUnauthorized
	}
	return s, nil
}

func TestAuth(t *testing.T) {
	authn := &fakeAuthenticator{sessions: map[string]*model.Session{
		"good-token": {UserID: "01JUSER", Email: "ana@example.com", Role: model.RoleUser, Plan: model.PlanFree},
	}}

	var gotSession *model.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = auth.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequestID(Auth(AuthConfig{Logger: discardLogger(), Authenticator: authn})(next))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer good-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized},
		{"unknown token", "Bearer bad-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSession = nil
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotSession == nil || gotSession.UserID != "01JUSER" {
					t.Errorf("session = %+v, want user 01JUSER", gotSession)
				}
				return
			}
			if !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
				t.Errorf("body = %s, want UNAUTHORIZED code", rec.Body.String())
			}
		})
	}
}

func TestAuth_BackendError(t *testing.T) {
	authn := &fakeAuthenticator{err: fmt.Errorf("check token revocation: %w", errors.New("redis down"))}
	handler := Auth(AuthConfig{Logger: discardLogger(), Authenticator: authn})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		session    *model.Session
		wantStatus int
	}{
		{"admin", &model.Session{UserID: "01JADMIN", Role: model.RoleAdmin}, http.StatusOK},
		{"regular user", &model.Session{UserID: "01JUSER", Role: model.RoleUser}, http.StatusForbidden},
		{"no session", nil, http.StatusUnauthorized},
	}

	handler := RequireAdmin()(okHandler())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
			if tt.session != nil {
				req = req.WithContext(auth.ContextWithSession(req.Context(), tt.session))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"reuses well-formed id", "req-123", true},
		{"replaces id with spaces", "req 123", false},
		{"replaces oversized id", strings.Repeat("a", maxRequestIDLength+1), false},
		{"generates when missing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if seen == "" {
				t.Fatal("request id missing from context")
			}
			if (seen == tt.incoming) != tt.keep {
				t.Errorf("request id = %q, incoming %q, keep %v", seen, tt.incoming, tt.keep)
			}
			if rec.Header().Get(RequestIDHeader) != seen {
				t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seen)
			}
		})
	}
}

func TestRecoverer(t *testing.T) {
	handler := Recoverer(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"INTERNAL_ERROR"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
