package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsRequest(t *testing.T, origins []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()

	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = origins
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/documento/gerar", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	app := "https://app.autodoc.com.br"

	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"nothing configured", nil, http.MethodGet, app, http.StatusOK, ""},
		{"exact origin", []string{app}, http.MethodGet, app, http.StatusOK, app},
		{"case insensitive", []string{"HTTPS://APP.AUTODOC.COM.BR"}, http.MethodGet, app, http.StatusOK, app},
		{"wildcard subdomain", []string{"*.autodoc.com.br"}, http.MethodGet, app, http.StatusOK, app},
		{"wildcard skips apex", []string{"*.autodoc.com.br"}, http.MethodGet, "https://autodoc.com.br", http.StatusOK, ""},
		{"wildcard skips lookalike", []string{"*.autodoc.com.br"}, http.MethodGet, "https://evilautodoc.com.br", http.StatusOK, ""},
		{"same origin request", []string{app}, http.MethodGet, "", http.StatusOK, ""},
		{"preflight allowed", []string{app}, http.MethodOptions, app, http.StatusNoContent, app},
		{"preflight refused", []string{app}, http.MethodOptions, "https://evil.example", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := corsRequest(t, tt.origins, tt.method, tt.origin)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantAllow, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.origin != "" {
				assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	rec := corsRequest(t, []string{"https://app.autodoc.com.br"}, http.MethodOptions, "https://app.autodoc.com.br")

	h := rec.Header()
	assert.Contains(t, h.Get("Access-Control-Allow-Methods"), http.MethodPatch)
	assert.Contains(t, h.Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "86400", h.Get("Access-Control-Max-Age"))
	assert.Empty(t, h.Get("Access-Control-Allow-Credentials"))
	for _, exposed := range []string{"Content-Disposition", "Location", "Retry-After", RequestIDHeader} {
		assert.Contains(t, h.Get("Access-Control-Expose-Headers"), exposed)
	}
}

func TestOriginPolicy_IgnoresBlankEntries(t *testing.T) {
	p := newOriginPolicy([]string{"", "  ", " https://a.example "})

	assert.Len(t, p.exact, 1)
	assert.True(t, p.allows("https://a.example"))
	assert.False(t, p.allows(""))
}
