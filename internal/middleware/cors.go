package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig lists what the browser app may do cross-origin.
type CORSConfig struct {
	// AllowedOrigins holds exact origins ("https://app.autodoc.com.br") and
	// subdomain wildcards ("*.autodoc.com.br").
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// ExposedHeaders are readable by scripts: request id, rate limit state,
	// the generated document location and the download filename.
	ExposedHeaders []string
	// MaxAge caches preflight answers, in seconds.
	MaxAge int
}

// DefaultCORSConfig returns the API defaults with no origin allowed.
// Credentials are never allowed: bearer tokens travel in Authorization.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{
			RequestIDHeader,
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
			"Location",
			"Content-Disposition",
		},
		MaxAge: 86400,
	}
}

// originPolicy is the compiled form of AllowedOrigins.
type originPolicy struct {
	exact    map[string]struct{}
	suffixes []string // ".autodoc.com.br" for "*.autodoc.com.br"
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "":
		case strings.HasPrefix(o, "*."):
			p.suffixes = append(p.suffixes, o[1:])
		default:
			p.exact[o] = struct{}{}
		}
	}
	return p
}

// allows matches exact origins and subdomain wildcards. "*.example.com"
// matches "https://app.example.com" but neither "https://example.com" nor
// "https://notexample.com".
func (p originPolicy) allows(origin string) bool {
	origin = strings.ToLower(origin)
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, suffix := range p.suffixes {
		host, ok := strings.CutSuffix(origin, suffix)
		if !ok {
			continue
		}
		if i := strings.Index(host, "://"); i >= 0 && len(host) > i+3 {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and decorates responses to allowed
// origins. Responses to other origins go out undecorated and the browser
// blocks them; their preflights get 403.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newOriginPolicy(cfg.AllowedOrigins)
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	var maxAge string
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if !policy.allows(origin) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}
			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
