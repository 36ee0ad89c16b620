package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// readinessTimeout bounds all dependency pings of one probe.
const readinessTimeout = 5 * time.Second

// HealthChecker is implemented by the repository and the cache.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	deps     []dependency
	renderer string
	logger   *slog.Logger
}

type dependency struct {
	name    string
	checker HealthChecker
}

// NewHealthHandler creates a HealthHandler. A nil db or cache is reported as
// "not configured" and does not fail readiness. renderer names the active
// document renderer, e.g. "template" or "genai:gemini-2.5-flash".
func NewHealthHandler(db, cache HealthChecker, renderer string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		deps:     []dependency{{"postgres", db}, {"redis", cache}},
		renderer: renderer,
		logger:   logger,
	}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status   string            `json:"status"`
	Renderer string            `json:"renderer,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// Healthz reports that the process is serving. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every dependency concurrently and answers 503 if any fails.
// Failure details are logged, never returned.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make([]string, len(h.deps))
	var g errgroup.Group
	for i, dep := range h.deps {
		if dep.checker == nil {
			results[i] = "not configured"
			continue
		}
		g.Go(func() error {
			if err := dep.checker.Ping(ctx); err != nil {
				h.logger.WarnContext(ctx, "readiness check failed",
					slog.String("dependency", dep.name),
					slog.String("error", err.Error()),
				)
				results[i] = "unavailable"
				return nil
			}
			results[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{Status: "ok", Renderer: h.renderer, Checks: make(map[string]string, len(h.deps))}
	code := http.StatusOK
	for i, dep := range h.deps {
		resp.Checks[dep.name] = results[i]
		if results[i] == "unavailable" {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}
