package handler

import (
	"log/slog"
	"net/http"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/handler/dto"
	"github.com/autodoc/autodoc/internal/service"
)

// SubscriptionHandler handles the paywall endpoints.
type SubscriptionHandler struct {
	svc    *service.SubscriptionService
	logger *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		svc:    svc,
		logger: logger,
	}
}

// Status handles GET /api/subscription.
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	sub, err := h.svc.Status(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// Upgrade handles POST /api/subscription/upgrade.
// Payment is simulated; the plan changes immediately.
func (h *SubscriptionHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	var req dto.UpgradeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.svc.Upgrade(r.Context(), session.UserID, req.Method)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubscriptionResponse(sub))
}

// Cancel handles POST /api/subscription/cancel.
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	sub, err := h.svc.Cancel(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubscriptionResponse(sub))
}
