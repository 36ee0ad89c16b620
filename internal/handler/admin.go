package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/autodoc/autodoc/internal/handler/dto"
	"github.com/autodoc/autodoc/internal/listing"
	"github.com/autodoc/autodoc/internal/service"
)

// adminQueryTimeout bounds the full-table queries of the admin panel.
const adminQueryTimeout = 5 * time.Second

// AdminHandler provides admin-only endpoints.
type AdminHandler struct {
	svc    *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc:    svc,
		logger: logger,
	}
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToStatsResponse(stats))
}

// Users handles GET /api/admin/users.
// Lists every account with its document count.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	users, err := h.svc.Users(ctx)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAdminUserListResponse(users))
}

// Documents handles GET /api/admin/documents?q=&status=&type=
// Lists the documents of all users.
func (h *AdminHandler) Documents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	docs, err := h.svc.Documents(ctx, listing.ParseCriteria(r.URL.Query()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDocumentListResponse(docs))
}
