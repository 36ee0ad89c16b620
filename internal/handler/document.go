package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/handler/dto"
	"github.com/autodoc/autodoc/internal/listing"
	"github.com/autodoc/autodoc/internal/service"
)

// DocumentHandler handles the /documento endpoints: catalog, masks,
// generation, listing, download and status changes.
type DocumentHandler struct {
	svc    *service.DocumentService
	logger *slog.Logger
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(svc *service.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		svc:    svc,
		logger: logger,
	}
}

// Types handles GET /documento/tipos.
func (h *DocumentHandler) Types(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.DocumentTypeListResponse{Data: h.svc.Types()})
}

// Type handles GET /documento/tipos/{type}.
func (h *DocumentHandler) Type(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.Type(chi.URLParam(r, "type"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownDocumentType) {
			writeErrorJSON(w, http.StatusNotFound, "UNKNOWN_DOCUMENT_TYPE", msgUnknownType)
			return
		}
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// Format handles POST /documento/formatar. It applies the input mask of a
// field to the value being typed.
func (h *DocumentHandler) Format(w http.ResponseWriter, r *http.Request) {
	var req dto.FormatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	value, err := h.svc.Format(service.FormatInput{
		Type:     req.Type,
		Field:    req.Field,
		Previous: req.Previous,
		Value:    req.Value,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FormatResponse{Value: value})
}

// Generate handles POST /documento/gerar.
// The response body is the artifact path as text/plain unless the client
// accepts application/json, which yields the stored document.
func (h *DocumentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	var req dto.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := h.svc.Generate(r.Context(), session, service.GenerateInput{
		Type:        req.Type,
		Title:       req.Title,
		FormData:    req.FormData,
		CreatorName: req.CreatorName,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/documento/download/"+doc.ArtifactPath)
	if acceptsJSON(r) {
		writeJSON(w, http.StatusCreated, dto.ToDocumentResponse(doc))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(doc.ArtifactPath))
}

// Download handles GET /documento/download/{path}.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	doc, err := h.svc.Download(r.Context(), session, chi.URLParam(r, "path"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.ArtifactPath})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", disposition)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.HTMLContent))
}

// List handles GET /documento/listar and GET /documento/historico.
// Query parameters: q, status, type.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	docs, err := h.svc.List(r.Context(), session, listing.ParseCriteria(r.URL.Query()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDocumentListResponse(docs))
}

// Dashboard handles GET /documento/dashboard/{email}.
func (h *DocumentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	dashboard, err := h.svc.Dashboard(r.Context(), session, chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDashboardResponse(dashboard))
}

// Get handles GET /documento/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	doc, err := h.svc.Get(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDocumentResponse(doc))
}

// UpdateStatus handles PUT and PATCH /documento/{id}/status.
func (h *DocumentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	var req dto.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	doc, err := h.svc.UpdateStatus(r.Context(), session, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDocumentResponse(doc))
}

// acceptsJSON reports whether the Accept header names application/json.
func acceptsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}
