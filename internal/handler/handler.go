// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/autodoc/autodoc/internal/handler/dto"
	"github.com/autodoc/autodoc/internal/middleware"
	"github.com/autodoc/autodoc/internal/service"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// User-facing error messages.
const (
	msgInvalidJSON        = "Dados inválidos. Verifique as informações e tente novamente."
	msgNotFound           = "Recurso não encontrado."
	msgMethodNotAllowed   = "Método não permitido."
	msgInternal           = "Ocorreu um erro. Tente novamente."
	msgValidation         = "Preencha os campos obrigatórios."
	msgInvalidCredentials = "E-mail ou senha incorretos."
	msgEmailExists        = "Este e-mail já está cadastrado."
	msgUserNotFound       = "Usuário não encontrado."
	msgUnauthorized       = "Sessão expirada. Faça login novamente."
	msgInvalidResetToken  = "Link de redefinição inválido ou expirado."
	msgForbidden          = "Você não tem permissão para acessar este recurso."
	msgUnknownType        = "Tipo de documento desconhecido."
	msgUnknownField       = "Campo desconhecido para este tipo de documento."
	msgQuotaExceeded      = "Você atingiu o limite mensal de documentos do plano gratuito. Assine o PRO para continuar gerando documentos."
	msgRenderFailed       = "Não foi possível gerar o documento. Tente novamente."
	msgDocumentNotFound   = "Documento não encontrado."
	msgStatusUnchanged    = "O documento já está com este status."
	msgInvalidTransition  = "Não é possível alterar o documento para este status."
	msgStatusConflict     = "O documento foi alterado por outra operação. Atualize a página."
	msgInvalidPayment     = "Forma de pagamento inválida. Use PIX ou cartão."
)

// Handler serves the root and fallback routes.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello identifies the service.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "AutoDoc API",
		"version": Version,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorJSON(w, http.StatusNotFound, "NOT_FOUND", msgNotFound)
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorJSON(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", msgMethodNotAllowed)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeErrorJSON writes a JSON error response.
func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON reads a request body into dst. An empty body leaves dst
// untouched. It answers 413 or 400 itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeErrorJSON(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Requisição muito grande.")
		return false
	}
	writeErrorJSON(w, http.StatusBadRequest, "INVALID_JSON", msgInvalidJSON)
	return false
}

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:  msgValidation,
			Code:   "VALIDATION_ERROR",
			Fields: verr.Fields,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeErrorJSON(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", msgInvalidCredentials)
	case errors.Is(err, service.ErrUnauthorized):
		writeErrorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED", msgUnauthorized)
	case errors.Is(err, service.ErrEmailExists):
		writeErrorJSON(w, http.StatusConflict, "EMAIL_EXISTS", msgEmailExists)
	case errors.Is(err, service.ErrUserNotFound):
		writeErrorJSON(w, http.StatusNotFound, "USER_NOT_FOUND", msgUserNotFound)
	case errors.Is(err, service.ErrInvalidResetToken):
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_RESET_TOKEN", msgInvalidResetToken)
	case errors.Is(err, service.ErrForbidden):
		writeErrorJSON(w, http.StatusForbidden, "FORBIDDEN", msgForbidden)
	case errors.Is(err, service.ErrUnknownDocumentType):
		writeErrorJSON(w, http.StatusBadRequest, "UNKNOWN_DOCUMENT_TYPE", msgUnknownType)
	case errors.Is(err, service.ErrUnknownField):
		writeErrorJSON(w, http.StatusBadRequest, "UNKNOWN_FIELD", msgUnknownField)
	case errors.Is(err, service.ErrQuotaExceeded):
		writeErrorJSON(w, http.StatusPaymentRequired, "QUOTA_EXCEEDED", msgQuotaExceeded)
	case errors.Is(err, service.ErrRenderFailed):
		writeErrorJSON(w, http.StatusBadGateway, "RENDER_FAILED", msgRenderFailed)
	case errors.Is(err, service.ErrDocumentNotFound):
		writeErrorJSON(w, http.StatusNotFound, "DOCUMENT_NOT_FOUND", msgDocumentNotFound)
	case errors.Is(err, service.ErrStatusUnchanged):
		writeErrorJSON(w, http.StatusConflict, "STATUS_UNCHANGED", msgStatusUnchanged)
	case errors.Is(err, service.ErrInvalidTransition):
		writeErrorJSON(w, http.StatusUnprocessableEntity, "INVALID_TRANSITION", msgInvalidTransition)
	case errors.Is(err, service.ErrStatusConflict):
		writeErrorJSON(w, http.StatusConflict, "STATUS_CONFLICT", msgStatusConflict)
	case errors.Is(err, service.ErrInvalidPayment):
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_PAYMENT_METHOD", msgInvalidPayment)
	default:
		logger.ErrorContext(r.Context(), "internal_error",
			"error", err,
			"endpoint", r.Method+" "+r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", msgInternal)
	}
}
