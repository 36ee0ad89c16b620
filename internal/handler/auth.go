package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/handler/dto"
	"github.com/autodoc/autodoc/internal/middleware"
	"github.com/autodoc/autodoc/internal/service"
)

const (
	msgForgotPassword  = "Se o e-mail estiver cadastrado, você receberá um link para redefinir sua senha."
	msgPasswordInvalid = "Senha inválida."
)

// AuthHandler handles account endpoints: sign-up, sign-in, password reset
// and the profile of the current user.
type AuthHandler struct {
	svc    *service.AuthService
	usage  service.UsageReader
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. usage may be nil, in which case
// /me omits the usage block.
func NewAuthHandler(svc *service.AuthService, usage service.UsageReader, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		usage:  usage,
		logger: logger,
	}
}

// checkPassword rejects passwords the hasher should never see. Blank and
// short passwords are left to the service.
func (h *AuthHandler) checkPassword(w http.ResponseWriter, field, password string) bool {
	err := middleware.ValidatePassword(password)
	if err == nil || errors.Is(err, middleware.ErrPasswordEmpty) {
		return true
	}
	writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
		Error:  msgValidation,
		Code:   "VALIDATION_ERROR",
		Fields: map[string]string{field: msgPasswordInvalid},
	})
	return false
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.checkPassword(w, "password", req.Password) {
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		RememberMe:      req.RememberMe,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToAuthResponse(result))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Password) > middleware.MaxPasswordLength {
		writeErrorJSON(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", msgInvalidCredentials)
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAuthResponse(result))
}

// ForgotPassword handles POST /api/auth/forgot-password.
// The answer is the same whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.MessageResponse{Message: msgForgotPassword})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.checkPassword(w, "password", req.Password) {
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Logout handles POST /api/auth/logout. The bearer token is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	if err := h.svc.Logout(r.Context(), session); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	user, err := h.svc.Me(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	resp := dto.MeResponse{User: dto.ToUserResponse(user)}
	if h.usage != nil {
		usage, err := h.usage.Usage(r.Context(), user)
		if err != nil {
			handleServiceError(w, r, h.logger, err)
			return
		}
		resp.Usage = dto.ToUsageResponse(usage)
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetProfile handles GET /api/profile.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	user, err := h.svc.Me(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// UpdateProfile handles PATCH /api/profile.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := auth.MustSessionFromContext(r.Context())

	var req dto.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), session.UserID, req.FullName)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}
