package dto

import (
	"encoding/json"
	"time"

	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/service"
)

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	RememberMe      bool   `json:"remember_me,omitempty"`
}

var registerAliases = map[string]string{
	"fullName":        "full_name",
	"confirmPassword": "confirm_password",
	"rememberMe":      "remember_me",
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RegisterRequest) UnmarshalJSON(data []byte) error {
	type plain RegisterRequest
	data, err := normalizeKeys(data, registerAliases)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*plain)(r))
}

// LoginRequest represents the request body for signing in.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *LoginRequest) UnmarshalJSON(data []byte) error {
	type plain LoginRequest
	data, err := normalizeKeys(data, map[string]string{"rememberMe": "remember_me"})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*plain)(r))
}

// ForgotPasswordRequest represents the request body for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the request body for choosing a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *ResetPasswordRequest) UnmarshalJSON(data []byte) error {
	type plain ResetPasswordRequest
	data, err := normalizeKeys(data, map[string]string{"newPassword": "password", "new_password": "password"})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*plain)(r))
}

// UpdateProfileRequest represents the request body for PATCH /api/profile.
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *UpdateProfileRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateProfileRequest
	data, err := normalizeKeys(data, map[string]string{"fullName": "full_name"})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*plain)(r))
}

// UpgradeRequest represents the request body for buying a PRO period.
type UpgradeRequest struct {
	Method string `json:"method"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *UpgradeRequest) UnmarshalJSON(data []byte) error {
	type plain UpgradeRequest
	data, err := normalizeKeys(data, map[string]string{"paymentMethod": "method", "payment_method": "method"})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, (*plain)(r))
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID                  string     `json:"id"`
	FullName            string     `json:"full_name"`
	Email               string     `json:"email"`
	Role                model.Role `json:"role"`
	Plan                model.Plan `json:"plan"`
	SubscriptionExpires *time.Time `json:"subscription_expires,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// UsageResponse is the plan consumption of the current month.
// Remaining is omitted for unlimited plans.
type UsageResponse struct {
	Plan                model.Plan `json:"plan"`
	SubscriptionExpires *time.Time `json:"subscription_expires,omitempty"`
	MonthlyCount        int        `json:"monthly_count"`
	Limit               int        `json:"limit,omitempty"`
	Remaining           *int       `json:"remaining,omitempty"`
	Unlimited           bool       `json:"unlimited"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// MeResponse is returned by GET /api/auth/me.
type MeResponse struct {
	User  *UserResponse  `json:"user"`
	Usage *UsageResponse `json:"usage,omitempty"`
}

// SubscriptionResponse is the plan state of the current user.
type SubscriptionResponse struct {
	Plan                model.Plan     `json:"plan"`
	Active              bool           `json:"active"`
	SubscriptionExpires *time.Time     `json:"subscription_expires,omitempty"`
	Usage               *UsageResponse `json:"usage"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:                  user.ID,
		FullName:            user.FullName,
		Email:               user.Email,
		Role:                user.Role,
		Plan:                user.Plan,
		SubscriptionExpires: user.SubscriptionExpires,
		CreatedAt:           user.CreatedAt,
	}
}

// ToUsageResponse converts service usage to UsageResponse DTO.
func ToUsageResponse(usage *service.Usage) *UsageResponse {
	if usage == nil {
		return nil
	}
	resp := &UsageResponse{
		Plan:                usage.Plan,
		SubscriptionExpires: usage.SubscriptionExpires,
		MonthlyCount:        usage.MonthlyCount,
		Limit:               usage.Limit,
		Unlimited:           usage.Remaining.Unlimited,
	}
	if !usage.Remaining.Unlimited {
		remaining := usage.Remaining.Count
		resp.Remaining = &remaining
	}
	return resp
}

// ToAuthResponse converts an AuthResult to AuthResponse DTO.
func ToAuthResponse(result *service.AuthResult) *AuthResponse {
	return &AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      ToUserResponse(result.User),
	}
}

// ToSubscriptionResponse converts a Subscription to SubscriptionResponse DTO.
func ToSubscriptionResponse(sub *service.Subscription) *SubscriptionResponse {
	usage := ToUsageResponse(sub.Usage)
	resp := &SubscriptionResponse{
		Plan:                sub.User.Plan,
		SubscriptionExpires: sub.User.SubscriptionExpires,
		Usage:               usage,
	}
	if usage != nil {
		resp.Plan = usage.Plan
		resp.Active = usage.Plan == model.PlanPro
	}
	return resp
}
