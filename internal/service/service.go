// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/autodoc/autodoc/internal/cache"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/repository"
)

// Service errors.
var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailExists         = errors.New("email already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("authentication required")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrForbidden           = errors.New("access denied")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrUnknownField        = errors.New("unknown form field")
	ErrQuotaExceeded       = errors.New("monthly document quota exceeded")
	ErrRenderFailed        = errors.New("document rendering failed")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrStatusUnchanged     = errors.New("document already has this status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrStatusConflict      = errors.New("document status changed concurrently")
	ErrInvalidPayment      = errors.New("invalid payment method")
)

// Field messages for account forms.
const (
	MsgNameRequired     = "Informe seu nome completo."
	MsgInvalidEmail     = "E-mail inválido."
	MsgPasswordTooShort = "A senha deve ter pelo menos 6 caracteres."
	MsgPasswordMismatch = "As senhas não coincidem."
)

// MinPasswordLength is the minimum number of characters of a password.
const MinPasswordLength = 6

const maxNameLength = 200

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id, fullName string) (*model.User, error)
	UpdateUserPlan(ctx context.Context, id string, plan model.Plan, expires *time.Time) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// DocumentStore persists generated documents.
type DocumentStore interface {
	CreateDocumentWithinQuota(ctx context.Context, doc *model.Document, window repository.QuotaWindow) error
	GetDocumentByID(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context, filter repository.DocumentFilter) ([]model.Document, error)
	CountDocumentsCreatedBetween(ctx context.Context, userID string, start, end time.Time) (int, error)
	CountDocumentsByStatus(ctx context.Context, userID string) (map[model.DocumentStatus]int, error)
	UpdateDocumentStatus(ctx context.Context, id string, from, to model.DocumentStatus) (*model.Document, error)
}

// AdminStore serves the admin panel aggregates.
type AdminStore interface {
	ListUsersWithDocumentCounts(ctx context.Context) ([]repository.UserSummary, error)
	CountUsersByPlan(ctx context.Context, now time.Time) (map[model.Plan]int, error)
	CountDocuments(ctx context.Context) (int, error)
	ListDocuments(ctx context.Context, filter repository.DocumentFilter) ([]model.Document, error)
}

// TokenStore keeps revoked bearer tokens and pending password resets.
type TokenStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	StoreResetToken(ctx context.Context, tokenHash, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, tokenHash string) (string, error)
}

// UserCache caches users read by the auth guard.
type UserCache interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// QuotaCache caches monthly document counts.
type QuotaCache interface {
	GetMonthlyCount(ctx context.Context, userID, month string) (int, error)
	SetMonthlyCount(ctx context.Context, userID, month string, count int) error
	InvalidateMonthlyCount(ctx context.Context, userID, month string) error
}

var (
	_ UserStore     = (*repository.Repository)(nil)
	_ DocumentStore = (*repository.Repository)(nil)
	_ AdminStore    = (*repository.Repository)(nil)
	_ TokenStore    = (*cache.Cache)(nil)
	_ UserCache     = (*cache.Cache)(nil)
	_ QuotaCache    = (*cache.Cache)(nil)
)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return len(email) <= 254 && emailRegex.MatchString(email)
}

// newID returns a ULID for an entity created at t.
func newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
