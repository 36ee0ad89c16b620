package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/autodoc/autodoc/internal/auth"
	"github.com/autodoc/autodoc/internal/cache"
	"github.com/autodoc/autodoc/internal/metrics"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/repository"
)

// AuthConfig holds token lifetimes.
type AuthConfig struct {
	TokenTTL      time.Duration
	RememberMeTTL time.Duration
	ResetTokenTTL time.Duration
}

// AuthService handles accounts, sign-in and sessions.
type AuthService struct {
	users     UserStore
	tokens    TokenStore
	userCache UserCache
	issuer    *auth.Issuer
	mailer    Mailer
	cfg       AuthConfig
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users UserStore,
	tokens TokenStore,
	userCache UserCache,
	issuer *auth.Issuer,
	mailer Mailer,
	cfg AuthConfig,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.RememberMeTTL <= 0 {
		cfg.RememberMeTTL = 30 * 24 * time.Hour
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		userCache: userCache,
		issuer:    issuer,
		mailer:    mailer,
		cfg:       cfg,
		metrics:   recorder,
		logger:    logger.With("component", "auth_service"),
		now:       time.Now,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	RememberMe      bool
}

// LoginInput defines input for signing in.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// AuthResult is a signed-in user with a bearer token.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// dummyHash is verified against when the email is unknown so that both
// login failures take comparable time.
var dummyHash = sync.OnceValue(func() string {
	hash, _ := auth.HashPassword("autodoc-unknown-user")
	return hash
})

// Register creates a free account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = NormalizeEmail(input.Email)

	errs := map[string]string{}
	if input.FullName == "" || utf8.RuneCountInString(input.FullName) > maxNameLength {
		errs["full_name"] = MsgNameRequired
	}
	if !ValidEmail(input.Email) {
		errs["email"] = MsgInvalidEmail
	}
	if utf8.RuneCountInString(input.Password) < MinPasswordLength {
		errs["password"] = MsgPasswordTooShort
	}
	if input.ConfirmPassword != "" && input.ConfirmPassword != input.Password {
		errs["confirm_password"] = MsgPasswordMismatch
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           newID(now),
		FullName:     input.FullName,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Plan:         model.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.IncRegistration()
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)

	return s.signIn(user, input.RememberMe)
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		s.metrics.IncLogin(metrics.OutcomeFailure)
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = auth.VerifyPassword(input.Password, dummyHash())
			s.metrics.IncLogin(metrics.OutcomeFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		s.logger.WarnContext(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
	}
	if !ok {
		s.metrics.IncLogin(metrics.OutcomeFailure)
		return nil, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, input.Password)
	}

	s.metrics.IncLogin(metrics.OutcomeSuccess)
	return s.signIn(user, input.RememberMe)
}

func (s *AuthService) rehash(ctx context.Context, user *model.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
	}
}

func (s *AuthService) signIn(user *model.User, rememberMe bool) (*AuthResult, error) {
	ttl := s.cfg.TokenTTL
	if rememberMe {
		ttl = s.cfg.RememberMeTTL
	}
	issued, err := s.issuer.Issue(user, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: user}, nil
}

// Logout revokes the session's token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, session *model.Session) error {
	if err := s.tokens.RevokeToken(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token into a session.
// The user is reloaded through the cache so role and plan changes apply
// without a new sign-in.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	claims, err := s.issuer.Parse(token)
	if err != nil || claims.ID == "" || claims.Subject == "" {
		return nil, ErrUnauthorized
	}

	revoked, err := s.tokens.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthorized
	}

	user, err := s.loadUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	return &model.Session{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		Plan:      user.EffectivePlan(s.now()),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userCache.GetUser(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "user cache read failed", "user_id", userID, "error", err)
	}

	user, err = s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.userCache.SetUser(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "user cache write failed", "user_id", userID, "error", err)
	}
	return user, nil
}

// ForgotPassword stores a reset token and mails it when the email belongs
// to an account. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return fieldError("email", MsgInvalidEmail)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.logger.DebugContext(ctx, "password reset for unknown email")
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return err
	}
	if err := s.tokens.StoreResetToken(ctx, token.Hash, user.ID, s.cfg.ResetTokenTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	msg := PasswordResetMessage{
		To:        user.Email,
		Name:      user.FullName,
		Token:     token.Plaintext,
		ExpiresAt: s.now().Add(s.cfg.ResetTokenTTL),
	}
	if err := s.mailer.SendPasswordReset(ctx, msg); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

// ResetPassword sets a new password using a single-use reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if !auth.ValidateResetTokenFormat(token) {
		return ErrInvalidResetToken
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fieldError("password", MsgPasswordTooShort)
	}

	userID, err := s.tokens.ConsumeResetToken(ctx, auth.QuickHash(token))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.forgetUser(ctx, userID)
	s.logger.InfoContext(ctx, "password reset", "user_id", userID)
	return nil
}

// Me returns the current state of a user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the display name of a user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID, fullName string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" || utf8.RuneCountInString(fullName) > maxNameLength {
		return nil, fieldError("full_name", MsgNameRequired)
	}

	user, err := s.users.UpdateUserProfile(ctx, userID, fullName)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.forgetUser(ctx, userID)
	return user, nil
}

func (s *AuthService) forgetUser(ctx context.Context, userID string) {
	if err := s.userCache.DeleteUser(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "user cache invalidation failed", "user_id", userID, "error", err)
	}
}
