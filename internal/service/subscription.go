package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/autodoc/autodoc/internal/metrics"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/repository"
)

// PaymentMethod is how a simulated PRO payment was made.
type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "pix"
	PaymentCard PaymentMethod = "card"
)

// ParsePaymentMethod parses a payment method case-insensitively.
// "cartao" and "credit_card" are accepted as card.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pix":
		return PaymentPix, true
	case "card", "cartao", "cartão", "credit_card":
		return PaymentCard, true
	}
	return "", false
}

// UsageReader computes the monthly usage of a user.
type UsageReader interface {
	Usage(ctx context.Context, user *model.User) (*Usage, error)
}

// Subscription is the plan state of a user.
type Subscription struct {
	User  *model.User
	Usage *Usage
}

// SubscriptionService manages the free and PRO plans.
// Payments are simulated: an upgrade succeeds immediately.
type SubscriptionService struct {
	users        UserStore
	userCache    UserCache
	usage        UsageReader
	periodMonths int
	metrics      metrics.Recorder
	logger       *slog.Logger
	now          func() time.Time
}

// NewSubscriptionService creates a new SubscriptionService.
// periodMonths is the length of the PRO period bought by one payment.
func NewSubscriptionService(
	users UserStore,
	userCache UserCache,
	usage UsageReader,
	periodMonths int,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *SubscriptionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if periodMonths <= 0 {
		periodMonths = 1
	}
	return &SubscriptionService{
		users:        users,
		userCache:    userCache,
		usage:        usage,
		periodMonths: periodMonths,
		metrics:      recorder,
		logger:       logger.With("component", "subscription_service"),
		now:          time.Now,
	}
}

// Status returns the plan and usage of a user.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*Subscription, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.subscription(ctx, user)
}

// Upgrade records a simulated payment and grants PRO for one period.
// An active subscription is extended from its current expiry.
func (s *SubscriptionService) Upgrade(ctx context.Context, userID, method string) (*Subscription, error) {
	pm, ok := ParsePaymentMethod(method)
	if !ok {
		return nil, ErrInvalidPayment
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if user.Plan == model.PlanPro && user.SubscriptionExpires == nil {
		// PRO without expiry was granted by an admin; nothing to extend.
		return s.subscription(ctx, user)
	}

	base := now
	if user.EffectivePlan(now) == model.PlanPro && user.SubscriptionExpires.After(now) {
		base = user.SubscriptionExpires.UTC()
	}
	expires := base.AddDate(0, s.periodMonths, 0)

	updated, err := s.users.UpdateUserPlan(ctx, user.ID, model.PlanPro, &expires)
	if err != nil {
		return nil, s.mapUserErr(err, "upgrade plan")
	}
	s.forgetUser(ctx, user.ID)

	s.metrics.IncSubscriptionUpgrade()
	s.logger.InfoContext(ctx, "subscription upgraded",
		"user_id", user.ID,
		"method", pm,
		"expires_at", expires,
	)
	return s.subscription(ctx, updated)
}

// Cancel returns a user to the free plan immediately.
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) (*Subscription, error) {
	updated, err := s.users.UpdateUserPlan(ctx, userID, model.PlanFree, nil)
	if err != nil {
		return nil, s.mapUserErr(err, "cancel plan")
	}
	s.forgetUser(ctx, userID)

	s.logger.InfoContext(ctx, "subscription canceled", "user_id", userID)
	return s.subscription(ctx, updated)
}

func (s *SubscriptionService) subscription(ctx context.Context, user *model.User) (*Subscription, error) {
	usage, err := s.usage.Usage(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Subscription{User: user, Usage: usage}, nil
}

func (s *SubscriptionService) getUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.mapUserErr(err, "get user")
	}
	return user, nil
}

func (s *SubscriptionService) mapUserErr(err error, op string) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *SubscriptionService) forgetUser(ctx context.Context, userID string) {
	if err := s.userCache.DeleteUser(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "user cache invalidation failed", "user_id", userID, "error", err)
	}
}
