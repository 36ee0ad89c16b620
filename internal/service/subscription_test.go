package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autodoc/autodoc/internal/listing"
	"github.com/autodoc/autodoc/internal/metrics"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/quota"
	"github.com/autodoc/autodoc/internal/render"
	"github.com/autodoc/autodoc/internal/service/servicetest"
)

func newSubscriptionFixture(t *testing.T, now time.Time) (*SubscriptionService, *servicetest.Store, *servicetest.Cache, *metrics.InMemoryRecorder) {
	t.Helper()

	store := servicetest.NewStore()
	cache := servicetest.NewCache()
	recorder := metrics.NewInMemory()

	docs := NewDocumentService(store, store, cache, render.NewTemplateRenderer(), DocumentConfig{Gate: quota.NewGate(5)}, nil, nil)
	docs.now = func() time.Time { return now }

	svc := NewSubscriptionService(store, cache, docs, 1, recorder, nil)
	svc.now = func() time.Time { return now }
	return svc, store, cache, recorder
}

func TestParsePaymentMethod(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]PaymentMethod{"pix": PaymentPix, " PIX ": PaymentPix, "card": PaymentCard, "cartão": PaymentCard} {
		got, ok := ParsePaymentMethod(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParsePaymentMethod("boleto")
	assert.False(t, ok)
}

func TestUpgrade(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc, store, cache, recorder := newSubscriptionFixture(t, now)
	ctx := context.Background()

	store.PutUser(&model.User{ID: "01U", Email: "u@example.com", Role: model.RoleUser, Plan: model.PlanFree})
	require.NoError(t, cache.SetUser(ctx, &model.User{ID: "01U", Plan: model.PlanFree}))

	_, err := svc.Upgrade(ctx, "01U", "boleto")
	assert.ErrorIs(t, err, ErrInvalidPayment)

	sub, err := svc.Upgrade(ctx, "01U", "pix")
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, sub.User.Plan)
	require.NotNil(t, sub.User.SubscriptionExpires)
	assert.True(t, sub.User.SubscriptionExpires.Equal(time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)))
	assert.True(t, sub.Usage.Remaining.Unlimited)
	assert.False(t, cache.HasUser("01U"), "plan change must invalidate the cached user")
	assert.Equal(t, uint64(1), recorder.Snapshot().SubscriptionUpgrades)

	sub, err = svc.Upgrade(ctx, "01U", "card")
	require.NoError(t, err)
	assert.True(t, sub.User.SubscriptionExpires.Equal(time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)),
		"an active subscription is extended from its expiry")
}

func TestUpgrade_ExpiredStartsFromNow(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc, store, _, _ := newSubscriptionFixture(t, now)

	expired := now.AddDate(0, -2, 0)
	store.PutUser(&model.User{ID: "01U", Plan: model.PlanPro, SubscriptionExpires: &expired})

	sub, err := svc.Upgrade(context.Background(), "01U", "pix")
	require.NoError(t, err)
	assert.True(t, sub.User.SubscriptionExpires.Equal(now.AddDate(0, 1, 0)))
}

func TestCancelAndStatus(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc, store, _, _ := newSubscriptionFixture(t, now)
	ctx := context.Background()

	expires := now.AddDate(0, 1, 0)
	store.PutUser(&model.User{ID: "01U", Plan: model.PlanPro, SubscriptionExpires: &expires})

	sub, err := svc.Status(ctx, "01U")
	require.NoError(t, err)
	assert.Equal(t, model.PlanPro, sub.Usage.Plan)

	sub, err = svc.Cancel(ctx, "01U")
	require.NoError(t, err)
	assert.Equal(t, model.PlanFree, sub.User.Plan)
	assert.Nil(t, sub.User.SubscriptionExpires)
	assert.Equal(t, quota.Remaining{Count: 5}, sub.Usage.Remaining)
	assert.Equal(t, 5, sub.Usage.Limit)

	_, err = svc.Status(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminService(t *testing.T) {
	t.Parallel()
	store := servicetest.NewStore()
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	store.PutUser(&model.User{ID: "01A", Email: "a@example.com", Plan: model.PlanFree, CreatedAt: now.Add(-3 * time.Hour)})
	store.PutUser(&model.User{ID: "01B", Email: "b@example.com", Plan: model.PlanPro, SubscriptionExpires: &future, CreatedAt: now.Add(-2 * time.Hour)})
	store.PutUser(&model.User{ID: "01C", Email: "c@example.com", Plan: model.PlanPro, SubscriptionExpires: &past, CreatedAt: now.Add(-time.Hour)})

	for i, owner := range []string{"01A", "01A", "01B"} {
		store.PutDocument(&model.Document{
			ID:        fmt.Sprintf("01DOC%d", i),
			Type:      model.TypeUniaoEstavel,
			Title:     "Declaração de União Estável",
			Status:    model.StatusGenerated,
			CreatedBy: owner,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}

	svc := NewAdminService(store)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalUsers: 3, TotalDocuments: 3, ProUsers: 1, FreeUsers: 2}, *stats)

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	counts := map[string]int{}
	for _, u := range users {
		counts[u.User.ID] = u.DocumentCount
	}
	assert.Equal(t, map[string]int{"01A": 2, "01B": 1, "01C": 0}, counts)

	docs, err := svc.Documents(ctx, listing.Criteria{Search: "união"})
	require.NoError(t, err)
	assert.Len(t, docs, 3)

	docs, err = svc.Documents(ctx, listing.Criteria{Status: model.StatusSigned})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
