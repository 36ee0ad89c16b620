// Package servicetest provides in-memory stores and caches that satisfy the
// service interfaces, for unit tests that run without PostgreSQL or Redis.
package servicetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/autodoc/autodoc/internal/cache"
	"github.com/autodoc/autodoc/internal/listing"
	"github.com/autodoc/autodoc/internal/model"
	"github.com/autodoc/autodoc/internal/repository"
)

// Store is an in-memory user and document store.
type Store struct {
	mu    sync.Mutex
	users map[string]*model.User
	docs  map[string]*model.Document

	// Err, when set, is returned by every method.
	Err error
	// StatusWrites counts successful UpdateDocumentStatus calls.
	StatusWrites int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users: map[string]*model.User{},
		docs:  map[string]*model.Document{},
	}
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.SubscriptionExpires != nil {
		t := *u.SubscriptionExpires
		c.SubscriptionExpires = &t
	}
	return &c
}

func copyDocument(d *model.Document) *model.Document {
	c := *d
	c.FormData = make(map[string]string, len(d.FormData))
	for k, v := range d.FormData {
		c.FormData[k] = v
	}
	return &c
}

// CreateUser implements service.UserStore.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

// GetUserByID implements service.UserStore.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return copyUser(u), nil
}

// GetUserByEmail implements service.UserStore.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// UpdateUserProfile implements service.UserStore.
func (s *Store) UpdateUserProfile(_ context.Context, id, fullName string) (*model.User, error) {
	return s.updateUser(id, func(u *model.User) { u.FullName = fullName })
}

// UpdateUserPlan implements service.UserStore.
func (s *Store) UpdateUserPlan(_ context.Context, id string, plan model.Plan, expires *time.Time) (*model.User, error) {
	return s.updateUser(id, func(u *model.User) {
		u.Plan = plan
		u.SubscriptionExpires = nil
		if expires != nil {
			t := *expires
			u.SubscriptionExpires = &t
		}
	})
}

// UpdateUserPassword implements service.UserStore.
func (s *Store) UpdateUserPassword(_ context.Context, id, passwordHash string) error {
	_, err := s.updateUser(id, func(u *model.User) { u.PasswordHash = passwordHash })
	return err
}

func (s *Store) updateUser(id string, fn func(*model.User)) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

// ListUsersWithDocumentCounts implements service.AdminStore.
func (s *Store) ListUsersWithDocumentCounts(_ context.Context) ([]repository.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	counts := map[string]int{}
	for _, d := range s.docs {
		counts[d.CreatedBy]++
	}
	out := make([]repository.UserSummary, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, repository.UserSummary{User: copyUser(u), DocumentCount: counts[u.ID]})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].User.CreatedAt.After(out[j].User.CreatedAt)
	})
	return out, nil
}

// CountUsersByPlan implements service.AdminStore.
func (s *Store) CountUsersByPlan(_ context.Context, now time.Time) (map[model.Plan]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := map[model.Plan]int{model.PlanFree: 0, model.PlanPro: 0}
	for _, u := range s.users {
		out[u.EffectivePlan(now)]++
	}
	return out, nil
}

// CountDocuments implements service.AdminStore.
func (s *Store) CountDocuments(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return len(s.docs), nil
}

// CreateDocumentWithinQuota implements service.DocumentStore.
func (s *Store) CreateDocumentWithinQuota(_ context.Context, doc *model.Document, window repository.QuotaWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if window.Limit > 0 && s.countBetween(doc.CreatedBy, window.Start, window.End) >= window.Limit {
		return repository.ErrQuotaExceeded
	}
	s.docs[doc.ID] = copyDocument(doc)
	return nil
}

// GetDocumentByID implements service.DocumentStore.
func (s *Store) GetDocumentByID(_ context.Context, id string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	d, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	out := copyDocument(d)
	out.ArtifactPath = model.ArtifactPathFor(out.ID)
	if u, ok := s.users[out.CreatedBy]; ok {
		out.CreatedByEmail = u.Email
	}
	return out, nil
}

// ListDocuments implements service.DocumentStore. HTML content is omitted.
func (s *Store) ListDocuments(_ context.Context, filter repository.DocumentFilter) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []model.Document{}
	for _, d := range s.docs {
		if filter.CreatedBy != "" && d.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		c := copyDocument(d)
		c.HTMLContent = ""
		c.ArtifactPath = model.ArtifactPathFor(c.ID)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CountDocumentsCreatedBetween implements service.DocumentStore.
func (s *Store) CountDocumentsCreatedBetween(_ context.Context, userID string, start, end time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	return s.countBetween(userID, start, end), nil
}

func (s *Store) countBetween(userID string, start, end time.Time) int {
	n := 0
	for _, d := range s.docs {
		if d.CreatedBy == userID && !d.CreatedAt.Before(start) && d.CreatedAt.Before(end) {
			n++
		}
	}
	return n
}

// CountDocumentsByStatus implements service.DocumentStore.
func (s *Store) CountDocumentsByStatus(_ context.Context, userID string) (map[model.DocumentStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var owned []model.Document
	for _, d := range s.docs {
		if userID == "" || d.CreatedBy == userID {
			owned = append(owned, *d)
		}
	}
	return listing.CountByStatus(owned), nil
}

// UpdateDocumentStatus implements service.DocumentStore as a compare-and-set.
func (s *Store) UpdateDocumentStatus(_ context.Context, id string, from, to model.DocumentStatus) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	d, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	if d.Status != from {
		return nil, repository.ErrStatusConflict
	}
	d.Status = to
	d.UpdatedAt = time.Now().UTC()
	s.StatusWrites++
	out := copyDocument(d)
	out.ArtifactPath = model.ArtifactPathFor(out.ID)
	return out, nil
}

// PutUser stores a user directly.
func (s *Store) PutUser(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = copyUser(u)
}

// PutDocument stores a document directly.
func (s *Store) PutDocument(d *model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.ID] = copyDocument(d)
}

// DocumentCount returns the number of stored documents.
func (s *Store) DocumentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Cache is an in-memory stand-in for the Redis cache. Expiry is not modeled.
type Cache struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	resets  map[string]string
	users   map[string]*model.User
	counts  map[string]int

	// Err, when set, is returned by every method.
	Err error
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		revoked: map[string]time.Time{},
		resets:  map[string]string{},
		users:   map[string]*model.User{},
		counts:  map[string]int{},
	}
}

// RevokeToken implements service.TokenStore.
func (c *Cache) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.revoked[tokenID] = expiresAt
	return nil
}

// IsTokenRevoked implements service.TokenStore.
func (c *Cache) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return false, c.Err
	}
	_, ok := c.revoked[tokenID]
	return ok, nil
}

// StoreResetToken implements service.TokenStore.
func (c *Cache) StoreResetToken(_ context.Context, tokenHash, userID string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.resets[tokenHash] = userID
	return nil
}

// ConsumeResetToken implements service.TokenStore.
func (c *Cache) ConsumeResetToken(_ context.Context, tokenHash string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	userID, ok := c.resets[tokenHash]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	delete(c.resets, tokenHash)
	return userID, nil
}

// ResetTokenCount returns the number of pending reset tokens.
func (c *Cache) ResetTokenCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.resets)
}

// GetUser implements service.UserCache.
func (c *Cache) GetUser(_ context.Context, userID string) (*model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	u, ok := c.users[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return copyUser(u), nil
}

// SetUser implements service.UserCache. The password hash is dropped as
// the Redis cache does.
func (c *Cache) SetUser(_ context.Context, user *model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	u := copyUser(user)
	u.PasswordHash = ""
	c.users[user.ID] = u
	return nil
}

// DeleteUser implements service.UserCache.
func (c *Cache) DeleteUser(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.users, userID)
	return nil
}

// HasUser reports whether a user is cached.
func (c *Cache) HasUser(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.users[userID]
	return ok
}

// GetMonthlyCount implements service.QuotaCache.
func (c *Cache) GetMonthlyCount(_ context.Context, userID, month string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	n, ok := c.counts[userID+":"+month]
	if !ok {
		return 0, cache.ErrCacheMiss
	}
	return n, nil
}

// SetMonthlyCount implements service.QuotaCache.
func (c *Cache) SetMonthlyCount(_ context.Context, userID, month string, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.counts[userID+":"+month] = count
	return nil
}

// InvalidateMonthlyCount implements service.QuotaCache.
func (c *Cache) InvalidateMonthlyCount(_ context.Context, userID, month string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	delete(c.counts, userID+":"+month)
	return nil
}
