package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/autodoc/autodoc/internal/model"
)

// UserCacheTTL is the TTL for cached users read by the auth guard.
const UserCacheTTL = 5 * time.Minute

// GetUser retrieves a cached user by id.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var cached model.CachedUser
	cmd := c.client.HGetAll(ctx, userKey(userID))
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrCacheMiss
	}
	if err := cmd.Scan(&cached); err != nil {
		return nil, fmt.Errorf("scan cached user: %w", err)
	}

	return cached.ToUser(userID), nil
}

// SetUser stores a user in cache. The password hash is never cached.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	key := userKey(user.ID)
	cached := user.ToCachedUser()

	fields := map[string]any{
		"full_name":  cached.FullName,
		"email":      cached.Email,
		"role":       cached.Role,
		"plan":       cached.Plan,
		"created_at": cached.CreatedAt,
	}
	// Only set optional fields if they have values
	if cached.SubscriptionExpires != "" {
		fields["subscription_expires"] = cached.SubscriptionExpires
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, UserCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// DeleteUser removes a user from cache.
// Called whenever the profile or plan changes.
func (c *Cache) DeleteUser(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, userKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete user from cache: %w", err)
	}
	return nil
}
