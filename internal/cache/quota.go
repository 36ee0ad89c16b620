package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuotaCounterTTL bounds how long a cached monthly count may be served.
const QuotaCounterTTL = 10 * time.Minute

// GetMonthlyCount returns the cached number of documents a user created in month ("2006-01").
// Returns ErrCacheMiss if not cached.
func (c *Cache) GetMonthlyCount(ctx context.Context, userID, month string) (int, error) {
	n, err := c.client.Get(ctx, quotaKey(userID, month)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("get monthly count: %w", err)
	}
	return n, nil
}

// SetMonthlyCount caches the monthly count read from the database.
func (c *Cache) SetMonthlyCount(ctx context.Context, userID, month string, count int) error {
	if err := c.client.Set(ctx, quotaKey(userID, month), count, QuotaCounterTTL).Err(); err != nil {
		return fmt.Errorf("set monthly count: %w", err)
	}
	return nil
}

// InvalidateMonthlyCount drops the cached count after a document is created.
func (c *Cache) InvalidateMonthlyCount(ctx context.Context, userID, month string) error {
	if err := c.client.Del(ctx, quotaKey(userID, month)).Err(); err != nil {
		return fmt.Errorf("invalidate monthly count: %w", err)
	}
	return nil
}
