package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevokeToken marks a bearer token id as revoked until the token would have expired.
// Tokens that are already expired need no entry.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, revokedTokenKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether a bearer token id was revoked.
func (c *Cache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedTokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// StoreResetToken maps the hash of a reset token to a user id.
func (c *Cache) StoreResetToken(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, resetTokenKey(tokenHash), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken returns the user id of a reset token and deletes it, so a
// token can be used once. Returns ErrCacheMiss for unknown or expired tokens.
func (c *Cache) ConsumeResetToken(ctx context.Context, tokenHash string) (string, error) {
	userID, err := c.client.GetDel(ctx, resetTokenKey(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}
