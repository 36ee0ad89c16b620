package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// keyNamespace prefixes every key so the instance can share a Redis
// database with other services.
const keyNamespace = "autodoc"

// key joins parts under the namespace with ':'.
func key(parts ...string) string {
	return keyNamespace + ":" + strings.Join(parts, ":")
}

func userKey(userID string) string { return key("user", userID) }

func revokedTokenKey(tokenID string) string { return key("auth", "revoked", tokenID) }

func resetTokenKey(tokenHash string) string { return key("auth", "reset", tokenHash) }

// quotaKey holds the cached document count of a user for month ("2006-01").
func quotaKey(userID, month string) string { return key("quota", userID, month) }

func userRateLimitKey(userID string) string { return key("ratelimit", "user", userID) }

// ipRateLimitKey stores only a digest of the client address.
func ipRateLimitKey(ip string) string { return key("ratelimit", "ip", hashIP(ip)) }

// hashIP returns the first 8 bytes of the SHA-256 of ip, hex encoded.
func hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
