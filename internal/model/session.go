package model

import "time"

// RateLimitConfig defines rate limit parameters per tier.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// TierConfigs maps plans to their API rate limit configurations.
var TierConfigs = map[Plan]RateLimitConfig{
	PlanFree: {RequestsPerMinute: 60, Burst: 10},
	PlanPro:  {RequestsPerMinute: 600, Burst: 50},
}

// Session holds the authenticated identity of a request.
// It is injected into the request context by the auth guard.
type Session struct {
	UserID    string
	Email     string
	FullName  string
	Role      Role
	Plan      Plan
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin returns true if the session belongs to an admin.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// RateLimit returns the rate limit configuration for this session's plan.
func (s *Session) RateLimit() RateLimitConfig {
	if cfg, ok := TierConfigs[s.Plan]; ok {
		return cfg
	}
	return TierConfigs[PlanFree]
}

// CanAccess reports whether the session may read or mutate a resource owned by userID.
func (s *Session) CanAccess(userID string) bool {
	return s.IsAdmin() || s.UserID == userID
}
