// Package model defines domain entities for the application.
package model

import (
	"strconv"
	"time"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid checks if the role is known.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// IsValid checks if the plan is known.
func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanPro
}

// User is an account of the application.
type User struct {
	ID                  string     `json:"id"`
	FullName            string     `json:"full_name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"` // Never serialize
	Role                Role       `json:"role"`
	Plan                Plan       `json:"plan"`
	SubscriptionExpires *time.Time `json:"subscription_expires,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EffectivePlan returns the plan in force at the given instant.
// A PRO subscription whose expiry has passed counts as free.
func (u *User) EffectivePlan(now time.Time) Plan {
	if u.Plan != PlanPro {
		return PlanFree
	}
	if u.SubscriptionExpires != nil && !now.Before(*u.SubscriptionExpires) {
		return PlanFree
	}
	return PlanPro
}

// CachedUser represents user data stored in a Redis hash.
// Uses string types for Redis hash compatibility.
type CachedUser struct {
	FullName            string `redis:"full_name"`
	Email               string `redis:"email"`
	Role                string `redis:"role"`
	Plan                string `redis:"plan"`
	SubscriptionExpires string `redis:"subscription_expires"` // Unix timestamp or empty
	CreatedAt           string `redis:"created_at"`           // Unix timestamp
}

// ToCachedUser converts a User to its cached representation.
// The password hash is never cached.
func (u *User) ToCachedUser() *CachedUser {
	cached := &CachedUser{
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      string(u.Role),
		Plan:      string(u.Plan),
		CreatedAt: strconv.FormatInt(u.CreatedAt.Unix(), 10),
	}
	if u.SubscriptionExpires != nil {
		cached.SubscriptionExpires = strconv.FormatInt(u.SubscriptionExpires.Unix(), 10)
	}
	return cached
}

// ToUser converts a CachedUser back to a User.
func (c *CachedUser) ToUser(id string) *User {
	user := &User{
		ID:       id,
		FullName: c.FullName,
		Email:    c.Email,
		Role:     Role(c.Role),
		Plan:     Plan(c.Plan),
	}

	if !user.Role.IsValid() {
		user.Role = RoleUser
	}
	if !user.Plan.IsValid() {
		user.Plan = PlanFree
	}

	if c.SubscriptionExpires != "" {
		if ts, err := strconv.ParseInt(c.SubscriptionExpires, 10, 64); err == nil {
			t := time.Unix(ts, 0).UTC()
			user.SubscriptionExpires = &t
		}
	}

	if c.CreatedAt != "" {
		if ts, err := strconv.ParseInt(c.CreatedAt, 10, 64); err == nil {
			user.CreatedAt = time.Unix(ts, 0).UTC()
		}
	}

	return user
}
