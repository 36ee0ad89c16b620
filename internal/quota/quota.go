// Package quota decides whether a user may generate another document this month.
package quota

import (
	"time"

	"github.com/autodoc/autodoc/internal/model"
)

// DefaultFreeLimit is the number of documents a free user may create per calendar month.
const DefaultFreeLimit = 5

// Gate applies the monthly limit of the free plan. PRO users are never limited.
type Gate struct {
	Limit int
}

// NewGate creates a gate. A non-positive limit falls back to DefaultFreeLimit.
func NewGate(limit int) Gate {
	if limit <= 0 {
		limit = DefaultFreeLimit
	}
	return Gate{Limit: limit}
}

// Remaining is the number of documents left this month.
type Remaining struct {
	Count     int  `json:"count"`
	Unlimited bool `json:"unlimited"`
}

// Allowed reports whether one more document may be created.
func (g Gate) Allowed(plan model.Plan, monthlyCount int) bool {
	if plan == model.PlanPro {
		return true
	}
	return monthlyCount < g.Limit
}

// Remaining returns max(0, Limit-monthlyCount) for free users and Unlimited for PRO.
func (g Gate) Remaining(plan model.Plan, monthlyCount int) Remaining {
	if plan == model.PlanPro {
		return Remaining{Unlimited: true}
	}
	left := g.Limit - monthlyCount
	if left < 0 {
		left = 0
	}
	return Remaining{Count: left}
}

// MonthBounds returns the half-open interval [start, end) of the calendar month
// containing now, as observed in loc.
func MonthBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// MonthKey identifies the calendar month containing now ("2006-01").
func MonthKey(now time.Time, loc *time.Location) string {
	start, _ := MonthBounds(now, loc)
	return start.Format("2006-01")
}
