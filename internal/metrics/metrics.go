// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels for login and registration attempts.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Document metrics
	IncDocumentGenerated(docType string)
	IncGenerationRejected(reason string) // reason: "quota", "validation", "render"
	ObserveRenderDuration(duration time.Duration)
	IncStatusChanged(to string)

	// Account metrics
	IncLogin(outcome string)
	IncRegistration()
	IncSubscriptionUpgrade()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
