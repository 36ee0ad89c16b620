package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncDocumentGenerated is a no-op.
func (n *NoopRecorder) IncDocumentGenerated(docType string) {}

// IncGenerationRejected is a no-op.
func (n *NoopRecorder) IncGenerationRejected(reason string) {}

// ObserveRenderDuration is a no-op.
func (n *NoopRecorder) ObserveRenderDuration(duration time.Duration) {}

// IncStatusChanged is a no-op.
func (n *NoopRecorder) IncStatusChanged(to string) {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(outcome string) {}

// IncRegistration is a no-op.
func (n *NoopRecorder) IncRegistration() {}

// IncSubscriptionUpgrade is a no-op.
func (n *NoopRecorder) IncSubscriptionUpgrade() {}
