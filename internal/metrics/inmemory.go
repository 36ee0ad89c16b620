package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	DocumentsGenerated    map[string]uint64 // by document type
	GenerationsRejected   map[string]uint64 // by reason
	StatusChanges         map[string]uint64 // by target status
	RenderDurationCount   uint64
	RenderDurationTotalNs int64
	LoginsSucceeded       uint64
	LoginsFailed          uint64
	Registrations         uint64
	SubscriptionUpgrades  uint64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint
// and is used directly by tests.
type InMemoryRecorder struct {
	renderDurationCount   uint64
	renderDurationTotalNs int64
	loginsSucceeded       uint64
	loginsFailed          uint64
	registrations         uint64
	subscriptionUpgrades  uint64

	mu                  sync.Mutex
	documentsGenerated  map[string]uint64
	generationsRejected map[string]uint64
	statusChanges       map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		documentsGenerated:  map[string]uint64{},
		generationsRejected: map[string]uint64{},
		statusChanges:       map[string]uint64{},
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	snap := Snapshot{
		DocumentsGenerated:  copyCounts(m.documentsGenerated),
		GenerationsRejected: copyCounts(m.generationsRejected),
		StatusChanges:       copyCounts(m.statusChanges),
	}
	m.mu.Unlock()

	snap.RenderDurationCount = atomic.LoadUint64(&m.renderDurationCount)
	snap.RenderDurationTotalNs = atomic.LoadInt64(&m.renderDurationTotalNs)
	snap.LoginsSucceeded = atomic.LoadUint64(&m.loginsSucceeded)
	snap.LoginsFailed = atomic.LoadUint64(&m.loginsFailed)
	snap.Registrations = atomic.LoadUint64(&m.registrations)
	snap.SubscriptionUpgrades = atomic.LoadUint64(&m.subscriptionUpgrades)
	return snap
}

// IncDocumentGenerated increments the generated counter of a document type.
func (m *InMemoryRecorder) IncDocumentGenerated(docType string) {
	m.inc(m.documentsGenerated, docType)
}

// IncGenerationRejected increments the rejected generation counter.
func (m *InMemoryRecorder) IncGenerationRejected(reason string) {
	m.inc(m.generationsRejected, reason)
}

// ObserveRenderDuration records render duration.
func (m *InMemoryRecorder) ObserveRenderDuration(duration time.Duration) {
	atomic.AddUint64(&m.renderDurationCount, 1)
	atomic.AddInt64(&m.renderDurationTotalNs, duration.Nanoseconds())
}

// IncStatusChanged increments the status change counter of a target status.
func (m *InMemoryRecorder) IncStatusChanged(to string) {
	m.inc(m.statusChanges, to)
}

// IncLogin increments the login counter for an outcome.
func (m *InMemoryRecorder) IncLogin(outcome string) {
	if outcome == OutcomeSuccess {
		atomic.AddUint64(&m.loginsSucceeded, 1)
		return
	}
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncRegistration increments the registration counter.
func (m *InMemoryRecorder) IncRegistration() {
	atomic.AddUint64(&m.registrations, 1)
}

// IncSubscriptionUpgrade increments the upgrade counter.
func (m *InMemoryRecorder) IncSubscriptionUpgrade() {
	atomic.AddUint64(&m.subscriptionUpgrades, 1)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// SortedLabels returns the keys of a labelled counter in order.
func SortedLabels(counts map[string]uint64) []string {
	labels := make([]string, 0, len(counts))
	for k := range counts {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return labels
}
