package handler

import (
	"bufio"
	"fmt"
	"net/http"

	"github.com/autodoc/autodoc/internal/metrics"
)

// MetricsHandler serves the in-memory counters in the Prometheus text format.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics writes one family per counter, each with HELP and TYPE lines.
//
// GET /metrics (admin only)
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		writeErrorJSON(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "metrics are not enabled")
		return
	}
	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	e := exposition{w: bufio.NewWriter(w)}

	e.family("autodoc_documents_generated_total", "counter", "Documents generated, by document type.")
	e.labeled("autodoc_documents_generated_total", "type", snap.DocumentsGenerated)

	e.family("autodoc_generation_rejected_total", "counter", "Generation requests refused, by reason.")
	e.labeled("autodoc_generation_rejected_total", "reason", snap.GenerationsRejected)

	e.family("autodoc_document_status_changes_total", "counter", "Document status transitions, by target status.")
	e.labeled("autodoc_document_status_changes_total", "to", snap.StatusChanges)

	e.family("autodoc_render_duration_seconds", "summary", "Time spent rendering documents.")
	e.sample("autodoc_render_duration_seconds_count", "", "%d", snap.RenderDurationCount)
	e.sample("autodoc_render_duration_seconds_sum", "", "%.6f", float64(snap.RenderDurationTotalNs)/1e9)

	e.family("autodoc_logins_total", "counter", "Login attempts, by outcome.")
	e.sample("autodoc_logins_total", `outcome="`+metrics.OutcomeSuccess+`"`, "%d", snap.LoginsSucceeded)
	e.sample("autodoc_logins_total", `outcome="`+metrics.OutcomeFailure+`"`, "%d", snap.LoginsFailed)

	e.family("autodoc_registrations_total", "counter", "Accounts created.")
	e.sample("autodoc_registrations_total", "", "%d", snap.Registrations)

	e.family("autodoc_subscription_upgrades_total", "counter", "PRO subscriptions purchased.")
	e.sample("autodoc_subscription_upgrades_total", "", "%d", snap.SubscriptionUpgrades)

	_ = e.w.Flush()
}

// exposition writes the text format. Write errors mean the client went away
// and are ignored.
type exposition struct {
	w *bufio.Writer
}

func (e exposition) family(name, kind, help string) {
	_, _ = fmt.Fprintf(e.w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func (e exposition) sample(name, labels, format string, value any) {
	if labels != "" {
		name += "{" + labels + "}"
	}
	_, _ = fmt.Fprintf(e.w, "%s "+format+"\n", name, value)
}

// labeled writes one sample per label value, sorted so scrapes are stable.
func (e exposition) labeled(name, label string, counts map[string]uint64) {
	for _, k := range metrics.SortedLabels(counts) {
		e.sample(name, fmt.Sprintf("%s=%q", label, k), "%d", counts[k])
	}
}
