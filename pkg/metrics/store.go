package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records persistence and eventing activity for the data layer.
type StoreMetrics struct {
	writes        *prometheus.CounterVec
	writeFailures *prometheus.CounterVec
	prunedDrafts  prometheus.Counter
	payouts       prometheus.Counter
	events        *prometheus.CounterVec
}

// NewStoreMetrics registers the data-layer metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_writes_total",
		Help: "Collection writes by key.",
	}, []string{"key"})
	writeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_write_failures_total",
		Help: "Failed collection writes by key.",
	}, []string{"key"})
	prunedDrafts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "design_drafts_pruned_total",
		Help: "Draft designs evicted under storage pressure.",
	})
	payouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payouts_derived_total",
		Help: "Creator payouts derived from paid orders.",
	})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Event bus publishes by topic.",
	}, []string{"topic"})
	reg.MustRegister(writes, writeFailures, prunedDrafts, payouts, events)
	return &StoreMetrics{
		writes:        writes,
		writeFailures: writeFailures,
		prunedDrafts:  prunedDrafts,
		payouts:       payouts,
		events:        events,
	}
}

// IncWrite counts a successful collection write.
func (m *StoreMetrics) IncWrite(key string) {
	if m == nil || m.writes == nil {
		return
	}
	m.writes.WithLabelValues(normalizeLabel(key)).Inc()
}

// IncWriteFailure counts a failed collection write.
func (m *StoreMetrics) IncWriteFailure(key string) {
	if m == nil || m.writeFailures == nil {
		return
	}
	m.writeFailures.WithLabelValues(normalizeLabel(key)).Inc()
}

// IncPrunedDraft counts a draft evicted by the degradation policy.
func (m *StoreMetrics) IncPrunedDraft() {
	if m == nil || m.prunedDrafts == nil {
		return
	}
	m.prunedDrafts.Inc()
}

// IncPayoutDerived counts a newly derived creator payout.
func (m *StoreMetrics) IncPayoutDerived() {
	if m == nil || m.payouts == nil {
		return
	}
	m.payouts.Inc()
}

// IncEventPublished counts a bus publish for the topic.
func (m *StoreMetrics) IncEventPublished(topic string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(topic)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
