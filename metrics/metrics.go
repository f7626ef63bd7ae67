// Package metrics defines the engine's Prometheus instrumentation.
//
// Counters are registered on the default registry and exposed by the API
// server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsApplied counts mirror replacements per collection.
	SnapshotsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "snapshots_applied_total",
		Help:      "Collection snapshots applied to the in-memory mirror.",
	}, []string{"collection"})

	// SubscriptionErrors counts transient subscription failures. The mirror
	// keeps its last-known-good state when one occurs.
	SubscriptionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "subscription_errors_total",
		Help:      "Transient subscription failures reported to the mirror.",
	})

	// Commits counts write batches by outcome.
	Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger",
		Name:      "commits_total",
		Help:      "Write batches committed through the transactional writer.",
	}, []string{"kind", "outcome"})
)

// ObserveCommit records one writer commit outcome.
func ObserveCommit(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Commits.WithLabelValues(kind, outcome).Inc()
}
