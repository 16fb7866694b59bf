// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accredithub"

var (
	// DocumentsUploaded counts files stored for new or replaced documents.
	DocumentsUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_uploaded_total",
		Help:      "Files stored for documents.",
	})

	// ReviewDecisions counts reviewer decisions by entity and outcome
	// (approved, revision).
	ReviewDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_decisions_total",
		Help:      "Review decisions by entity and outcome.",
	}, []string{"entity", "outcome"})

	// Receipts counts receipts added by kind.
	Receipts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "receipts_total",
		Help:      "Receipts added to financial reports by kind.",
	}, []string{"kind"})

	// Provisioned counts per-profile records created on first access.
	Provisioned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provisioned_total",
		Help:      "Records created by find-or-create, by collection.",
	}, []string{"collection"})

	// FileDeleteFailures counts replaced files that could not be removed.
	FileDeleteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "file_delete_failures_total",
		Help:      "Replaced files left on disk after a failed delete.",
	})

	// OrphansResolved counts orphaned files later removed by the sweeper.
	OrphansResolved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphans_resolved_total",
		Help:      "Orphaned files removed by the sweeper.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
