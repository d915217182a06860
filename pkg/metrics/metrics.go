// Package metrics exposes Prometheus counters for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the pipeline counters. A single instance is shared by the
// statement service and the auto-confirm sweep.
type Metrics struct {
	FilesDecoded     *prometheus.CounterVec
	BanksDetected    *prometheus.CounterVec
	RowsImported     prometheus.Counter
	RowsDropped      prometheus.Counter
	MatchesProposed  prometheus.Counter
	MatchesConfirmed *prometheus.CounterVec
}

// New registers the pipeline metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FilesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconcile",
			Name:      "files_decoded_total",
			Help:      "Statement files decoded, by file format.",
		}, []string{"format"}),
		BanksDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconcile",
			Name:      "banks_detected_total",
			Help:      "Bank profile detections, by profile id (generic when none).",
		}, []string{"bank"}),
		RowsImported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reconcile",
			Name:      "rows_imported_total",
			Help:      "Statement rows imported into batches.",
		}),
		RowsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reconcile",
			Name:      "rows_dropped_total",
			Help:      "Statement rows dropped as unparseable.",
		}),
		MatchesProposed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "reconcile",
			Name:      "matches_proposed_total",
			Help:      "Match proposals produced by the matcher.",
		}),
		MatchesConfirmed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconcile",
			Name:      "matches_confirmed_total",
			Help:      "Confirmed matches, by origin (manual or auto).",
		}, []string{"origin"}),
	}
}

// NewUnregistered builds metrics on a private registry, for tests and for
// code paths that do not export metrics.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
