// Package metrics provides the prometheus collectors wired into the
// governance engine's components, namespaced and labeled the way
// internal/metrics/*.go instruments the teacher's ingestion pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	listenerBlockConnectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "block_connected_total",
		Help:      "Count of block_connected events processed.",
	}, []string{"status"})

	listenerBlockConnectedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "block_connected_duration_seconds",
		Help:      "Duration of processing a single connected block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	listenerBlockConnectedRecords = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "block_connected_records",
		Help:      "Proposals and votes accepted per connected block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"kind"})

	listenerBlockDisconnectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "block_disconnected_total",
		Help:      "Count of block_disconnected events processed.",
	}, []string{"status"})

	listenerBlockDisconnectedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "block_disconnected_duration_seconds",
		Help:      "Duration of processing a single disconnected block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	listenerInitialScanTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "initial_scan_total",
		Help:      "Count of initial governance-history scans.",
	}, []string{"status"})

	listenerInitialScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "initial_scan_duration_seconds",
		Help:      "Duration of the initial governance-history scan.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"status"})

	listenerInitialScanBlocks = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "initial_scan_blocks",
		Help:      "Number of blocks scanned during the initial governance-history scan.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
	})

	listenerRevalidationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "revalidation_total",
		Help:      "Count of post-scan vote revalidation passes.",
	}, []string{"status"})

	listenerRevalidationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "revalidation_duration_seconds",
		Help:      "Duration of the post-scan vote revalidation pass.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	listenerRevalidationVotesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "governance",
		Subsystem: "listener",
		Name:      "revalidation_votes_removed_total",
		Help:      "Count of votes removed for having a spent backing utxo.",
	})
)

// Listener tracks metrics for the chain listener. It implements chain.Metrics.
type Listener struct{}

// NewListener constructs a Listener metrics collector.
func NewListener() *Listener { return &Listener{} }

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveBlockConnected records a single block_connected event's outcome.
func (Listener) ObserveBlockConnected(err error, proposals, votes int, started time.Time) {
	status := statusOf(err)
	listenerBlockConnectedTotal.WithLabelValues(status).Inc()
	listenerBlockConnectedDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err == nil {
		listenerBlockConnectedRecords.WithLabelValues("proposals").Observe(float64(proposals))
		listenerBlockConnectedRecords.WithLabelValues("votes").Observe(float64(votes))
	}
}

// ObserveBlockDisconnected records a single block_disconnected event's outcome.
func (Listener) ObserveBlockDisconnected(err error, started time.Time) {
	status := statusOf(err)
	listenerBlockDisconnectedTotal.WithLabelValues(status).Inc()
	listenerBlockDisconnectedDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

// ObserveInitialScan records the outcome of the startup governance-history scan.
func (Listener) ObserveInitialScan(err error, blocksScanned int, started time.Time) {
	status := statusOf(err)
	listenerInitialScanTotal.WithLabelValues(status).Inc()
	listenerInitialScanDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err == nil {
		listenerInitialScanBlocks.Observe(float64(blocksScanned))
	}
}

// ObserveRevalidation records the outcome of a post-scan vote revalidation pass.
func (Listener) ObserveRevalidation(err error, votesChecked, votesRemoved int, started time.Time) {
	status := statusOf(err)
	listenerRevalidationTotal.WithLabelValues(status).Inc()
	listenerRevalidationDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err == nil {
		listenerRevalidationVotesRemoved.Add(float64(votesRemoved))
	}
}
