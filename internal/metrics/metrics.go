// Package metrics exposes the Prometheus counters and gauges textsync
// reports for its hub and transport layers.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector textsync registers.
// Grounded on zfogg-sidechain/backend/internal/metrics/metrics.go's
// sync.Once-guarded promauto singleton, re-scoped from that repo's
// HTTP/cache/Redis surface to the OT submit/session/document surface
// spec.md's components actually exercise.
type Metrics struct {
	SubmissionsTotal      prometheus.Counter
	RejectionsTotal       *prometheus.CounterVec
	SessionsActive        prometheus.Gauge
	DocumentsActive       prometheus.Gauge
	DocumentBytes         prometheus.Histogram
	BroadcastQueueDropped prometheus.Counter
	PersistDuration       prometheus.Histogram
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers every collector. Safe to call more
// than once; only the first call has any effect.
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			SubmissionsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "textsync_submissions_total",
				Help: "Total edit submissions received from clients, accepted or rejected.",
			}),
			RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "textsync_rejections_total",
				Help: "Total edit submissions rejected, labeled by reason.",
			}, []string{"reason"}),
			SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "textsync_sessions_active",
				Help: "Currently attached websocket sessions across all documents.",
			}),
			DocumentsActive: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "textsync_documents_active",
				Help: "Documents currently held in memory.",
			}),
			DocumentBytes: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "textsync_document_bytes",
				Help:    "Document size in bytes at time of persistence.",
				Buckets: prometheus.ExponentialBuckets(64, 4, 10),
			}),
			BroadcastQueueDropped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "textsync_broadcast_queue_dropped_total",
				Help: "Sessions detached because their outbound mailbox was full.",
			}),
			PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "textsync_persist_duration_seconds",
				Help:    "Time spent writing a document snapshot to storage.",
				Buckets: prometheus.DefBuckets,
			}),
		}
	})
	return instance
}

// get returns the singleton, initializing it on first use so callers
// never need to sequence Initialize() before every call site.
func get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}

// SubmissionReceived records an edit submission accepted for
// processing by a connection's read loop.
func SubmissionReceived() {
	get().SubmissionsTotal.Inc()
}

// SubmissionRejected records a submission refused with the given
// ot.Kind string ("BadRev", "BadOp", "Conflict", "TooLarge").
func SubmissionRejected(reason string) {
	get().RejectionsTotal.WithLabelValues(reason).Inc()
}

// SessionAttached increments the active-session gauge.
func SessionAttached() {
	get().SessionsActive.Inc()
}

// SessionDetached decrements the active-session gauge.
func SessionDetached() {
	get().SessionsActive.Dec()
}

// DocumentOpened increments the active-document gauge.
func DocumentOpened() {
	get().DocumentsActive.Inc()
}

// DocumentClosed decrements the active-document gauge.
func DocumentClosed() {
	get().DocumentsActive.Dec()
}

// DocumentPersisted records a document's size at the moment it was
// written to storage.
func DocumentPersisted(bytes int) {
	get().DocumentBytes.Observe(float64(bytes))
}

// BroadcastDropped records a session detached for a full mailbox.
func BroadcastDropped() {
	get().BroadcastQueueDropped.Inc()
}

// PersistTook records the wall-clock duration of a persistence write.
func PersistTook(seconds float64) {
	get().PersistDuration.Observe(seconds)
}
