// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// IntentsRecordedTotal tracks booking intents written to the durable store.
	IntentsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_intents_recorded_total",
			Help: "Total booking intents written to the durable store",
		},
	)

	// ConversationsResolvedTotal tracks conversation resolutions by outcome.
	ConversationsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_resolved_total",
			Help: "Total conversation resolutions",
		},
		[]string{"outcome"},
	)

	// PendingIntentsMerged tracks pending intents merged into conversations.
	PendingIntentsMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pending_intents_merged_total",
			Help: "Total pending intents merged into conversations",
		},
	)

	// MessagesTotal tracks total messages appended by sender.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages appended",
		},
		[]string{"sender"},
	)

	// CorruptReadsTotal tracks durable store values that failed to decode.
	CorruptReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "durable_corrupt_reads_total",
			Help: "Durable store reads treated as absent because the value was corrupt",
		},
		[]string{"backend"},
	)

	// ExternalChangesTotal tracks external-change notifications delivered.
	ExternalChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "durable_external_changes_total",
			Help: "External change notifications delivered to subscribers",
		},
		[]string{"backend"},
	)

	// WatchersActive tracks registered external-change subscriptions.
	WatchersActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "durable_watchers_active",
			Help: "Number of active external-change subscriptions",
		},
		[]string{"backend"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordResolution records a resolver outcome and how many intents it merged.
func RecordResolution(outcome string, merged int) {
	ConversationsResolvedTotal.WithLabelValues(outcome).Inc()
	if merged > 0 {
		PendingIntentsMerged.Add(float64(merged))
	}
}
