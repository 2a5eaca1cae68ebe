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
			Name:    "bridge_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// WebhooksTotal tracks inbound helpdesk webhooks by outcome.
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_webhooks_total",
			Help: "Inbound helpdesk webhooks by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	// MessagesRoutedTotal tracks messages routed between Teams and backends.
	MessagesRoutedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_messages_routed_total",
			Help: "Messages routed between Teams and helpdesk backends",
		},
		[]string{"platform", "direction"},
	)

	// ConversationsCreatedTotal tracks new backend conversations.
	ConversationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_conversations_created_total",
			Help: "Backend conversations created from Teams chats",
		},
		[]string{"platform"},
	)

	// BackendRequestDuration tracks helpdesk API call latency.
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_backend_request_duration_seconds",
			Help:    "Helpdesk backend API call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"platform", "operation", "status"},
	)

	// RetriesTotal tracks retried backend calls.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_retries_total",
			Help: "Retried helpdesk backend calls",
		},
		[]string{"operation"},
	)

	// AttachmentsTotal tracks relayed attachments by kind.
	AttachmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_attachments_total",
			Help: "Attachments relayed to helpdesk backends",
		},
		[]string{"platform", "kind"},
	)

	// SignatureFailuresTotal tracks webhook signature verification failures.
	SignatureFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_signature_failures_total",
			Help: "Webhook signature verification failures",
		},
		[]string{"platform"},
	)

	// DedupDropsTotal tracks webhooks dropped as duplicates.
	DedupDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_dedup_drops_total",
			Help: "Webhooks dropped by message deduplication",
		},
		[]string{"platform"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordWebhook records an inbound webhook outcome.
func RecordWebhook(platform, outcome string) {
	WebhooksTotal.WithLabelValues(platform, outcome).Inc()
}

// RecordBackendRequest records a helpdesk API call.
func RecordBackendRequest(platform, operation, status string, duration float64) {
	BackendRequestDuration.WithLabelValues(platform, operation, status).Observe(duration)
}
