// Package observability exposes Prometheus metrics for the operation
// dispatcher and the billing webhook.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts operation invocations by name and outcome.
	// status is one of: ok, validation_error, auth_error,
	// insufficient_credits, transform_error, settle_error.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_operations_total",
		Help: "Operation invocations by operation name and outcome.",
	}, []string{"operation", "status"})

	// OperationSeconds measures handler execution time.
	OperationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_operation_seconds",
		Help:    "Handler execution time per operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// CreditsSpentTotal counts credits actually settled per operation.
	CreditsSpentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_credits_spent_total",
		Help: "Credits settled per operation.",
	}, []string{"operation"})

	// WebhookEventsTotal counts billing webhook deliveries by outcome
	// (applied, duplicate, rejected).
	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_webhook_events_total",
		Help: "Payment webhook deliveries by outcome.",
	}, []string{"status"})
)
