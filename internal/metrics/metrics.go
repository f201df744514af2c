// Package metrics exposes prometheus instrumentation for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artemis_chat_requests_total",
			Help: "Conversational exchanges by outcome",
		},
		[]string{"outcome"},
	)

	CompletionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "artemis_completion_latency_seconds",
			Help: "Completion service round-trip latency in seconds",
		},
	)

	OperationsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artemis_operations_executed_total",
			Help: "Confirmed proposal operations by type and result",
		},
		[]string{"type", "result"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "artemis_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)
)
