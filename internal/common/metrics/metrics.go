// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_classifications_total",
			Help: "Total number of classified requests by intent and action",
		},
		[]string{"intent", "action"},
	)

	CacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_classification_cache_events_total",
			Help: "Classification cache hits, misses, expiries and clears",
		},
		[]string{"event"},
	)

	RouteResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_route_resolutions_total",
			Help: "Total number of resolved routes by kind",
		},
		[]string{"kind"},
	)

	RouteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_route_failures_total",
			Help: "Total number of route resolution failures by reason",
		},
		[]string{"reason"},
	)

	WorkflowTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_workflow_transitions_total",
			Help: "Total number of workflow state transitions",
		},
		[]string{"from", "to"},
	)

	ClassificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "router_classification_duration_seconds",
			Help: "Duration of request classification in seconds",
		},
	)
)
