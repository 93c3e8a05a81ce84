// Package metrics exposes prometheus instrumentation for the discovery loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FilterDecisions counts evaluated feed items by outcome:
	// skipped, unmatched, rejected (matched but not admitted) or surfaced.
	FilterDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_filter_decisions_total",
			Help: "Feed items evaluated by the interest filter, by outcome",
		},
		[]string{"outcome"},
	)

	// ProfileSaves counts interest profile writes by result.
	ProfileSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_profile_saves_total",
			Help: "Interest profile saves, by result",
		},
		[]string{"result"},
	)

	// FeedRequests counts API calls by endpoint and result.
	FeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discover_feed_requests_total",
			Help: "Requests made to the creation-tools API, by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	// FeedBreakerState is 0 closed, 1 half-open, 2 open.
	FeedBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discover_feed_circuit_breaker_state",
			Help: "Circuit breaker state of the feed client (0 closed, 1 half-open, 2 open)",
		},
	)
)
