package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// transitionsTotal tracks state machine transitions by controller and target status
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_fetch_transitions_total",
			Help: "Total number of fetch controller state transitions",
		},
		[]string{"controller", "status"},
	)

	// staleResponsesTotal tracks responses discarded by the generation gate
	staleResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_fetch_stale_responses_total",
			Help: "Total number of responses discarded because their generation was superseded",
		},
		[]string{"controller"},
	)

	// debounceSupersededTotal tracks scheduled calls replaced before firing
	debounceSupersededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_fetch_debounce_superseded_total",
			Help: "Total number of debounced calls superseded by a newer call",
		},
	)

	// debounceFiredTotal tracks debounced calls that ran
	debounceFiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_fetch_debounce_fired_total",
			Help: "Total number of debounced calls dispatched",
		},
	)
)
