package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters on the default registry, served by the worker's
// /metrics endpoint. Telemetry that is dropped or suppressed by design
// is counted here instead of surfacing to callers.
var (
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gim_events_dropped_total",
		Help: "Recommendation events dropped for failing batch verification",
	})

	eventsDeduped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gim_events_deduped_total",
		Help: "Recommendation events suppressed by the delivery dedup key",
	})

	eventsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gim_events_queued_total",
		Help: "Recommendation events accepted onto the flush queue",
	})

	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gim_publish_failures_total",
		Help: "Broker publishes that failed after staging succeeded",
	})

	issuesEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gim_issues_embedded_total",
		Help: "Issues written to the corpus with a fresh embedding",
	})

	issuesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gim_issues_pruned_total",
		Help: "Issues deleted by the janitor's survival sweep",
	})
)
