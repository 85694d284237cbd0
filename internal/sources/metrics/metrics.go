// Package metrics provides observability for the source aggregator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the aggregator's Prometheus metrics.
type Metrics struct {
	// Provider queries by provider id and outcome: "ok", "filtered",
	// "cache_hit", "circuit_open".
	ProviderQueries *prometheus.CounterVec

	// Provider query latency by provider id.
	ProviderLatency *prometheus.HistogramVec

	// Aggregations that ended with an empty sample set.
	NoSources prometheus.Counter
}

// New creates and registers all aggregator metrics.
func New() *Metrics {
	return &Metrics{
		ProviderQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_sources_provider_queries_total",
			Help: "Price provider queries by outcome",
		}, []string{"provider", "outcome"}),

		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_sources_provider_latency_seconds",
			Help:    "Price provider query latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),

		NoSources: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_sources_no_sources_total",
			Help: "Aggregations aborted because every provider was unavailable",
		}),
	}
}

// ObserveQuery records one provider query.
func (m *Metrics) ObserveQuery(provider, outcome string, elapsed time.Duration) {
	if m != nil {
		m.ProviderQueries.WithLabelValues(provider, outcome).Inc()
		m.ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

// IncNoSources records an aggregation with no usable samples.
func (m *Metrics) IncNoSources() {
	if m != nil {
		m.NoSources.Inc()
	}
}
