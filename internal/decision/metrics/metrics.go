// Package metrics provides observability for the decision module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the decision module's Prometheus metrics.
type Metrics struct {
	// Evidence gathering latencies by path: "sources", "trust".
	EvidenceLatency *prometheus.HistogramVec

	// Evaluations by verdict (APPROVE, CAUTION, REJECT) or "error".
	Evaluations *prometheus.CounterVec

	// Full evaluation latency including evidence gathering.
	EvaluateLatency prometheus.Histogram
}

// New creates and registers all decision metrics.
func New() *Metrics {
	return &Metrics{
		EvidenceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_decision_evidence_duration_seconds",
			Help:    "Duration of evidence gathering by path",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"path"}),

		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_decision_evaluations_total",
			Help: "Total evaluations by verdict",
		}, []string{"verdict"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vouch_decision_evaluate_duration_seconds",
			Help:    "Duration of full evaluation including evidence gathering",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveEvidenceLatency records the duration of one evidence path.
func (m *Metrics) ObserveEvidenceLatency(path string, d time.Duration) {
	if m != nil {
		m.EvidenceLatency.WithLabelValues(path).Observe(d.Seconds())
	}
}

// ObserveEvaluation records an evaluation result and its total duration.
func (m *Metrics) ObserveEvaluation(verdict string, d time.Duration) {
	if m != nil {
		m.Evaluations.WithLabelValues(verdict).Inc()
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
