// Package metrics provides observability for the ledger module.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger module's Prometheus metrics.
type Metrics struct {
	// Requests created by kind: "plain" or "confidential".
	RequestsCreated *prometheus.CounterVec

	// Fulfillments by outcome: "approved" or "rejected".
	Fulfillments *prometheus.CounterVec

	// Reveals and reviews accepted.
	Reveals prometheus.Counter
	Reviews prometheus.Counter

	// Rejected writes by error code (already_fulfilled, unauthorized, ...).
	WriteConflicts *prometheus.CounterVec
}

// New creates and registers all ledger metrics.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_ledger_requests_created_total",
			Help: "Total purchase requests accepted by the ledger",
		}, []string{"kind"}),

		Fulfillments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_ledger_fulfillments_total",
			Help: "Total oracle fulfillments recorded",
		}, []string{"outcome"}),

		Reveals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_ledger_reveals_total",
			Help: "Total successful commitment reveals",
		}),

		Reviews: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_ledger_reviews_total",
			Help: "Total reviews accepted",
		}),

		WriteConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_ledger_rejected_writes_total",
			Help: "Ledger writes rejected by guard checks, by error code",
		}, []string{"code"}),
	}
}

// IncRequestCreated records an accepted request.
func (m *Metrics) IncRequestCreated(kind string) {
	if m != nil {
		m.RequestsCreated.WithLabelValues(kind).Inc()
	}
}

// IncFulfillment records a fulfillment outcome.
func (m *Metrics) IncFulfillment(outcome string) {
	if m != nil {
		m.Fulfillments.WithLabelValues(outcome).Inc()
	}
}

// IncReveal records a successful reveal.
func (m *Metrics) IncReveal() {
	if m != nil {
		m.Reveals.Inc()
	}
}

// IncReview records an accepted review.
func (m *Metrics) IncReview() {
	if m != nil {
		m.Reviews.Inc()
	}
}

// IncRejectedWrite records a guard-rejected write.
func (m *Metrics) IncRejectedWrite(code string) {
	if m != nil {
		m.WriteConflicts.WithLabelValues(code).Inc()
	}
}
