package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the report module.
type Metrics struct {
	// Decisions by outcome and motif
	Decisions *prometheus.CounterVec

	// Fine amounts by occurrence tier actually billed
	InvoicedAmount *prometheus.CounterVec

	// Full confirmation latency, including rendering and persistence
	ConfirmLatency prometheus.Histogram
}

// New creates a Metrics instance with all report module metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contraventions_decisions_total",
			Help: "Report decisions by outcome and motif",
		}, []string{"outcome", "motif"}), // outcome: "confirmed", "dismissed"

		InvoicedAmount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contraventions_invoiced_amount_total",
			Help: "Total fine amount invoiced, in smallest currency units, by tier",
		}, []string{"tier"}),

		ConfirmLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "contraventions_confirm_duration_seconds",
			Help:    "Duration of report confirmation including invoice rendering",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementDecision records a confirm or dismiss outcome.
func (m *Metrics) IncrementDecision(outcome, motif string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome, motif).Inc()
	}
}

// AddInvoicedAmount records a billed fine under its tier.
func (m *Metrics) AddInvoicedAmount(tier string, amount int64) {
	if m != nil {
		m.InvoicedAmount.WithLabelValues(tier).Add(float64(amount))
	}
}

// ObserveConfirmLatency records the total confirmation duration.
func (m *Metrics) ObserveConfirmLatency(d time.Duration) {
	if m != nil {
		m.ConfirmLatency.Observe(d.Seconds())
	}
}
