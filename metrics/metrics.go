// Package metrics holds the Prometheus instruments for the grid bot.
//
// Exposed series:
//   - gridbot_orders_placed_total{side,reason}  orders accepted by the exchange (reason: initial|mirror)
//   - gridbot_fills_total{side}                 fills observed during reconciliation
//   - gridbot_poll_failures_total{side}         order status queries that failed after retries
//   - gridbot_stale_orders_total{side}          orders dropped for a non-fill terminal status
//   - gridbot_ledger_orders{side}               open orders currently in the ledger
//   - gridbot_passes_total                      completed reconciliation passes
//   - gridbot_pass_duration_seconds             wall time per pass
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ordersPlaced *prometheus.CounterVec
	fills        *prometheus.CounterVec
	pollFailures *prometheus.CounterVec
	stale        *prometheus.CounterVec
	ledgerOrders *prometheus.GaugeVec
	passes       prometheus.Counter
	passDuration prometheus.Histogram
}

// New creates the instruments and registers them with reg. A nil *Metrics
// is valid and records nothing.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridbot_orders_placed_total",
				Help: "Limit orders accepted by the exchange",
			},
			[]string{"side", "reason"},
		),
		fills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridbot_fills_total",
				Help: "Fills observed during reconciliation",
			},
			[]string{"side"},
		),
		pollFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridbot_poll_failures_total",
				Help: "Order status queries that failed after all retry attempts",
			},
			[]string{"side"},
		),
		stale: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridbot_stale_orders_total",
				Help: "Orders removed from the ledger for a terminal status other than filled",
			},
			[]string{"side"},
		),
		ledgerOrders: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridbot_ledger_orders",
				Help: "Open orders tracked in the ledger",
			},
			[]string{"side"},
		),
		passes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gridbot_passes_total",
				Help: "Completed reconciliation passes",
			},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridbot_pass_duration_seconds",
				Help:    "Wall time of one reconciliation pass",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			},
		),
	}
	reg.MustRegister(m.ordersPlaced, m.fills, m.pollFailures, m.stale, m.ledgerOrders, m.passes, m.passDuration)
	return m
}

func (m *Metrics) OrderPlaced(side, reason string) {
	if m == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(side, reason).Inc()
}

func (m *Metrics) Fill(side string) {
	if m == nil {
		return
	}
	m.fills.WithLabelValues(side).Inc()
}

func (m *Metrics) PollFailure(side string) {
	if m == nil {
		return
	}
	m.pollFailures.WithLabelValues(side).Inc()
}

func (m *Metrics) Stale(side string) {
	if m == nil {
		return
	}
	m.stale.WithLabelValues(side).Inc()
}

func (m *Metrics) LedgerSize(side string, n int) {
	if m == nil {
		return
	}
	m.ledgerOrders.WithLabelValues(side).Set(float64(n))
}

func (m *Metrics) PassDone(d time.Duration) {
	if m == nil {
		return
	}
	m.passes.Inc()
	m.passDuration.Observe(d.Seconds())
}
