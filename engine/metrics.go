package engine

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCommitted = "committed"
	outcomeAborted   = "aborted"
	outcomeQuery     = "query"
)

/*
Metrics collects engine counters. Nil *Metrics is valid and doesn't
record anything.
*/
type Metrics struct {
	transactions *prometheus.CounterVec
	calls        *prometheus.CounterVec
	duration     prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "blueprints_transactions_total", Help: "Executed transactions by outcome"},
			[]string{"outcome"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "blueprints_calls_total", Help: "Component method calls"},
			[]string{"blueprint", "method"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "blueprints_transaction_duration_seconds", Help: "Transaction execution duration", Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.transactions, m.calls, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("registering metrics: %w", err)
			}
		}
	}
	return m, nil
}

func (m *Metrics) txDone(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) call(blueprint, method string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(blueprint, method).Inc()
}
