// Package metrics exposes ledger activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sealedger/internal/core/entity"
)

const namespace = "sealedger"

// Metrics implements storage.TxObserver, registers.MovementObserver and
// mobilemoney.Observer on its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	transactions  *prometheus.CounterVec
	txDuration    *prometheus.HistogramVec
	movements     *prometheus.CounterVec
	disbursements *prometheus.CounterVec
	disburseTime  prometheus.Histogram
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Top-level transactions by mode and outcome.",
		}, []string{"mode", "outcome"}),
		txDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Transaction latency including the commit.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"mode"}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Committed stock movements by ledger and type.",
		}, []string{"ledger", "type"}),
		disbursements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disbursements_total",
			Help:      "Mobile money disbursement attempts by outcome.",
		}, []string{"outcome"}),
		disburseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "disbursement_duration_seconds",
			Help:      "Mobile money provider round trip.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.transactions, m.txDuration, m.movements, m.disbursements, m.disburseTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TransactionFinished records a top-level transaction.
func (m *Metrics) TransactionFinished(mode, outcome string, elapsed time.Duration) {
	m.transactions.WithLabelValues(mode, outcome).Inc()
	m.txDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// MovementsPosted records committed stock movements.
func (m *Metrics) MovementsPosted(ledger string, typ entity.MovementType, count int) {
	m.movements.WithLabelValues(ledger, string(typ)).Add(float64(count))
}

// DisbursementFinished records one provider call.
func (m *Metrics) DisbursementFinished(outcome string, elapsed time.Duration) {
	m.disbursements.WithLabelValues(outcome).Inc()
	m.disburseTime.Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
