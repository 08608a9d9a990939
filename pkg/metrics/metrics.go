// Package metrics exposes Prometheus instruments for the ledger engines.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wallet"

type Metrics struct {
	transfersTotal     *prometheus.CounterVec
	transferredKobo    prometheus.Counter
	settlementsTotal   *prometheus.CounterVec
	settledKobo        *prometheus.CounterVec
	gatewayCallSeconds *prometheus.HistogramVec
	ambiguousTotal     *prometheus.CounterVec
}

// New registers the wallet instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transfersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transfer",
				Name:      "attempts_total",
				Help:      "Total transfer attempts partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		transferredKobo: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transfer",
				Name:      "amount_kobo_total",
				Help:      "Total amount moved by successful transfers, in kobo.",
			},
		),
		settlementsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "operations_total",
				Help:      "Total settlement operations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		settledKobo: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "amount_kobo_total",
				Help:      "Total amount settled with the gateway, in kobo.",
			},
			[]string{"operation"},
		),
		gatewayCallSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "call_duration_seconds",
				Help:      "Latency of payment gateway calls by operation and outcome.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
			},
			[]string{"operation", "outcome"},
		),
		ambiguousTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "ambiguous_total",
				Help:      "Settlements whose local outcome is unknown and need reconciliation.",
			},
			[]string{"operation"},
		),
	}
}

// Outcome is the label value for err: "success" or the error kind.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(domain.KindOf(err))
}

func (m *Metrics) ObserveTransfer(amount int64, err error) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		m.transferredKobo.Add(float64(amount))
	}
}

func (m *Metrics) ObserveSettlement(operation string, amount int64, err error) {
	if m == nil {
		return
	}
	m.settlementsTotal.WithLabelValues(operation, Outcome(err)).Inc()
	if err == nil && amount > 0 {
		m.settledKobo.WithLabelValues(operation).Add(float64(amount))
	}
}

// ObserveGatewayCall records the latency of one gateway round trip started at start.
func (m *Metrics) ObserveGatewayCall(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.gatewayCallSeconds.WithLabelValues(operation, Outcome(err)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveAmbiguous(operation string) {
	if m == nil {
		return
	}
	m.ambiguousTotal.WithLabelValues(operation).Inc()
}
