// Package metrics holds the Prometheus collectors for the ledger, the
// scanner and notification delivery.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultDropped  = "dropped"
)

// Metrics holds all Prometheus metrics for gridsniper. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	LedgerOps         *prometheus.CounterVec // labels: op, result
	ActiveSlots       prometheus.Gauge
	AccumulatedProfit prometheus.Gauge

	ScanDuration prometheus.Histogram
	ScanResults  *prometheus.CounterVec // labels: result

	NotifyTotal *prometheus.CounterVec // labels: result
}

// New registers and returns all metrics on a private registry, so several
// instances can coexist in one process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LedgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridsniper_ledger_ops_total",
			Help: "Ledger operations by op and result",
		}, []string{"op", "result"}),
		ActiveSlots: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridsniper_ledger_active_slots",
			Help: "Number of Active grid slots",
		}),
		AccumulatedProfit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gridsniper_ledger_accumulated_profit",
			Help: "Realized profit accumulated by the ledger",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridsniper_scan_duration_seconds",
			Help:    "Per-ticker scan latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ScanResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridsniper_scan_results_total",
			Help: "Scan results by outcome",
		}, []string{"result"}),
		NotifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridsniper_notify_total",
			Help: "Notification deliveries by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.LedgerOps,
		m.ActiveSlots,
		m.AccumulatedProfit,
		m.ScanDuration,
		m.ScanResults,
		m.NotifyTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) LedgerOp(op, result string) {
	if m == nil {
		return
	}
	m.LedgerOps.WithLabelValues(op, result).Inc()
}

// LedgerState records the gauges after a committed mutation.
func (m *Metrics) LedgerState(active int, profit float64) {
	if m == nil {
		return
	}
	m.ActiveSlots.Set(float64(active))
	m.AccumulatedProfit.Set(profit)
}

// ScanResult records one ticker scan. result is an action name,
// "insufficient_data" or "error".
func (m *Metrics) ScanResult(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
	m.ScanResults.WithLabelValues(result).Inc()
}

func (m *Metrics) Notify(result string) {
	if m == nil {
		return
	}
	m.NotifyTotal.WithLabelValues(result).Inc()
}
