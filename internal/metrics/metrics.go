// Package metrics holds the Prometheus instrumentation for the signal
// engine. All metrics are registered once at construction and exposed on the
// API server's /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rami12200/trading-signals-sub000/pkg/models"
)

// Metrics holds all Prometheus metrics for the signal engine
type Metrics struct {
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram

	SignalsTotal *prometheus.CounterVec // labels: action
	SkipsTotal   *prometheus.CounterVec // labels: reason

	ActionableGauge prometheus.Gauge
	UniverseGauge   prometheus.Gauge

	PublishErrors prometheus.Counter
	WSClients     prometheus.Gauge
}

// New registers and returns all engine metrics
func New() *Metrics {
	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_cycles_total",
			Help: "Total evaluation cycles completed",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_cycle_duration_seconds",
			Help:    "Evaluation cycle latency",
			Buckets: prometheus.DefBuckets,
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_signals_total",
			Help: "Signals produced (by action)",
		}, []string{"action"}),
		SkipsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_skips_total",
			Help: "Instruments skipped (by reason)",
		}, []string{"reason"}),
		ActionableGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sigengine_actionable_signals",
			Help: "Actionable signals in the latest cycle",
		}),
		UniverseGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sigengine_universe_size",
			Help: "Instruments in the configured universe",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_publish_errors_total",
			Help: "Failed NATS signal publishes",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sigengine_ws_clients",
			Help: "Connected WebSocket push clients",
		}),
	}

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.SignalsTotal,
		m.SkipsTotal,
		m.ActionableGauge,
		m.UniverseGauge,
		m.PublishErrors,
		m.WSClients,
	)

	return m
}

// ObserveBatch records the outcome of one evaluation cycle
func (m *Metrics) ObserveBatch(batch *models.Batch, took time.Duration) {
	m.CyclesTotal.Inc()
	m.CycleDuration.Observe(took.Seconds())
	m.ActionableGauge.Set(float64(len(batch.Actionable)))

	for _, sig := range batch.Signals {
		m.SignalsTotal.WithLabelValues(string(sig.Action)).Inc()
	}
	for _, s := range batch.Skipped {
		m.SkipsTotal.WithLabelValues(string(s.Reason)).Inc()
	}
}
