// Package metrics exports sweep activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/maintd/internal/ports/secondary"
)

const namespace = "maintd"

// SweepMetrics implements secondary.SweepObserver on a private registry.
type SweepMetrics struct {
	registry *prometheus.Registry

	escalations  *prometheus.CounterVec
	conflicts    prometheus.Counter
	logFailures  prometheus.Counter
	droppedTicks prometheus.Counter
	sweeps       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	lastSuccess  prometheus.Gauge
}

// NewSweepMetrics creates the collectors and registers them on a new registry.
func NewSweepMetrics() *SweepMetrics {
	m := &SweepMetrics{
		registry: prometheus.NewRegistry(),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Level advances applied, by target level.",
		}, []string{"to_level"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalation_conflicts_total",
			Help:      "Conditional writes rejected because the request changed after selection.",
		}),
		logFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalation_log_failures_total",
			Help:      "Level advances whose audit entry could not be stored.",
		}),
		droppedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_ticks_dropped_total",
			Help:      "Timer ticks skipped because a sweep was still running.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Completed sweeps, by trigger and outcome.",
		}, []string{"trigger", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Sweep wall time.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"trigger"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_sweep_timestamp_seconds",
			Help:      "Unix time of the last sweep that finished without error.",
		}),
	}

	m.registry.MustRegister(
		m.escalations,
		m.conflicts,
		m.logFailures,
		m.droppedTicks,
		m.sweeps,
		m.duration,
		m.lastSuccess,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry holding the sweep collectors.
func (m *SweepMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *SweepMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SweepMetrics) OnEscalate(_ string, _, to int) {
	m.escalations.WithLabelValues(strconv.Itoa(to)).Inc()
}

func (m *SweepMetrics) OnConflict(string) {
	m.conflicts.Inc()
}

func (m *SweepMetrics) OnLogFailure(string) {
	m.logFailures.Inc()
}

func (m *SweepMetrics) OnSweepComplete(trigger string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		m.lastSuccess.SetToCurrentTime()
	}
	m.sweeps.WithLabelValues(trigger, outcome).Inc()
	m.duration.WithLabelValues(trigger).Observe(d.Seconds())
}

func (m *SweepMetrics) OnTickDropped() {
	m.droppedTicks.Inc()
}

// Ensure SweepMetrics implements the interface
var _ secondary.SweepObserver = (*SweepMetrics)(nil)
