// Package metrics exposes Prometheus instrumentation for the refresh
// loop and the boards it produces.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors on a private registry so the process
// exposes exactly what it registers, without default Go runtime noise
// colliding across tests.
type Metrics struct {
	registry *prometheus.Registry

	pollsTotal          prometheus.Counter
	pollFailures        prometheus.Counter
	consecutiveFailures prometheus.Gauge
	normalizeSkips      prometheus.Counter
	reconcileDuration   prometheus.Histogram
	boardEntries        prometheus.Gauge
	feedAge             prometheus.Gauge
	schedulerState      prometheus.Gauge
}

// New creates the collectors and registers them.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "board_polls_total",
			Help: "Realtime feed poll attempts.",
		}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "board_poll_failures_total",
			Help: "Realtime feed poll attempts that failed.",
		}),
		consecutiveFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_consecutive_poll_failures",
			Help: "Failed polls since the last success.",
		}),
		normalizeSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "board_normalize_skipped_trips_total",
			Help: "Trip updates dropped during normalization.",
		}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "board_reconcile_duration_seconds",
			Help:    "Time spent merging schedule and realtime into a board.",
			Buckets: prometheus.DefBuckets,
		}),
		boardEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_entries",
			Help: "Rows on the most recently published board.",
		}),
		feedAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_feed_age_seconds",
			Help: "Age of the realtime feed behind the current board.",
		}),
		schedulerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_scheduler_state",
			Help: "Refresh scheduler state (0 initializing, 1 polling, 2 backoff, 3 shutdown).",
		}),
	}
	m.registry.MustRegister(
		m.pollsTotal,
		m.pollFailures,
		m.consecutiveFailures,
		m.normalizeSkips,
		m.reconcileDuration,
		m.boardEntries,
		m.feedAge,
		m.schedulerState,
	)
	return m
}

func (m *Metrics) PollStarted() { m.pollsTotal.Inc() }

func (m *Metrics) PollFailed() { m.pollFailures.Inc() }

func (m *Metrics) SetConsecutiveFailures(n int) {
	m.consecutiveFailures.Set(float64(n))
}
func (m *Metrics) AddNormalizeSkips(n int) {
	m.normalizeSkips.Add(float64(n))
}
func (m *Metrics) ObserveReconcile(d time.Duration) {
	m.reconcileDuration.Observe(d.Seconds())
}
func (m *Metrics) SetBoardEntries(n int) { m.boardEntries.Set(float64(n)) }
func (m *Metrics) SetFeedAge(d time.Duration) {
	m.feedAge.Set(d.Seconds())
}
func (m *Metrics) SetSchedulerState(s int) {
	m.schedulerState.Set(float64(s))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs a metrics endpoint on addr; it blocks like
// http.ListenAndServe.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
