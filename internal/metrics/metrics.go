package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all dashboard client metrics
type Metrics struct {
	// Stream counters
	SessionsOpened  atomic.Uint64
	SessionErrors   atomic.Uint64
	SessionsClosed  atomic.Uint64
	FramesReceived  atomic.Uint64
	FramesRendered  atomic.Uint64
	FramesDropped   atomic.Uint64
	DecodeErrors    atomic.Uint64

	// Alert polling counters
	PollSuccesses atomic.Uint64
	PollFailures  atomic.Uint64
	PollsSkipped  atomic.Uint64
	AlertsSeen    atomic.Uint64

	// Upload counters
	UploadsStarted atomic.Uint64
	UploadsFailed  atomic.Uint64

	// Active session gauge
	ActiveSessions atomic.Uint64

	// Prometheus collectors
	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

// registerPrometheusMetrics registers all metrics with Prometheus
func (m *Metrics) registerPrometheusMetrics() {
	gauges := []struct {
		name string
		help string
		load func() uint64
	}{
		{"dashboard_sessions_opened_total", "Total stream sessions opened", m.SessionsOpened.Load},
		{"dashboard_session_errors_total", "Total stream sessions ended by transport error", m.SessionErrors.Load},
		{"dashboard_sessions_closed_total", "Total stream sessions closed by the operator", m.SessionsClosed.Load},
		{"dashboard_frames_received_total", "Total frame payloads received over stream sessions", m.FramesReceived.Load},
		{"dashboard_frames_rendered_total", "Total frames decoded and handed to the render sink", m.FramesRendered.Load},
		{"dashboard_frames_dropped_total", "Total frames dropped (decode failure or closed session)", m.FramesDropped.Load},
		{"dashboard_decode_errors_total", "Total malformed frame payloads", m.DecodeErrors.Load},
		{"dashboard_poll_successes_total", "Total successful alert poll fetches", m.PollSuccesses.Load},
		{"dashboard_poll_failures_total", "Total failed alert poll fetches", m.PollFailures.Load},
		{"dashboard_polls_skipped_total", "Total poll ticks skipped while a fetch was in flight", m.PollsSkipped.Load},
		{"dashboard_alerts_seen_total", "Total newly observed alerts", m.AlertsSeen.Load},
		{"dashboard_uploads_started_total", "Total target image uploads started", m.UploadsStarted.Load},
		{"dashboard_uploads_failed_total", "Total target image uploads that failed", m.UploadsFailed.Load},
		{"dashboard_active_sessions", "Stream sessions currently not closed", m.ActiveSessions.Load},
	}

	for _, g := range gauges {
		load := g.load
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: g.name, Help: g.help},
			func() float64 { return float64(load()) },
		))
	}
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts a metrics HTTP server on the given address (blocking)
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
