package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the camera
// streaming core.
type Metrics struct {
	registry              *prometheus.Registry
	requestsTotal         prometheus.Counter
	errorsTotal           prometheus.Counter
	activeProcesses       prometheus.Gauge
	processesStartedTotal prometheus.Counter
	evictionsTotal        prometheus.Counter
	idleReclaimsTotal     prometheus.Counter
	tokenRejectionsTotal  prometheus.Counter
}

// New creates and registers Prometheus metrics for the streaming core.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "camstream_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "camstream_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	activeProcesses := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "camstream_transcode_processes_active",
		Help: "Number of transcode processes currently tracked by the supervisor",
	})
	processesStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "camstream_transcode_processes_started_total",
		Help: "Total number of transcode processes started",
	})
	evictionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "camstream_transcode_evictions_total",
		Help: "Total number of transcode processes evicted under the concurrency cap",
	})
	idleReclaimsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "camstream_transcode_idle_reclaims_total",
		Help: "Total number of transcode processes reclaimed for idleness",
	})
	tokenRejectionsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "camstream_token_rejections_total",
		Help: "Total number of stream asset requests rejected for token errors",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		activeProcesses,
		processesStartedTotal,
		evictionsTotal,
		idleReclaimsTotal,
		tokenRejectionsTotal,
	)

	return &Metrics{
		registry:              registry,
		requestsTotal:         requestsTotal,
		errorsTotal:           errorsTotal,
		activeProcesses:       activeProcesses,
		processesStartedTotal: processesStartedTotal,
		evictionsTotal:        evictionsTotal,
		idleReclaimsTotal:     idleReclaimsTotal,
		tokenRejectionsTotal:  tokenRejectionsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// SetActiveProcesses sets the active transcode processes gauge.
func (m *Metrics) SetActiveProcesses(n int) {
	m.activeProcesses.Set(float64(n))
}

// IncProcessesStarted increments the processes started counter.
func (m *Metrics) IncProcessesStarted() {
	m.processesStartedTotal.Inc()
}

// IncEvictions increments the eviction counter.
func (m *Metrics) IncEvictions() {
	m.evictionsTotal.Inc()
}

// IncIdleReclaims increments the idle reclamation counter.
func (m *Metrics) IncIdleReclaims() {
	m.idleReclaimsTotal.Inc()
}

// IncTokenRejections increments the token rejection counter.
func (m *Metrics) IncTokenRejections() {
	m.tokenRejectionsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values
// (e.g. active transcode processes).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
