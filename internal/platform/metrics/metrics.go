package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the overlay studio.
type Metrics struct {
	registry               *prometheus.Registry
	requestDuration        prometheus.Histogram
	requestsTotal          prometheus.Counter
	overlaysCreatedTotal   prometheus.Counter
	overlaysDeletedTotal   prometheus.Counter
	overlayUpdatesTotal    prometheus.Counter
	gesturesCompletedTotal prometheus.Counter
	streamsActivatedTotal  prometheus.Counter
	activeOverlays         prometheus.Gauge
	activeSessions         prometheus.Gauge
	errorsTotal            prometheus.Counter
}

// New creates and registers Prometheus metrics for the studio.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamoverlay_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	})
	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamoverlay_requests_total",
		Help: "Total number of HTTP requests received",
	})
	overlaysCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamoverlay_overlays_created_total",
		Help: "Total number of overlays created",
	})
	overlaysDeletedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamoverlay_overlays_deleted_total",
		Help: "Total number of overlays deleted",
	})
	overlayUpdatesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamoverlay_overlay_updates_total",
		Help: "Total number of partial overlay updates applied",
	})
	gesturesCompletedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamoverlay_gestures_completed_total",
		Help: "Total number of completed move/resize gestures",
	})
	streamsActivatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamoverlay_streams_activated_total",
		Help: "Total number of stream addresses activated",
	})
	activeOverlays := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streamoverlay_active_overlays",
		Help: "Number of overlay records currently stored",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "streamoverlay_active_sessions",
		Help: "Number of live authenticated sessions",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "streamoverlay_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestDuration,
		requestsTotal,
		overlaysCreatedTotal,
		overlaysDeletedTotal,
		overlayUpdatesTotal,
		gesturesCompletedTotal,
		streamsActivatedTotal,
		activeOverlays,
		activeSessions,
		errorsTotal,
	)

	return &Metrics{
		registry:               registry,
		requestDuration:        requestDuration,
		requestsTotal:          requestsTotal,
		overlaysCreatedTotal:   overlaysCreatedTotal,
		overlaysDeletedTotal:   overlaysDeletedTotal,
		overlayUpdatesTotal:    overlayUpdatesTotal,
		gesturesCompletedTotal: gesturesCompletedTotal,
		streamsActivatedTotal:  streamsActivatedTotal,
		activeOverlays:         activeOverlays,
		activeSessions:         activeSessions,
		errorsTotal:            errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// ObserveRequestDuration records one request's latency.
func (m *Metrics) ObserveRequestDuration(seconds float64) {
	m.requestDuration.Observe(seconds)
}

// IncOverlaysCreated increments the overlays created counter.
func (m *Metrics) IncOverlaysCreated() {
	m.overlaysCreatedTotal.Inc()
}

// IncOverlaysDeleted increments the overlays deleted counter.
func (m *Metrics) IncOverlaysDeleted() {
	m.overlaysDeletedTotal.Inc()
}

// IncOverlayUpdates increments the overlay updates counter.
func (m *Metrics) IncOverlayUpdates() {
	m.overlayUpdatesTotal.Inc()
}

// IncGesturesCompleted increments the completed gestures counter.
func (m *Metrics) IncGesturesCompleted() {
	m.gesturesCompletedTotal.Inc()
}

// IncStreamsActivated increments the streams activated counter.
func (m *Metrics) IncStreamsActivated() {
	m.streamsActivatedTotal.Inc()
}

// SetActiveOverlays sets the stored overlays gauge.
func (m *Metrics) SetActiveOverlays(n int) {
	m.activeOverlays.Set(float64(n))
}

// SetActiveSessions sets the live sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
