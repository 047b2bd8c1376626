// Package metrics exposes bridge engine telemetry as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/holobridge/internal/bridge"
)

const namespace = "holobridge"

// Metrics holds the Prometheus collectors for the engine. It implements
// bridge.Observer so it can be handed straight to bridge.New.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	transportFailures *prometheus.CounterVec
	protocolFailures  *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	connected         prometheus.Gauge
	transitionsTotal  *prometheus.CounterVec
	eventsTotal       *prometheus.CounterVec
	displays          prometheus.Gauge
	holographic       prometheus.Gauge
	apiRequestsTotal  prometheus.Counter
	apiErrorsTotal    prometheus.Counter
}

var _ bridge.Observer = (*Metrics)(nil)

// New creates and registers the collectors on a private registry, along
// with the Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_requests_total",
			Help:      "Requests sent to the Bridge daemon, by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		transportFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_transport_failures_total",
			Help:      "Requests that could not reach the daemon",
		}, []string{"endpoint"}),
		protocolFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_protocol_failures_total",
			Help:      "Responses the engine could not parse",
		}, []string{"endpoint"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bridge_request_duration_seconds",
			Help:      "Round-trip time of Bridge requests",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bridge_connected",
			Help:      "1 when the last request reached the daemon",
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_connection_transitions_total",
			Help:      "Connection state changes, by new state",
		}, []string{"state"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_events_total",
			Help:      "Push events dispatched, by event name",
		}, []string{"event"}),
		displays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "displays",
			Help:      "Displays in the registry",
		}),
		holographic: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "holographic_displays",
			Help:      "Holographic displays in the registry",
		}),
		apiRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Requests served by the control API",
		}),
		apiErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Control API responses with status 4xx or 5xx",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.transportFailures,
		m.protocolFailures,
		m.requestDuration,
		m.connected,
		m.transitionsTotal,
		m.eventsTotal,
		m.displays,
		m.holographic,
		m.apiRequestsTotal,
		m.apiErrorsTotal,
	)
	return m
}

// RequestCompleted implements bridge.Observer.
func (m *Metrics) RequestCompleted(endpoint string, outcome bridge.Outcome, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(endpoint, string(outcome)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	switch outcome {
	case bridge.OutcomeTransport:
		m.transportFailures.WithLabelValues(endpoint).Inc()
	case bridge.OutcomeProtocol:
		m.protocolFailures.WithLabelValues(endpoint).Inc()
	}
}

// ConnectionChanged implements bridge.Observer.
func (m *Metrics) ConnectionChanged(connected bool) {
	state := "disconnected"
	value := 0.0
	if connected {
		state = "connected"
		value = 1
	}
	m.connected.Set(value)
	m.transitionsTotal.WithLabelValues(state).Inc()
}

// EventDispatched implements bridge.Observer.
func (m *Metrics) EventDispatched(event string) {
	m.eventsTotal.WithLabelValues(event).Inc()
}

// SetDisplays records the registry size.
func (m *Metrics) SetDisplays(total, holographic int) {
	m.displays.Set(float64(total))
	m.holographic.Set(float64(holographic))
}

// IncAPIRequests increments the control API request counter.
func (m *Metrics) IncAPIRequests() {
	m.apiRequestsTotal.Inc()
}

// IncAPIErrors increments the control API error counter.
func (m *Metrics) IncAPIErrors() {
	m.apiErrorsTotal.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an http.Handler that serves the metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	inner := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		inner.ServeHTTP(w, r)
	})
}
