package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "netty"
	subsystem = "http"
)

// invalidMethod labels requests that could not be parsed.
const invalidMethod = "INVALID"

// NewRegistry returns an empty registry for one server.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// NewProcessRegistry returns a registry that also carries the Go runtime and
// process collectors. Use it once per process, for the registry that is
// scraped.
func NewProcessRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the text or OpenMetrics format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// HostMetrics are the series an isolation host records. A nil *HostMetrics
// records nothing.
type HostMetrics struct {
	RequestsTotal   *prometheus.CounterVec   // method, status
	RequestDuration *prometheus.HistogramVec // method
	ResponseSize    *prometheus.HistogramVec // method
	InFlight        prometheus.Gauge
	ErrorsTotal     *prometheus.CounterVec // method
}

// NewHostMetrics creates the host series and registers them with reg.
// Registering twice with the same registry fails.
func NewHostMetrics(reg prometheus.Registerer) (*HostMetrics, error) {
	m := &HostMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Requests served, by method and response status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Time from accept to flush in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ResponseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "response_size_bytes",
			Help:      "Buffered response body sizes in bytes.",
			Buckets:   []float64{100, 1_000, 10_000, 100_000, 1_000_000},
		}, []string{"method"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connections_in_flight",
			Help:      "Connections currently being served.",
		}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_errors_total",
			Help:      "Requests whose processing failed.",
		}, []string{"method"}),
	}

	for _, c := range []prometheus.Collector{m.RequestsTotal, m.RequestDuration, m.ResponseSize, m.InFlight, m.ErrorsTotal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return m, nil
}

// ObserveRequest records one served request.
func (m *HostMetrics) ObserveRequest(method string, status, size int, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	if method == "" {
		method = invalidMethod
	}
	m.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
	m.ResponseSize.WithLabelValues(method).Observe(float64(size))
	if failed {
		m.ErrorsTotal.WithLabelValues(method).Inc()
	}
}

// ConnectionOpened marks a connection as being served.
func (m *HostMetrics) ConnectionOpened() {
	if m != nil {
		m.InFlight.Inc()
	}
}

// ConnectionClosed undoes ConnectionOpened.
func (m *HostMetrics) ConnectionClosed() {
	if m != nil {
		m.InFlight.Dec()
	}
}
