// Package metrics exposes Prometheus collectors for the admin shell.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "miniapp_admin",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "miniapp_admin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "miniapp_admin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	pageRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "miniapp_admin",
			Subsystem: "pages",
			Name:      "renders_total",
			Help:      "Total number of page component renders.",
		},
		[]string{"component", "result"},
	)

	sessionVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "miniapp_admin",
			Subsystem: "session",
			Name:      "verifications_total",
			Help:      "Total number of initData payloads forwarded for verification.",
		},
		[]string{"result"},
	)

	sessionVerifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "miniapp_admin",
			Subsystem: "session",
			Name:      "verification_duration_seconds",
			Help:      "Round-trip time of initData verification.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		pageRenders,
		sessionVerifications,
		sessionVerifyDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Metrics is the handle injected into middleware. It records into the package collectors.
type Metrics struct{}

// New returns a Metrics handle.
func New() *Metrics {
	return &Metrics{}
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// IncrementInFlight marks the start of a request.
func (m *Metrics) IncrementInFlight() {
	httpInFlight.Inc()
}

// DecrementInFlight marks the end of a request.
func (m *Metrics) DecrementInFlight() {
	httpInFlight.Dec()
}

// RecordHTTPRequest records a completed request against its route template.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPageRender records the outcome of rendering a page component.
func RecordPageRender(component string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pageRenders.WithLabelValues(component, result).Inc()
}

// RecordVerification records the outcome of forwarding an initData payload.
// result is one of "verified", "rejected", "cached" or "error".
func RecordVerification(result string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	sessionVerifications.WithLabelValues(result).Inc()
	sessionVerifyDuration.Observe(duration.Seconds())
}
