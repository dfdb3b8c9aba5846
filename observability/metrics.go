package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "milkfactory"

// gatewayMetrics records HTTP activity per gateway module (roles, milk,
// factory, items, audit).
type gatewayMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *gatewayMetrics
)

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

// ModuleMetrics returns the process-wide gateway metrics, registering them
// with the default Prometheus registry on first use.
func ModuleMetrics() *gatewayMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &gatewayMetrics{
			requests:  counter("module", "requests_total", "Gateway requests by module, method and outcome.", "module", "method", "outcome"),
			errors:    counter("module", "errors_total", "Gateway errors by module, method and status code.", "module", "method", "status"),
			throttles: counter("module", "throttles_total", "Requests rejected before reaching an engine.", "module", "reason"),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Gateway handler latency by module and method.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records one finished request. status is the code written to the
// client.
func (m *gatewayMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	module, method = orUnknown(module), orUnknown(method)
	outcome := outcomeFor(status)
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= http.StatusBadRequest {
		m.errors.WithLabelValues(module, method, strconv.Itoa(status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle counts a request turned away by reason, e.g. "rate_limit".
func (m *gatewayMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(orUnknown(module), reason).Inc()
}

// outcomeFor keeps policy rejections (403, 409, 429) apart from other client
// errors.
func outcomeFor(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return "success"
	case status == http.StatusForbidden, status == http.StatusConflict, status == http.StatusTooManyRequests:
		return "rejected"
	case status >= http.StatusInternalServerError:
		return "failure"
	default:
		return "error"
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
