// Package metrics exposes Prometheus metrics for bootstrap runs and served
// requests.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bootstrap results used as the "result" label.
const (
	ResultSuccess     = "success"
	ResultConfig      = "config_error"
	ResultCertificate = "certificate_error"
	ResultAuth        = "auth_error"
	ResultTransport   = "transport_error"
	ResultError       = "error"
)

var (
	bootstrapTotal    *prometheus.CounterVec
	bootstrapDuration prometheus.Histogram
	secretsLoaded     prometheus.Gauge
	httpRequestsTotal *prometheus.CounterVec

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// Recorder records kvboot metrics. The zero value is ready to use; calls are
// no-ops until InitMetrics runs.
type Recorder struct{}

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// InitMetrics registers all metrics with the default registry.
// This should be called once at startup if Prometheus metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		bootstrapTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvboot_bootstrap_total",
				Help: "Total number of configuration bootstrap runs",
			},
			[]string{"result"},
		)

		bootstrapDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kvboot_bootstrap_duration_seconds",
				Help:    "Duration of configuration bootstrap runs in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		)

		secretsLoaded = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kvboot_secrets_loaded",
				Help: "Number of Key Vault secrets in the active configuration",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvboot_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "code"},
		)

		metricsRegistered = true
	})
}

// RecordBootstrap records the outcome of one bootstrap run.
func (r *Recorder) RecordBootstrap(result string, durationSeconds float64, loaded int) {
	if !metricsRegistered {
		return
	}

	bootstrapTotal.WithLabelValues(result).Inc()
	bootstrapDuration.Observe(durationSeconds)
	if result == ResultSuccess {
		secretsLoaded.Set(float64(loaded))
	}
}

// RecordRequest counts one served request.
func (r *Recorder) RecordRequest(method string, code int) {
	if !metricsRegistered {
		return
	}
	httpRequestsTotal.WithLabelValues(method, statusLabel(code)).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

// GetBootstrapTotal returns the bootstrap counter for testing.
func GetBootstrapTotal() *prometheus.CounterVec {
	return bootstrapTotal
}

// GetSecretsLoaded returns the loaded secrets gauge for testing.
func GetSecretsLoaded() prometheus.Gauge {
	return secretsLoaded
}

// GetHTTPRequestsTotal returns the request counter for testing.
func GetHTTPRequestsTotal() *prometheus.CounterVec {
	return httpRequestsTotal
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered
}
