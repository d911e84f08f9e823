package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/systmms/kvboot/internal/metrics"
)

// NewMetricsHandler serves Prometheus metrics on path and a liveness probe
// on /health.
func NewMetricsHandler(path string) http.Handler {
	if path == "" {
		path = "/metrics"
	}

	// Initialize metrics if not already done
	metrics.InitMetrics()

	router := chi.NewRouter()
	router.Handle(path, promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return router
}
