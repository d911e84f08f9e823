// Package server serves the bootstrapped configuration over HTTP.
package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/systmms/kvboot/internal/config"
	"github.com/systmms/kvboot/internal/logging"
	"github.com/systmms/kvboot/internal/metrics"
)

// ContentType is the media type of every response.
const ContentType = "text/plain; charset=utf-8"

// Render writes the page for key. A missing key renders an empty value.
func Render(w io.Writer, store *config.Store, key string) error {
	_, err := fmt.Fprintf(w,
		"SecretName (Name in Key Vault: '%s')\nObtained from Configuration with Configuration[\"%s\"]\nValue: %s\n",
		key, key, store.Value(key))
	return err
}

// NewRouter returns the application router. Every path and method gets the
// same page.
func NewRouter(store *config.Store, displayKey string, logger *logging.Logger, recorder *metrics.Recorder) *chi.Mux {
	if displayKey == "" {
		displayKey = config.DefaultDisplayKey
	}
	if logger == nil {
		logger = logging.Nop()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(withLogging(logger))
	router.Use(withMetrics(recorder))
	router.Use(middleware.Recoverer)

	router.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		if err := Render(w, store, displayKey); err != nil {
			logger.Debug("Failed to write response: %v", err)
		}
	})

	return router
}
