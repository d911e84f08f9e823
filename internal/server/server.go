package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/systmms/kvboot/internal/config"
	"github.com/systmms/kvboot/internal/logging"
	"github.com/systmms/kvboot/internal/metrics"
)

// ShutdownTimeout bounds graceful shutdown of each listener.
const ShutdownTimeout = 10 * time.Second

// Config holds configuration for the application and metrics listeners.
type Config struct {
	Server  config.ServerSettings
	Metrics config.MetricsSettings
}

// Server runs the application listener and, when enabled, the metrics
// listener.
type Server struct {
	config   Config
	store    *config.Store
	logger   *logging.Logger
	recorder *metrics.Recorder
}

// New creates a Server answering from store. store is shared read-only by
// every request.
func New(store *config.Store, cfg Config, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		config: cfg,
		store:  store,
		logger: logger,
	}
	if cfg.Metrics.Enabled {
		metrics.InitMetrics()
		s.recorder = metrics.NewRecorder()
	}
	return s
}

// Handler returns the application handler.
func (s *Server) Handler() http.Handler {
	return NewRouter(s.store, s.config.Server.DisplayKey, s.logger, s.recorder)
}

// Run listens on the configured addresses and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Address, err)
	}

	var metricsLn net.Listener
	if s.config.Metrics.Enabled {
		metricsLn, err = net.Listen("tcp", s.config.Metrics.Address)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.config.Metrics.Address, err)
		}
	}

	return s.Serve(ctx, ln, metricsLn)
}

// Serve serves on ln, and on metricsLn when it is not nil, until ctx is done
// or a listener fails. Both listeners are shut down gracefully.
func (s *Server) Serve(ctx context.Context, ln, metricsLn net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	app := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}
	s.logger.Info("Listening on %s", ln.Addr())
	s.serve(gctx, g, app, ln)

	if metricsLn != nil {
		metricsSrv := &http.Server{
			Handler:      NewMetricsHandler(s.config.Metrics.Path),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		s.logger.Info("Serving metrics on %s%s", metricsLn.Addr(), s.config.Metrics.Path)
		s.serve(gctx, g, metricsSrv, metricsLn)
	}

	return g.Wait()
}

func (s *Server) serve(ctx context.Context, g *errgroup.Group, srv *http.Server, ln net.Listener) {
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server on %s: %w", ln.Addr(), err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("Shutdown of %s incomplete: %v", ln.Addr(), err)
			return err
		}
		return nil
	})
}
