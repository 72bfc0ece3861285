/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package diagserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/typstudio/editorkit/log"
)

// Opts provides options for New.
type Opts struct {
	// Gatherer provides metrics for /metrics. prometheus.DefaultGatherer is used if nil.
	Gatherer prometheus.Gatherer

	// HealthCheck reports the health of components for /healthz. An empty result is reported if nil.
	HealthCheck HealthCheck

	// Listener is used instead of listening on the configured address.
	Listener net.Listener
}

// Server exposes metrics and health of the editor over HTTP.
type Server struct {
	HTTPServer      *http.Server
	Router          chi.Router
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	started  bool
	done     chan struct{}
}

// New creates a new diagnostics server.
func New(cfg *Config, logger log.FieldLogger, opts Opts) *Server {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.HealthCheck == nil {
		opts.HealthCheck = func(ctx context.Context) (HealthCheckResult, error) {
			return HealthCheckResult{}, ctx.Err()
		}
	}

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RequestID,
		requestLogging(logger),
		recovery(logger),
	)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	router.Method(http.MethodGet, "/healthz", &healthCheckHandler{check: opts.HealthCheck, logger: logger})
	if cfg.Profiling {
		router.Mount("/debug", chimiddleware.Profiler())
	}

	return &Server{
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		Router:          router,
		Logger:          logger,
		ShutdownTimeout: cfg.ShutdownTimeout,
		listener:        opts.Listener,
		done:            make(chan struct{}),
	}
}

// Start starts the server in a blocking way. It's supposed to be called in a separate goroutine.
// If a fatal error occurs, it's sent into fatalError.
func (s *Server) Start(fatalError chan<- error) {
	defer close(s.done)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))
	logger.Info("starting diagnostics HTTP server...")

	s.mu.Lock()
	s.started = true
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.HTTPServer.Addr)
		if err != nil {
			s.mu.Unlock()
			logger.Error("diagnostics HTTP server error", log.Error(err))
			fatalError <- fmt.Errorf("listen %s: %w", s.HTTPServer.Addr, err)
			return
		}
		s.listener = ln
	}
	ln := s.listener
	s.mu.Unlock()

	if err := s.HTTPServer.Serve(ln); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("diagnostics HTTP server closed")
			return
		}
		logger.Error("diagnostics HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops the server, gracefully or not.
// If Start has not been called, Stop closes the server so that a later Start returns at once.
func (s *Server) Stop(gracefully bool) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return s.closeNotStarted()
	}

	if !gracefully {
		s.Logger.Info("closing diagnostics HTTP server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("diagnostics HTTP server closing error", log.Error(err))
			return err
		}
		<-s.done
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	s.Logger.Info("shutting down diagnostics HTTP server...", log.Duration("timeout", s.ShutdownTimeout))
	if err := s.HTTPServer.Shutdown(ctx); err != nil {
		s.Logger.Error("diagnostics HTTP server shutting down error", log.Error(err))
		return err
	}
	<-s.done
	return nil
}

func (s *Server) closeNotStarted() error {
	if err := s.HTTPServer.Close(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
	}
	return nil
}
