// Package server hosts the cask HTTP service: artifact storage behind a
// REST API, served until its context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/cask/internal/logger"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/config"
	"github.com/marmos91/cask/pkg/metrics"
	"github.com/marmos91/cask/pkg/store"
)

// Deps are the backends the server serves from.
type Deps struct {
	Store store.Store
	Blobs blob.Store

	// Metrics may be nil when metrics are disabled.
	Metrics *metrics.Metrics
}

// Server is the HTTP service. It satisfies supervisor.Service.
//
// The server is created in a stopped state. Listen binds the address,
// Serve blocks until the context is cancelled and then drains in-flight
// requests for up to the configured shutdown timeout.
type Server struct {
	server          *http.Server
	deps            Deps
	addr            string
	shutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener

	shutdownOnce sync.Once
	shutdownErr  error
	closeOnce    sync.Once
}

// New creates a server for cfg over deps.
func New(cfg *config.Config, deps Deps) *Server {
	router := NewRouter(RouterConfig{
		Store:         deps.Store,
		Blobs:         deps.Blobs,
		Metrics:       deps.Metrics,
		MetricsPath:   cfg.Metrics.Path,
		MaxUploadSize: cfg.Server.MaxUploadSize.Int64(),
	})

	return &Server{
		server: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
		deps:            deps,
		addr:            cfg.Server.Addr(),
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Listen binds the configured address and returns the bound address.
func (s *Server) Listen() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String(), nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to bind to %s: %w", s.addr, err)
	}
	s.listener = ln
	return ln.Addr().String(), nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Serve serves requests until ctx is cancelled, then shuts down
// gracefully. Listen is called first if it has not been.
//
// Returns nil on graceful shutdown.
func (s *Server) Serve(ctx context.Context) error {
	if _, err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		logger.Debug("API endpoints available",
			"health", fmt.Sprintf("http://%s/health", ln.Addr()),
			"artifacts", fmt.Sprintf("http://%s/v1/artifacts", ln.Addr()),
		)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		// The cancelled ctx would abort the drain immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("HTTP server failed: %w", err)
	}
}

// Stop gracefully shuts the HTTP server down. Safe to call multiple times
// and concurrently with Serve.
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		logger.Debug("HTTP server shutdown initiated")

		// Shutdown only closes listeners Serve has taken over.
		s.mu.Lock()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.mu.Unlock()

		if err := s.server.Shutdown(ctx); err != nil {
			s.shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
			logger.Error("HTTP server shutdown error", logger.KeyError, err)
			return
		}
		logger.Debug("HTTP server stopped")
	})
	return s.shutdownErr
}

// Close releases the backends. Call it after Serve has returned.
func (s *Server) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		if s.deps.Blobs != nil {
			if err := s.deps.Blobs.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close blob store: %w", err))
			}
		}
		if s.deps.Store != nil {
			if err := s.deps.Store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database: %w", err))
			}
		}
	})
	return errors.Join(errs...)
}
