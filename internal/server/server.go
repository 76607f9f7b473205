// Package server owns process lifecycle (spec §4.3, component C7): binding
// the HTTP listener, running the purge scheduler alongside it, and bringing
// both down together on shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hakr/tokserver/pkg/tokstore"
)

const shutdownGrace = 5 * time.Second

// Server binds the gin engine to a TCP listener and keeps the purge
// scheduler running for as long as the listener is up.
type Server struct {
	httpServer *http.Server
	scheduler  *tokstore.Scheduler
	logger     *logrus.Logger
	shutdown   chan struct{}
	once       sync.Once
}

// New constructs a Server. handler is the fully wired gin engine (or any
// http.Handler); scheduler runs the background purge sweep.
func New(port int, handler http.Handler, scheduler *tokstore.Scheduler, logger *logrus.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handler,
		},
		scheduler: scheduler,
		logger:    logger,
		shutdown:  make(chan struct{}),
	}
}

// TriggerShutdown requests the server stop, from GET /shutdown or an OS
// signal. Safe to call more than once or concurrently.
func (s *Server) TriggerShutdown() {
	s.once.Do(func() { close(s.shutdown) })
}

// Run blocks until the listener fails, a shutdown is triggered, or ctx is
// canceled, then drains in-flight requests and stops the purge scheduler.
func (s *Server) Run(ctx context.Context) error {
	purgeCtx, cancelPurge := context.WithCancel(ctx)
	defer cancelPurge()
	go s.scheduler.Run(purgeCtx)

	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-serveErr:
		return err
	case <-s.shutdown:
		s.logger.Info("shutdown requested via /shutdown")
	case <-sig:
		s.logger.Info("shutdown requested via signal")
	case <-ctx.Done():
		s.logger.Info("shutdown requested via context cancellation")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: graceful shutdown: %w", err)
	}
	cancelPurge()
	s.logger.Info("server exited cleanly")
	return nil
}
