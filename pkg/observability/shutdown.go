package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// ShutdownManager stops the HTTP server on SIGINT or SIGTERM and then
// closes the stores and exporters behind it
type ShutdownManager struct {
	logger          *logrus.Logger
	server          *http.Server
	shutdownTimeout time.Duration
	signals         chan os.Signal

	mu    sync.Mutex
	steps []shutdownStep
}

// ShutdownFunc releases one backend
type ShutdownFunc func(context.Context) error

type shutdownStep struct {
	name string
	fn   ShutdownFunc
}

// NewShutdownManager creates a manager for server. A zero timeout means 30s.
func NewShutdownManager(logger *logrus.Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:          logger,
		server:          server,
		shutdownTimeout: timeout,
		signals:         make(chan os.Signal, 1),
	}
}

// RegisterShutdownFunc adds a named step run after the server has stopped.
// Steps run in registration order.
func (sm *ShutdownManager) RegisterShutdownFunc(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.steps = append(sm.steps, shutdownStep{name: name, fn: fn})
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then calls Shutdown
func (sm *ShutdownManager) WaitForShutdown() error {
	signal.Notify(sm.signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sm.signals)

	sig := <-sm.signals
	sm.logger.WithField("signal", sig.String()).Info("shutting down")

	return sm.Shutdown()
}

// Shutdown drains in-flight requests, then runs every step even when an
// earlier one fails. Steps are skipped once the timeout has passed.
func (sm *ShutdownManager) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), sm.shutdownTimeout)
	defer cancel()

	var errs []error
	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("HTTP server did not drain")
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	sm.mu.Lock()
	steps := sm.steps
	sm.mu.Unlock()

	for _, step := range steps {
		log := sm.logger.WithField("step", step.name)
		if ctx.Err() != nil {
			log.Warn("shutdown timeout reached, skipping")
			errs = append(errs, fmt.Errorf("%s: %w", step.name, ctx.Err()))
			continue
		}
		if err := step.fn(ctx); err != nil {
			log.WithError(err).Error("shutdown step failed")
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		log.Debug("shutdown step complete")
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	sm.logger.Info("shutdown complete")
	return nil
}
