package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/marmos91/cask/internal/logger"
)

// Service is the long-running body hosted by a Runner.
type Service interface {
	// Listen binds the service and returns the address it is bound to.
	Listen() (addr string, err error)

	// Serve runs until ctx is cancelled, then drains in-flight work and
	// returns. A nil return means a clean shutdown.
	Serve(ctx context.Context) error
}

// Runner hosts a Service and turns the first of its shutdown signals into
// a single cancellation.
type Runner struct {
	signals []os.Signal
}

// NewRunner returns a Runner listening for SIGINT and SIGTERM.
func NewRunner() *Runner {
	return &Runner{signals: []os.Signal{os.Interrupt, syscall.SIGTERM}}
}

// Run binds svc, serves it until ctx is cancelled or a shutdown signal
// arrives, and waits for it to drain.
//
// The first signal cancels the service. The signals stay captured until
// Run returns, so repeated signals during the drain are absorbed instead
// of killing the process.
func (r *Runner) Run(ctx context.Context, svc Service) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, r.signals...)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	addr, err := svc.Listen()
	if err != nil {
		return err
	}
	logger.Info("cask listening", logger.KeyAddr, addr, logger.KeyPID, os.Getpid())

	var once sync.Once
	shutdown := func(reason string) {
		once.Do(func() {
			logger.Info("Shutdown signal received, draining", logger.KeySignal, reason)
			cancel()
		})
	}

	go func() {
		select {
		case sig := <-sigCh:
			shutdown(sig.String())
		case <-ctx.Done():
		}
	}()

	if err := svc.Serve(ctx); err != nil {
		logger.Error("Server error", logger.KeyError, err)
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("cask shut down gracefully")
	return nil
}
