package supervisor

import (
	"context"
	"strconv"
	"time"

	"github.com/marmos91/cask/internal/logger"
)

const (
	// DefaultPollInterval is how often stop re-probes a signalled process.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultPollAttempts bounds the stop wait to 10 seconds.
	DefaultPollAttempts = 100
)

// State is the observed state of the registry after probing.
type State int

const (
	// StateAbsent means no registry exists.
	StateAbsent State = iota
	// StateStale means the registry named a dead process and has been cleared.
	StateStale
	// StateRunning means the registry names a live process.
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateStale:
		return "stale"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Status is the result of reading and probing the registry.
type Status struct {
	State State
	PID   int
}

// StopOutcome describes how a stop request completed.
type StopOutcome int

const (
	// StopNotRunning means there was no registry; nothing was signalled.
	StopNotRunning StopOutcome = iota
	// StopAlreadyStopped means the registry was stale and has been cleared.
	StopAlreadyStopped
	// StopStopped means the process exited after SIGTERM and the registry was cleared.
	StopStopped
)

// StopResult is returned by a successful Stop.
type StopResult struct {
	Outcome StopOutcome
	PID     int
	Waited  time.Duration
}

// Controller implements the lifecycle commands on top of a Registry.
type Controller struct {
	registry *Registry
	process  Process
	interval time.Duration
	attempts int
	onSignal func(pid int)
}

// Option configures a Controller.
type Option func(*Controller)

// WithProcess overrides how processes are probed and signalled.
func WithProcess(p Process) Option {
	return func(c *Controller) { c.process = p }
}

// WithPollInterval overrides the stop poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithPollAttempts overrides the number of stop poll attempts.
func WithPollAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithSignalHook registers fn to run after Stop has delivered SIGTERM and
// before it starts polling.
func WithSignalHook(fn func(pid int)) Option {
	return func(c *Controller) { c.onSignal = fn }
}

// NewController returns a Controller for registry.
func NewController(registry *Registry, opts ...Option) *Controller {
	c := &Controller{
		registry: registry,
		process:  OSProcess{},
		interval: DefaultPollInterval,
		attempts: DefaultPollAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the controller operates on.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// StopTimeout is the total time Stop waits for the process to exit.
func (c *Controller) StopTimeout() time.Duration {
	return c.interval * time.Duration(c.attempts)
}

// Inspect reads the registry and probes the recorded process. A stale
// entry is cleared before Inspect returns. A corrupt registry is returned
// as an error and left untouched.
func (c *Controller) Inspect() (Status, error) {
	pid, ok, err := c.registry.Read()
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{State: StateAbsent}, nil
	}

	if c.process.Alive(pid) {
		return Status{State: StateRunning, PID: pid}, nil
	}

	logger.Debug("Clearing stale PID file", logger.KeyPID, pid, logger.KeyPIDFile, c.registry.Path())
	if err := c.registry.Clear(); err != nil {
		return Status{}, err
	}
	return Status{State: StateStale, PID: pid}, nil
}

// CheckStart is the admission check run before a start. It refuses when
// the registry names a live process and clears a stale one.
func (c *Controller) CheckStart() (Status, error) {
	st, err := c.Inspect()
	if err != nil {
		return st, err
	}
	if st.State == StateRunning {
		return st, &Error{Kind: ErrAlreadyRunning, PID: st.PID, Path: c.registry.Path()}
	}
	return st, nil
}

// PID returns the identifier of the running process. When nothing is
// running it returns the Status alongside an ErrNotRunning error; a stale
// entry has already been cleared in that case.
func (c *Controller) PID() (Status, error) {
	st, err := c.Inspect()
	if err != nil {
		return st, err
	}
	if st.State != StateRunning {
		return st, &Error{Kind: ErrNotRunning, PID: st.PID, Path: c.registry.Path()}
	}
	return st, nil
}

// Stop sends SIGTERM once to the registered process and polls until it
// exits or the attempt budget is spent. The signal is never re-sent. On
// timeout the registry is left in place since the process may still be
// shutting down.
func (c *Controller) Stop(ctx context.Context) (StopResult, error) {
	st, err := c.Inspect()
	if err != nil {
		return StopResult{}, err
	}

	switch st.State {
	case StateAbsent:
		return StopResult{Outcome: StopNotRunning}, nil
	case StateStale:
		return StopResult{Outcome: StopAlreadyStopped, PID: st.PID}, nil
	}

	pid := st.PID
	if err := c.process.Terminate(pid); err != nil {
		return StopResult{PID: pid}, &Error{Kind: ErrSignalDelivery, PID: pid, Path: c.registry.Path(), Err: err}
	}
	logger.Debug("Sent SIGTERM", logger.KeyPID, pid)
	if c.onSignal != nil {
		c.onSignal(pid)
	}

	start := time.Now()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return StopResult{PID: pid, Waited: time.Since(start)}, ctx.Err()
		case <-ticker.C:
		}

		if !c.process.Alive(pid) {
			if err := c.registry.Clear(); err != nil {
				return StopResult{PID: pid}, err
			}
			return StopResult{Outcome: StopStopped, PID: pid, Waited: time.Since(start)}, nil
		}
		logger.Debug("Waiting for process to exit", logger.KeyPID, pid, logger.KeyAttempt, attempt)
	}

	return StopResult{PID: pid, Waited: time.Since(start)}, &Error{
		Kind:    ErrTimeout,
		PID:     pid,
		Path:    c.registry.Path(),
		Timeout: formatTimeout(c.StopTimeout()),
	}
}

// formatTimeout renders whole-second budgets as "10 seconds".
func formatTimeout(d time.Duration) string {
	if d < time.Second || d%time.Second != 0 {
		return d.String()
	}
	secs := int(d / time.Second)
	if secs == 1 {
		return "1 second"
	}
	return strconv.Itoa(secs) + " seconds"
}
