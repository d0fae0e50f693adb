package supervisor

import (
	"errors"
	"fmt"
)

// Error kinds reported by the supervisor. Match them with errors.Is.
var (
	ErrAlreadyRunning  = errors.New("already running")
	ErrNotRunning      = errors.New("not running")
	ErrStaleRegistry   = errors.New("stale pid file")
	ErrCorruptRegistry = errors.New("corrupt pid file")
	ErrSignalDelivery  = errors.New("signal delivery failed")
	ErrTimeout         = errors.New("timed out waiting for process to exit")
	ErrUnsupported     = errors.New("not supported on this platform")
)

// Error describes a failed lifecycle operation. Kind is one of the
// sentinel errors above; Err is the underlying cause, if any.
type Error struct {
	Kind    error
	PID     int
	Path    string
	Content string
	Timeout string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrAlreadyRunning:
		return fmt.Sprintf("cask is already running (PID %d). Use `cask stop` first.", e.PID)
	case ErrNotRunning:
		return "no PID file found, is cask running?"
	case ErrStaleRegistry:
		return fmt.Sprintf("Stale PID file (process %d is not running).", e.PID)
	case ErrCorruptRegistry:
		return fmt.Sprintf("PID file %s is corrupt (content %q); check that no cask process is running and remove it", e.Path, e.Content)
	case ErrSignalDelivery:
		return fmt.Sprintf("failed to send termination signal to cask (PID %d): %v", e.PID, e.Err)
	case ErrTimeout:
		return fmt.Sprintf("cask (PID %d) did not stop within %s", e.PID, e.Timeout)
	case ErrUnsupported:
		if e.Err != nil {
			return e.Err.Error()
		}
		return ErrUnsupported.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
