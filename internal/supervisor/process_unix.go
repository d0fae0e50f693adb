//go:build !windows

package supervisor

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Alive reports whether pid exists. EPERM means the process exists but
// belongs to another user, so it counts as alive.
func (OSProcess) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Terminate sends SIGTERM to pid.
func (OSProcess) Terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}
