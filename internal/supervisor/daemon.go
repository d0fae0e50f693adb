package supervisor

import (
	"os"
	"time"
)

// EnvDaemonChild marks the re-executed background process. Its presence
// tells the start command that it is already detached.
const EnvDaemonChild = "CASK_DAEMON_CHILD"

// DefaultStartupGrace is how long the parent watches the detached child
// before reporting success.
const DefaultStartupGrace = 500 * time.Millisecond

// IsDaemonChild reports whether this process was spawned by a Daemonizer.
func IsDaemonChild() bool {
	return os.Getenv(EnvDaemonChild) == "1"
}

// DaemonConfig describes how to spawn the background process.
type DaemonConfig struct {
	// Registry receives the child's pid.
	Registry *Registry

	// LogPath is the append-only file the child's stdout and stderr go to.
	LogPath string

	// Executable defaults to the running binary.
	Executable string

	// Args are passed to the child. Defaults to os.Args[1:].
	Args []string

	// Env is the child's environment. Defaults to os.Environ().
	// EnvDaemonChild is always appended.
	Env []string

	// Dir is the child's working directory. Defaults to the caller's
	// working directory resolved to an absolute path.
	Dir string

	// StartupGrace is how long to wait for an early exit of the child.
	// Zero skips the check.
	StartupGrace time.Duration
}

// Daemon is a successfully detached background process.
type Daemon struct {
	PID     int
	PIDPath string
	LogPath string
}
