package supervisor

// Process probes and signals processes by identifier. The controller only
// talks to the operating system through this interface.
type Process interface {
	// Alive delivers a null signal to pid and reports whether the process
	// exists. It never affects the target.
	Alive(pid int) bool

	// Terminate asks pid to shut down gracefully.
	Terminate(pid int) error
}

// OSProcess is the Process implementation backed by the host OS.
type OSProcess struct{}

var _ Process = OSProcess{}
