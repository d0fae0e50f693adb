package supervisor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// PIDFileName is the registry file name inside the data directory.
	PIDFileName = "cask.pid"

	// LogFileName is the daemon log file name inside the data directory.
	LogFileName = "cask.log"
)

// PIDPath returns the registry path for a data directory.
func PIDPath(dataDir string) string {
	return filepath.Join(dataDir, PIDFileName)
}

// LogPath returns the daemon log path for a data directory.
func LogPath(dataDir string) string {
	return filepath.Join(dataDir, LogFileName)
}

// Registry is the on-disk PID file naming the most recently started server.
//
// Its existence does not imply the process is alive; callers must probe the
// value before trusting it.
type Registry struct {
	path string
}

// NewRegistry returns the registry stored in dataDir.
func NewRegistry(dataDir string) *Registry {
	return &Registry{path: PIDPath(dataDir)}
}

// NewRegistryAt returns a registry stored at an explicit path.
func NewRegistryAt(path string) *Registry {
	return &Registry{path: path}
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return r.path
}

// Write overwrites the registry with pid in decimal form.
func (r *Registry) Write(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to record invalid PID %d", pid)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for PID file %s: %w", r.path, err)
	}
	if err := os.WriteFile(r.path, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("failed to write PID file %s: %w", r.path, err)
	}
	return nil
}

// Read returns the recorded pid. ok is false when no registry exists.
// Content that is not a positive decimal integer yields ErrCorruptRegistry.
func (r *Registry) Read() (pid int, ok bool, err error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read PID file %s: %w", r.path, err)
	}

	content := strings.TrimSpace(string(data))
	pid, err = strconv.Atoi(content)
	if err != nil || pid <= 0 {
		return 0, false, &Error{Kind: ErrCorruptRegistry, Path: r.path, Content: content, Err: err}
	}
	return pid, true, nil
}

// Clear removes the registry. Removing an absent registry is not an error.
func (r *Registry) Clear() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove PID file %s: %w", r.path, err)
	}
	return nil
}
