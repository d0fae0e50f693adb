//go:build !windows

package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/marmos91/cask/internal/logger"
)

// Daemonize re-executes the current binary as a session leader detached
// from the terminal, with stdout and stderr appended to cfg.LogPath, and
// records the child's pid in the registry.
//
// Every step that can fail runs before the parent returns, so errors reach
// the invoking terminal. The caller must run the admission check first.
func Daemonize(cfg DaemonConfig) (*Daemon, error) {
	if cfg.Registry == nil {
		return nil, errors.New("daemonize: registry is required")
	}
	if cfg.LogPath == "" {
		return nil, errors.New("daemonize: log path is required")
	}

	executable := cfg.Executable
	if executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		executable = exe
	}

	args := cfg.Args
	if args == nil {
		args = os.Args[1:]
	}

	env := cfg.Env
	if env == nil {
		env = os.Environ()
	}
	env = append(append([]string{}, env...), EnvDaemonChild+"=1")

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogPath, err)
	}
	defer func() { _ = logFile.Close() }()

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer func() { _ = devNull.Close() }()

	cmd := exec.Command(executable, args...)
	cmd.Stdin = devNull
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = env
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := cmd.Process.Pid

	if err := cfg.Registry.Write(pid); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	logger.Debug("Daemon spawned", logger.KeyPID, pid, logger.KeyPIDFile, cfg.Registry.Path(), logger.KeyLogFile, cfg.LogPath)

	if cfg.StartupGrace > 0 {
		exited := make(chan error, 1)
		go func() { exited <- cmd.Wait() }()

		select {
		case waitErr := <-exited:
			_ = cfg.Registry.Clear()
			if waitErr == nil {
				waitErr = errors.New("exit status 0")
			}
			return nil, fmt.Errorf("cask exited during startup (%v), see %s", waitErr, cfg.LogPath)
		case <-time.After(cfg.StartupGrace):
		}
	} else {
		_ = cmd.Process.Release()
	}

	return &Daemon{
		PID:     pid,
		PIDPath: cfg.Registry.Path(),
		LogPath: cfg.LogPath,
	}, nil
}
