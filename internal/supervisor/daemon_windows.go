//go:build windows

package supervisor

import "errors"

// Daemonize is not available on Windows; run the server in the foreground
// or under a service manager instead.
func Daemonize(cfg DaemonConfig) (*Daemon, error) {
	return nil, &Error{
		Kind: ErrUnsupported,
		Err:  errors.New("background mode is not supported on Windows, use `cask run`"),
	}
}
