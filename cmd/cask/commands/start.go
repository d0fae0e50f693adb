package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/cask/internal/supervisor"
)

func newStartCmd() *cobra.Command {
	opts := &serviceOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the cask server in the background",
		Long: `Start the cask server as a background daemon.

The server is detached from the terminal, its output is appended to
<data-dir>/cask.log and its PID is recorded in <data-dir>/cask.pid.
Starting is refused while the recorded process is still alive; a PID file
left behind by a crashed server is cleared automatically.

Use "cask run" to run in the foreground instead, e.g. under systemd or in
a container. Background mode is not available on Windows.

Examples:
  # Start with defaults (127.0.0.1:8080, ./data)
  cask start

  # Start on all interfaces with a larger upload limit
  cask start --host 0.0.0.0 --port 9090 --max-upload-size 1GiB

  # Start with a config file and environment overrides
  CASK_LOGGING_FORMAT=json cask start --config /etc/cask/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, opts)
		},
	}

	addServiceFlags(cmd, opts)
	return cmd
}

func runStart(cmd *cobra.Command, opts *serviceOptions) error {
	cfg, err := loadConfig(cmd, opts.override(cmd.Flags()))
	if err != nil {
		return err
	}

	// The re-executed child is already detached.
	if supervisor.IsDaemonChild() {
		return runService(cfg)
	}

	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	ctl := supervisor.NewController(supervisor.NewRegistry(dataDir))
	st, err := ctl.CheckStart()
	if err != nil {
		return err
	}
	if st.State == supervisor.StateStale {
		printStale(cmd, st.PID)
	}

	// The child re-reads its configuration; pin the data directory so it
	// cannot depend on how the config file spells it.
	args := append(append([]string{}, os.Args[1:]...), "--data-dir", dataDir)

	d, err := supervisor.Daemonize(supervisor.DaemonConfig{
		Registry:     ctl.Registry(),
		LogPath:      supervisor.LogPath(dataDir),
		Args:         args,
		StartupGrace: supervisor.DefaultStartupGrace,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Starting cask daemon on %s:%d...\n", cfg.Server.Host, cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  PID:      %d\n", d.PID)
	_, _ = fmt.Fprintf(out, "  PID file: %s\n", d.PIDPath)
	_, _ = fmt.Fprintf(out, "  Log file: %s\n", d.LogPath)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Use 'cask stop' to stop the server and 'cask log -f' to follow its output.")
	return nil
}

// printStale reports a cleared stale PID file. It is informational only.
func printStale(cmd *cobra.Command, pid int) {
	stale := &supervisor.Error{Kind: supervisor.ErrStaleRegistry, PID: pid}
	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), stale.Error()+" Removed.")
}
