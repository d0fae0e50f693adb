package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cask/internal/supervisor"
)

func newStopCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background cask server",
		Long: `Stop the cask server recorded in <data-dir>/cask.pid.

SIGTERM is sent once and the process is polled every 100ms for up to 10
seconds. The PID file is removed once the process has exited. If the
process is still alive after that, stop fails and leaves the PID file in
place since the server may still be draining.

Stopping a server that is not running is not an error.

Examples:
  cask stop
  cask stop --data-dir /var/lib/cask`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, dataDirOverride(cmd.Flags(), &dataDir))
			if err != nil {
				return err
			}
			return runStop(cmd, supervisor.NewRegistry(cfg.DataDir))
		},
	}

	addDataDirFlag(cmd.Flags(), &dataDir)
	return cmd
}

func runStop(cmd *cobra.Command, registry *supervisor.Registry, opts ...supervisor.Option) error {
	out := cmd.OutOrStdout()

	opts = append(opts, supervisor.WithSignalHook(func(pid int) {
		_, _ = fmt.Fprintf(out, "Sending SIGTERM to cask (PID %d)...\n", pid)
	}))
	ctl := supervisor.NewController(registry, opts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := ctl.Stop(ctx)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case supervisor.StopNotRunning:
		_, _ = fmt.Fprintln(out, "cask is not running.")
	case supervisor.StopAlreadyStopped:
		printStale(cmd, res.PID)
		_, _ = fmt.Fprintln(out, "cask is not running.")
	case supervisor.StopStopped:
		_, _ = fmt.Fprintln(out, "cask stopped.")
	}
	return nil
}
