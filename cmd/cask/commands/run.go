package commands

import (
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	opts := &serviceOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the cask server in the foreground",
		Long: `Run the cask server in the foreground until interrupted.

Logs go to the configured output (stdout by default). The first SIGINT or
SIGTERM starts a graceful shutdown: the listener closes and in-flight
requests are drained for up to server.shutdown_timeout. No PID file is
written; use this mode under a process manager.

Examples:
  cask run
  cask run --port 9090 --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts.override(cmd.Flags()))
			if err != nil {
				return err
			}
			return runService(cfg)
		},
	}

	addServiceFlags(cmd, opts)
	return cmd
}
