package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cask/internal/supervisor"
)

func newPIDCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "pid",
		Short: "Print the PID of the background cask server",
		Long: `Print the PID recorded in <data-dir>/cask.pid after checking that the
process is alive.

A PID file naming a dead process is removed. The command fails when no
server is running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, dataDirOverride(cmd.Flags(), &dataDir))
			if err != nil {
				return err
			}
			return runPID(cmd, supervisor.NewRegistry(cfg.DataDir))
		},
	}

	addDataDirFlag(cmd.Flags(), &dataDir)
	return cmd
}

func runPID(cmd *cobra.Command, registry *supervisor.Registry, opts ...supervisor.Option) error {
	st, err := supervisor.NewController(registry, opts...).PID()
	if err != nil {
		if errors.Is(err, supervisor.ErrNotRunning) && st.State == supervisor.StateStale {
			printStale(cmd, st.PID)
		}
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), st.PID)
	return nil
}
