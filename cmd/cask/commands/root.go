// Package commands implements the cask command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/cask/cmd/cask/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCmd builds the command tree. Each call returns a fresh tree with
// its own flag state.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cask",
		Short: "cask - versioned artifact store",
		Long: `cask stores named, versioned binary artifacts behind a small HTTP API.

The server runs in the background with "cask start" or in the foreground
with "cask run". "cask stop", "cask pid" and "cask log" manage a background
server through the PID and log files in its data directory.

Use "cask [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "config file (default: $XDG_CONFIG_HOME/cask/config.yaml)")

	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newPIDCmd())
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(config.NewCmd())

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the command line. Called by main.main().
func Execute() error {
	return NewRootCmd().Execute()
}
