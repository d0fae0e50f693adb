// Package config implements configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/cask/pkg/config"
)

// NewCmd builds the config subcommand tree.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long: `Manage cask configuration files.

Subcommands:
  init      Create a default configuration file
  validate  Validate configuration file
  schema    Generate JSON schema for IDE/validation
  edit      Open configuration in editor`,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newEditCmd())
	return cmd
}

// configPath returns the --config flag inherited from the root command,
// or the default location.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	return path
}
