package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/cask/internal/cli/prompt"
	"github.com/marmos91/cask/pkg/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Write a configuration file with every default spelled out.

An existing file is only replaced with --force or after confirmation on
an interactive terminal.

Examples:
  # Create at the default location
  cask config init

  # Create at a custom location, replacing any existing file
  cask config init --config /etc/cask/config.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, configPath(cmd), force, prompt.IsInteractive(), prompt.Confirm)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")
	return cmd
}

type confirmFunc func(label string, defaultYes bool) (bool, error)

func runInit(cmd *cobra.Command, path string, force, interactive bool, confirm confirmFunc) error {
	if !force && interactive {
		if _, err := os.Stat(path); err == nil {
			ok, err := confirm(fmt.Sprintf("%s already exists. Overwrite", path), false)
			if err != nil {
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted, configuration left unchanged.")
				return nil
			}
			force = true
		}
	}

	if err := config.InitConfigToPath(path, force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return err
		}
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintf(out, "  1. Review the configuration: cask config edit --config %s\n", path)
	_, _ = fmt.Fprintf(out, "  2. Start the server:         cask start --config %s\n", path)
	return nil
}
