package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/cask/internal/cli/output"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate the cask configuration file.

Checks for syntax errors, missing required fields, and invalid values.
Environment overrides (CASK_*) are applied before validation.

Examples:
  # Validate default config
  cask config validate

  # Validate specific config file
  cask config validate --config /etc/cask/config.yaml`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.Server.Host == "0.0.0.0" || cfg.Server.Host == "::" {
		warnings = append(warnings, "server binds all interfaces; uploads require a token but downloads are public")
	}
	if cfg.Blob.Type == blob.TypeMemory {
		warnings = append(warnings, "memory blob store loses every artifact on restart")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.SampleRate == 0 {
		warnings = append(warnings, "telemetry enabled with a zero sample rate")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.PrintKeyValues(out, output.KeyValues{
		{"Listen address", cfg.Server.Addr()},
		{"Data directory", cfg.DataDir},
		{"Max upload size", cfg.Server.MaxUploadSize.String()},
		{"Database type", string(cfg.Database.Type)},
		{"Blob store type", string(cfg.Blob.Type)},
		{"Log level", cfg.Logging.Level},
	})
}
