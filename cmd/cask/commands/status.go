package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/cask/internal/cli/output"
	"github.com/marmos91/cask/internal/supervisor"
	"github.com/marmos91/cask/pkg/apiclient"
)

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running bool   `json:"running" yaml:"running"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
	PID     int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Address string `json:"address" yaml:"address"`
	PIDFile string `json:"pid_file" yaml:"pid_file"`
	Message string `json:"message" yaml:"message"`
}

func (s ServerStatus) keyValues() output.KeyValues {
	state := "stopped"
	switch {
	case s.Running && s.Healthy:
		state = "running"
	case s.Running:
		state = "running (unhealthy)"
	}

	pid := "-"
	if s.PID > 0 {
		pid = strconv.Itoa(s.PID)
	}

	return output.KeyValues{
		{"Status", state},
		{"PID", pid},
		{"Address", s.Address},
		{"PID file", s.PIDFile},
		{"Message", s.Message},
	}
}

func newStatusCmd() *cobra.Command {
	var (
		dataDir      string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long: `Display the status of the cask server.

The PID file is checked first, then the /health endpoint of the configured
address is queried with a 2 second timeout, so a server started with
"cask run" is reported too. A stale PID file is removed.

Examples:
  cask status
  cask status --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd, dataDirOverride(cmd.Flags(), &dataDir))
			if err != nil {
				return err
			}

			ctl := supervisor.NewController(supervisor.NewRegistry(cfg.DataDir))
			client := apiclient.ForAddress(cfg.Server.Host, cfg.Server.Port)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			status, err := checkStatus(ctx, ctl, client)
			if err != nil {
				return err
			}
			status.Address = cfg.Server.Addr()

			if format == output.FormatTable {
				return output.PrintKeyValues(cmd.OutOrStdout(), status.keyValues())
			}
			return output.NewPrinter(cmd.OutOrStdout(), format).Print(status)
		},
	}

	addDataDirFlag(cmd.Flags(), &dataDir)
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	return cmd
}

// checkStatus combines the registry probe with a health query. A corrupt
// PID file is returned as an error.
func checkStatus(ctx context.Context, ctl *supervisor.Controller, client *apiclient.Client) (ServerStatus, error) {
	status := ServerStatus{
		PIDFile: ctl.Registry().Path(),
		Message: "Server is not running",
	}

	st, err := ctl.Inspect()
	if err != nil {
		return status, err
	}
	if st.State == supervisor.StateRunning {
		status.Running = true
		status.PID = st.PID
	}

	ctx, cancel := context.WithTimeout(ctx, apiclient.DefaultTimeout)
	defer cancel()

	healthErr := client.Health(ctx)
	switch {
	case healthErr == nil:
		status.Running = true
		status.Healthy = true
		status.Message = "Server is running and healthy"
	case status.Running:
		status.Message = fmt.Sprintf("Server process exists but health check failed: %v", healthErr)
	case st.State == supervisor.StateStale:
		status.Message = fmt.Sprintf("Server is not running (removed stale PID file for process %d)", st.PID)
	}

	return status, nil
}
