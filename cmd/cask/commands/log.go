package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/cask/internal/logtail"
	"github.com/marmos91/cask/internal/supervisor"
)

type logOptions struct {
	dataDir string
	lines   int
	follow  bool
}

func newLogCmd() *cobra.Command {
	opts := &logOptions{}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the background server's log",
		Long: `Print the last lines of <data-dir>/cask.log.

With --follow, keep printing lines as they are appended until interrupted.
The log is read whether or not the server is currently running.

Examples:
  # Show the last 20 lines
  cask log

  # Show the last 100 lines and follow
  cask log -n 100 -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, dataDirOverride(cmd.Flags(), &opts.dataDir))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runLog(ctx, cmd, logtail.New(supervisor.LogPath(cfg.DataDir)), opts)
		},
	}

	addDataDirFlag(cmd.Flags(), &opts.dataDir)
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", logtail.DefaultLines, "Number of lines to show")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output")
	return cmd
}

func runLog(ctx context.Context, cmd *cobra.Command, tailer *logtail.Tailer, opts *logOptions) error {
	if opts.lines < 0 {
		return fmt.Errorf("invalid line count %d", opts.lines)
	}

	lines, offset, err := tailer.Tail(opts.lines)
	if err != nil {
		if errors.Is(err, logtail.ErrMissingLog) {
			return fmt.Errorf("%w; has cask ever been started?", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	for _, line := range lines {
		_, _ = fmt.Fprintln(out, line)
	}

	if !opts.follow {
		return nil
	}

	return tailer.Follow(ctx, offset, func(line string) error {
		_, err := fmt.Fprintln(out, line)
		return err
	})
}
