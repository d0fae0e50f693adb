package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open configuration in editor",
		Long: `Open the configuration file in your default editor.

Uses $EDITOR, then $VISUAL, falling back to 'vi'.

Examples:
  cask config edit
  cask config edit --config /etc/cask/config.yaml`,
		Args: cobra.NoArgs,
		RunE: runEdit,
	}
}

func runEdit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("configuration file not found: %s\n\n"+
			"Create it first with:\n"+
			"  cask config init --config %s",
			path, path)
	}

	editorCmd := exec.Command(editor(), path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}
	return nil
}

func editor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}
	return "vi"
}
