// Package prompt asks the operator for confirmation on the terminal.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
)

// ErrAborted is returned when the operator presses Ctrl+C.
var ErrAborted = errors.New("aborted")

// Confirm asks a yes/no question. An empty answer selects the default.
func Confirm(label string, defaultYes bool) (bool, error) {
	return confirm(label, defaultYes, nil, nil)
}

func confirm(label string, defaultYes bool, in io.ReadCloser, out io.WriteCloser) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	p := promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, hint),
		IsConfirm: true,
		Stdin:     in,
		Stdout:    out,
	}

	result, err := p.Run()
	switch {
	case errors.Is(err, promptui.ErrInterrupt):
		return false, ErrAborted
	case errors.Is(err, promptui.ErrAbort):
		if strings.TrimSpace(result) == "" {
			return defaultYes, nil
		}
		return false, nil
	case err != nil:
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(result))
	if answer == "" {
		return defaultYes, nil
	}
	return answer == "y" || answer == "yes", nil
}

// ConfirmWithForce skips the question when force is set.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}

// IsInteractive reports whether stdin is a terminal, i.e. whether a
// prompt can be answered.
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
