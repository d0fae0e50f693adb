//go:build !windows

package supervisor

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// helperEnv selects a helper behaviour when the test binary is re-executed.
const helperEnv = "CASK_SUPERVISOR_HELPER"

func TestMain(m *testing.M) {
	switch os.Getenv(helperEnv) {
	case "":
		os.Exit(m.Run())
	case "term-exit":
		helperTermExit()
	case "term-ignore":
		signal.Ignore(syscall.SIGTERM)
		fmt.Println("ready")
		time.Sleep(60 * time.Second)
		os.Exit(0)
	case "daemon":
		sid, _ := unix.Getsid(0)
		fmt.Printf("child pid=%d sid=%d marker=%s\n", os.Getpid(), sid, os.Getenv(EnvDaemonChild))
		helperTermExit()
	case "exit-now":
		fmt.Fprintln(os.Stderr, "boom: cannot bind")
		os.Exit(3)
	default:
		os.Exit(2)
	}
}

func helperTermExit() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	fmt.Println("ready")
	select {
	case <-sigCh:
		os.Exit(0)
	case <-time.After(60 * time.Second):
		os.Exit(1)
	}
}

// helperProcess is a re-executed test binary running one helper mode.
type helperProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// startHelper launches a helper, waits until it reports ready, and reaps it
// in the background so an exited helper does not linger as a zombie.
func startHelper(t *testing.T, mode string) *helperProcess {
	t.Helper()

	cmd := exec.Command(os.Args[0])
	cmd.Env = append(os.Environ(), helperEnv+"="+mode)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	line, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "ready", strings.TrimSpace(line))

	h := &helperProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(h.done)
	}()

	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		<-h.done
	})
	return h
}

func (h *helperProcess) pid() int {
	return h.cmd.Process.Pid
}

func (h *helperProcess) exited(timeout time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
