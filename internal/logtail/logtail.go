// Package logtail reads the daemon's log file: the last N lines, and
// optionally new lines as they are appended.
package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	// DefaultLines is the number of trailing lines printed by default.
	DefaultLines = 20

	// DefaultPollInterval is how often Follow checks for appended data.
	DefaultPollInterval = 100 * time.Millisecond

	maxLineSize = 1024 * 1024
)

// ErrMissingLog is returned when the log file does not exist.
var ErrMissingLog = errors.New("no log file found")

// MissingLogError names the log path that could not be found.
type MissingLogError struct {
	Path string
}

func (e *MissingLogError) Error() string {
	return fmt.Sprintf("no log file found at %s", e.Path)
}

func (e *MissingLogError) Is(target error) bool {
	return target == ErrMissingLog
}

// Tailer reads one log file.
type Tailer struct {
	path     string
	interval time.Duration
}

// Option configures a Tailer.
type Option func(*Tailer)

// WithPollInterval overrides how often Follow polls for new data.
func WithPollInterval(d time.Duration) Option {
	return func(t *Tailer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// New returns a Tailer for path.
func New(path string, opts ...Option) *Tailer {
	t := &Tailer{path: path, interval: DefaultPollInterval}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Path returns the file being tailed.
func (t *Tailer) Path() string {
	return t.path
}

func (t *Tailer) open() (*os.File, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingLogError{Path: t.path}
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// Tail returns up to the last n lines of the file, without their line
// terminators, and the end offset of the data read. Follow resumes from
// that offset. A non-positive n returns no lines.
func (t *Tailer) Tail(n int) ([]string, int64, error) {
	f, err := t.open()
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	var ring []string
	if n > 0 {
		ring = make([]string, 0, min(n, 1024))
	}
	next := 0

	var offset int64
	reader := bufio.NewReaderSize(f, 64*1024)
	for {
		line, err := readLine(reader)
		offset += int64(len(line))
		if len(line) > 0 && (err == nil || err == io.EOF) {
			text := trimEOL(line)
			if n > 0 {
				if len(ring) < n {
					ring = append(ring, text)
				} else {
					ring[next] = text
					next = (next + 1) % n
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read log file: %w", err)
		}
	}

	if len(ring) < n || n <= 0 {
		return ring, offset, nil
	}
	out := make([]string, 0, n)
	out = append(out, ring[next:]...)
	out = append(out, ring[:next]...)
	return out, offset, nil
}

// Follow emits every complete line appended after offset until ctx is
// cancelled or emit returns an error. A trailing line without a newline is
// held back until it is completed. Follow returns nil on cancellation.
func (t *Tailer) Follow(ctx context.Context, offset int64, emit func(line string) error) error {
	f, err := t.open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(f, 64*1024)
	var pending []byte

	for {
		if ctx.Err() != nil {
			return nil
		}

		chunk, err := reader.ReadBytes('\n')
		if len(chunk) > 0 {
			pending = append(pending, chunk...)
			if len(pending) > maxLineSize && pending[len(pending)-1] != '\n' {
				if err := emit(string(pending)); err != nil {
					return err
				}
				pending = pending[:0]
			}
		}

		switch {
		case err == nil:
			line := trimEOL(pending)
			pending = pending[:0]
			if err := emit(line); err != nil {
				return err
			}
		case err == io.EOF:
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(t.interval):
			}
		default:
			return fmt.Errorf("failed to read log file: %w", err)
		}
	}
}

// readLine reads through the next newline, capping very long lines.
func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice('\n')
		line = append(line, frag...)
		if err == bufio.ErrBufferFull {
			if len(line) >= maxLineSize {
				return line, nil
			}
			continue
		}
		return line, err
	}
}

func trimEOL(b []byte) string {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		n--
		if n > 0 && b[n-1] == '\r' {
			n--
		}
	}
	return string(b[:n])
}
