// Package fs provides a filesystem-backed blob store.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/bufpool"
)

// Store keeps one file per blob id directly under basePath.
type Store struct {
	mu       sync.RWMutex
	basePath string
	fileMode os.FileMode
	closed   bool
}

var _ blob.Store = (*Store)(nil)

// Config holds configuration for the filesystem blob store.
type Config struct {
	// BasePath is the blob directory. It is created if missing.
	BasePath string

	// DirMode is the permission mode for the blob directory.
	// Default: 0755
	DirMode os.FileMode

	// FileMode is the permission mode for blob files.
	// Default: 0644
	FileMode os.FileMode
}

// New creates the blob directory if needed and returns a store over it.
func New(cfg Config) (*Store, error) {
	if cfg.BasePath == "" {
		return nil, errors.New("base path is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}

	if err := os.MkdirAll(cfg.BasePath, cfg.DirMode); err != nil {
		return nil, fmt.Errorf("create blob directory %s: %w", cfg.BasePath, err)
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("blob path %s is not a directory", cfg.BasePath)
	}

	return &Store{basePath: cfg.BasePath, fileMode: cfg.FileMode}, nil
}

// NewWithPath creates a store with default modes.
func NewWithPath(basePath string) (*Store, error) {
	return New(Config{BasePath: basePath})
}

// BasePath returns the blob directory.
func (s *Store) BasePath() string {
	return s.basePath
}

func (s *Store) blobPath(id string) string {
	return filepath.Join(s.basePath, id)
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return blob.ErrClosed
	}
	return nil
}

// Put writes to a temporary file in the blob directory, then renames it
// into place.
func (s *Store) Put(ctx context.Context, id string, r io.Reader) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := blob.ValidateID(id); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.basePath, "."+id+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpPath := tmp.Name()

	// Hiding ReadFrom keeps the copy on the pooled buffer.
	_, err = bufpool.CopyLarge(struct{ io.Writer }{tmp}, contextReader{ctx: ctx, r: r})
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, s.fileMode)
	}
	if err == nil {
		err = os.Rename(tmpPath, s.blobPath(id))
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write blob %s: %w", id, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, id string) (io.ReadCloser, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := blob.ValidateID(id); err != nil {
		return nil, err
	}

	f, err := os.Open(s.blobPath(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("open blob %s: %w", id, err)
	}
	return f, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := blob.ValidateID(id); err != nil {
		return err
	}

	if err := os.Remove(s.blobPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

// HealthCheck verifies the blob directory is still a directory.
func (s *Store) HealthCheck(_ context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("blob directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob path %s is not a directory", s.basePath)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ blob.Store = (*Store)(nil)
