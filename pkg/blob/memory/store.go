// Package memory provides an in-memory blob store for tests.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/marmos91/cask/pkg/blob"
)

// Store keeps blobs in a map.
type Store struct {
	mu     sync.RWMutex
	blobs  map[string][]byte
	closed bool
}

var _ blob.Store = (*Store)(nil)

func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Put(_ context.Context, id string, r io.Reader) error {
	if err := blob.ValidateID(id); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return blob.ErrClosed
	}
	s.blobs[id] = data
	return nil
}

func (s *Store) Get(_ context.Context, id string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, blob.ErrClosed
	}
	data, ok := s.blobs[id]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return blob.ErrClosed
	}
	delete(s.blobs, id)
	return nil
}

// Len reports the number of stored blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func (s *Store) HealthCheck(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return blob.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
