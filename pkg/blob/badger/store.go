// Package badger stores blobs as values in an embedded badger database.
//
// Values are buffered in memory on Put, so this backend suits deployments
// whose artifacts are small relative to available RAM.
package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/bufpool"
)

const keyPrefix = "blob:"

// Store is a badger-backed blob.Store.
type Store struct {
	db     *badgerdb.DB
	closed atomic.Bool
}

var _ blob.Store = (*Store)(nil)

// Open opens or creates the database at cfg.Path.
func Open(cfg blob.BadgerConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("badger path is required")
	}

	opts := badgerdb.DefaultOptions(cfg.Path).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database at %s: %w", cfg.Path, err)
	}
	return &Store{db: db}, nil
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

func (s *Store) Put(ctx context.Context, id string, r io.Reader) error {
	if err := blob.ValidateID(id); err != nil {
		return err
	}
	if s.closed.Load() {
		return blob.ErrClosed
	}

	var buf bytes.Buffer
	if _, err := bufpool.CopyLarge(&buf, r); err != nil {
		return fmt.Errorf("read blob %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key(id), buf.Bytes())
	})
	if err != nil {
		return fmt.Errorf("write blob %s: %w", id, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := blob.ValidateID(id); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, blob.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", id, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := blob.ValidateID(id); err != nil {
		return err
	}
	if s.closed.Load() {
		return blob.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(key(id))
	})
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

// HealthCheck opens a read transaction.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return blob.ErrClosed
	}
	if err := s.db.View(func(*badgerdb.Txn) error { return nil }); err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
