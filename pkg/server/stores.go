package server

import (
	"context"
	"fmt"
	"os"

	"github.com/marmos91/cask/internal/logger"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/blob/badger"
	"github.com/marmos91/cask/pkg/blob/fs"
	"github.com/marmos91/cask/pkg/blob/memory"
	"github.com/marmos91/cask/pkg/blob/s3"
	"github.com/marmos91/cask/pkg/config"
	"github.com/marmos91/cask/pkg/metrics"
	"github.com/marmos91/cask/pkg/store"
)

// Open prepares the data directory, opens the database and blob backends
// described by cfg and returns a server over them. Close the server to
// release the backends.
func Open(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	db, err := store.New(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("Database opened", logger.KeyBackend, string(cfg.Database.Type))

	blobs, err := OpenBlobStore(ctx, &cfg.Blob, m)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("Blob store opened", logger.KeyBackend, string(cfg.Blob.Type))

	return New(cfg, Deps{Store: db, Blobs: blobs, Metrics: m}), nil
}

// OpenBlobStore creates the backend selected by cfg, wrapped with tracing
// and metrics. m may be nil.
func OpenBlobStore(ctx context.Context, cfg *blob.Config, m *metrics.Metrics) (blob.Store, error) {
	var (
		backend blob.Store
		err     error
	)

	switch cfg.Type {
	case blob.TypeFS:
		backend, err = fs.NewWithPath(cfg.FS.Path)
	case blob.TypeS3:
		backend, err = s3.NewFromConfig(ctx, cfg.S3)
	case blob.TypeBadger:
		backend, err = badger.Open(cfg.Badger)
	case blob.TypeMemory:
		backend = memory.New()
	default:
		return nil, fmt.Errorf("unsupported blob type: %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s blob store: %w", cfg.Type, err)
	}

	return blob.Instrument(backend, cfg.Type, m), nil
}
