package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GORMStore implements Store on SQLite or PostgreSQL.
type GORMStore struct {
	db     *gorm.DB
	config *Config
}

var _ Store = (*GORMStore)(nil)

// New opens the configured database and brings its schema up to date.
// SQLite is migrated from the models; PostgreSQL from the embedded SQL
// migrations.
func New(ctx context.Context, config *Config) (*GORMStore, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var dialector gorm.Dialector
	switch config.Type {
	case DatabaseTypeSQLite:
		if config.SQLite.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(config.SQLite.Path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		// WAL for concurrent readers, a busy timeout for the single writer,
		// and foreign keys so deletes cascade.
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		if err := RunMigrations(ctx, &config.Postgres); err != nil {
			return nil, err
		}
		dialector = postgres.Open(config.Postgres.DSN())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}

	switch config.Type {
	case DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	case DatabaseTypeSQLite:
		// Every connection to :memory: opens its own empty database.
		if config.SQLite.Path == ":memory:" {
			sqlDB.SetMaxOpenConns(1)
		}
		if err := db.AutoMigrate(AllModels()...); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to run database migration: %w", err)
		}
	}

	return &GORMStore{db: db, config: config}, nil
}

// DB returns the underlying connection.
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// Type reports the backend in use.
func (s *GORMStore) Type() DatabaseType {
	return s.config.Type
}

// isUniqueConstraintError checks if the error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "duplicate key value violates unique constraint")
}

// convertNotFoundError maps gorm.ErrRecordNotFound to a domain error.
func convertNotFoundError(err error, notFoundErr error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundErr
	}
	return err
}

func (s *GORMStore) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

var _ Store = (*GORMStore)(nil)
