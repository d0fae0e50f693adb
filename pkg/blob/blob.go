// Package blob stores artifact content. Each artifact's bytes live under
// its id in one of the backends:
//   - fs (default): one file per id under the blob directory
//   - s3: one object per id under a key prefix
//   - badger: one key per id in an embedded badger database
//   - memory: tests only
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound  = errors.New("blob not found")
	ErrClosed    = errors.New("blob store is closed")
	ErrInvalidID = errors.New("invalid blob id")
)

// Store is a blob backend. Implementations must be safe for concurrent use.
type Store interface {
	// Put stores the content read from r under id, replacing any previous
	// content. A partially written blob is never visible.
	Put(ctx context.Context, id string, r io.Reader) error

	// Get opens the content stored under id.
	// Returns ErrNotFound if there is none.
	Get(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes id. Deleting a missing blob is not an error.
	Delete(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) error
	Close() error
}

// ValidateID rejects ids that could escape the backend's namespace.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Type selects the blob backend.
type Type string

const (
	TypeFS     Type = "fs"
	TypeS3     Type = "s3"
	TypeMemory Type = "memory"
	TypeBadger Type = "badger"
)

// DirName is the default blob directory under the data directory.
const DirName = "artifacts"

// FSConfig configures the filesystem backend.
type FSConfig struct {
	// Path is the blob directory. Defaults to <data_dir>/artifacts.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// BadgerDirName is the default badger directory under the data directory.
const BadgerDirName = "artifacts.badger"

// BadgerConfig configures the embedded badger backend.
type BadgerConfig struct {
	// Path is the database directory. Defaults to <data_dir>/artifacts.badger.
	Path string `mapstructure:"path" yaml:"path,omitempty"`

	// SyncWrites fsyncs every write before Put returns.
	SyncWrites bool `mapstructure:"sync_writes" yaml:"sync_writes,omitempty"`
}

// S3Config configures the S3 backend. Credentials fall back to the AWS
// default chain when AccessKeyID is empty.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region          string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint,omitempty"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
}

// Config selects and configures the blob backend.
type Config struct {
	Type   Type         `mapstructure:"type" validate:"omitempty,oneof=fs s3 badger memory" yaml:"type"`
	FS     FSConfig     `mapstructure:"fs" yaml:"fs,omitempty"`
	S3     S3Config     `mapstructure:"s3" yaml:"s3,omitempty"`
	Badger BadgerConfig `mapstructure:"badger" yaml:"badger,omitempty"`
}

// ApplyDefaults fills unset fields relative to dataDir.
func (c *Config) ApplyDefaults(dataDir string) {
	if c.Type == "" {
		c.Type = TypeFS
	}
	if c.Type == TypeFS && c.FS.Path == "" {
		c.FS.Path = filepath.Join(dataDir, DirName)
	}
	if c.Type == TypeBadger && c.Badger.Path == "" {
		c.Badger.Path = filepath.Join(dataDir, BadgerDirName)
	}
	if c.Type == TypeS3 && c.S3.Prefix == "" {
		c.S3.Prefix = DirName + "/"
	}
}

// Validate checks the fields required by the selected backend.
func (c *Config) Validate() error {
	switch c.Type {
	case TypeFS:
		if c.FS.Path == "" {
			return fmt.Errorf("blob fs path is required")
		}
	case TypeS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("blob s3 bucket is required")
		}
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			return fmt.Errorf("blob s3 access_key_id and secret_access_key must be set together")
		}
	case TypeBadger:
		if c.Badger.Path == "" {
			return fmt.Errorf("blob badger path is required")
		}
	case TypeMemory:
	default:
		return fmt.Errorf("unsupported blob type: %q", c.Type)
	}
	return nil
}
