// Package store persists artifact records, custom metadata, download
// statistics and API tokens.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL
package store

import (
	"context"
	"time"
)

// Store is the metadata persistence interface used by the HTTP service.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// ============================================
	// ARTIFACT OPERATIONS
	// ============================================

	// ListArtifacts returns every artifact ordered by name, newest first
	// within a name.
	ListArtifacts(ctx context.Context) ([]*Artifact, error)

	// ListVersions returns the versions of name, newest first.
	ListVersions(ctx context.Context, name string) ([]*Artifact, error)

	// GetArtifact returns one version.
	// Returns ErrArtifactNotFound if it doesn't exist.
	GetArtifact(ctx context.Context, name, version string) (*Artifact, error)

	// ArtifactExists reports whether name/version is stored.
	ArtifactExists(ctx context.Context, name, version string) (bool, error)

	// CreateArtifact inserts a new artifact. The ID is generated if empty.
	// Returns ErrDuplicateArtifact if name/version already exists.
	CreateArtifact(ctx context.Context, artifact *Artifact) (string, error)

	// DeleteArtifact removes an artifact with its metadata and statistics.
	// Returns ErrArtifactNotFound if it doesn't exist.
	DeleteArtifact(ctx context.Context, id string) error

	// ============================================
	// METADATA OPERATIONS
	// ============================================

	// GetMetadata returns the custom key/values of an artifact.
	GetMetadata(ctx context.Context, artifactID string) (map[string]string, error)

	// SetMetadata inserts or replaces the given keys.
	SetMetadata(ctx context.Context, artifactID string, values map[string]string) error

	// DeleteMetadata removes one key. Removing an absent key is not an error.
	DeleteMetadata(ctx context.Context, artifactID, key string) error

	// ============================================
	// STATISTICS
	// ============================================

	// RecordDownload stores one download event.
	RecordDownload(ctx context.Context, artifactID, ip string) error

	// VersionDownloads counts downloads of name/version. Unknown versions
	// count zero.
	VersionDownloads(ctx context.Context, name, version string) (int64, error)

	// ArtifactDownloads counts downloads across all versions of name.
	ArtifactDownloads(ctx context.Context, name string) (int64, error)

	// ============================================
	// TOKEN OPERATIONS
	// ============================================

	// CountTokens returns the number of stored tokens.
	CountTokens(ctx context.Context) (int64, error)

	// CreateToken inserts a token. The ID is generated if empty.
	CreateToken(ctx context.Context, token *Token) (string, error)

	// FindActiveToken returns the token whose hash matches and which has
	// not expired at now.
	// Returns ErrTokenNotFound otherwise.
	FindActiveToken(ctx context.Context, hash string, now time.Time) (*Token, error)

	// ListTokens returns every token, newest first.
	ListTokens(ctx context.Context) ([]*Token, error)

	// DeleteToken revokes a token.
	// Returns ErrTokenNotFound if it doesn't exist.
	DeleteToken(ctx context.Context, id string) error

	// ============================================
	// HEALTH & LIFECYCLE
	// ============================================

	Healthcheck(ctx context.Context) error
	Close() error
}
