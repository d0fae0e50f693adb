package store

import (
	"errors"
	"time"
)

var (
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrDuplicateArtifact = errors.New("artifact already exists")
	ErrTokenNotFound     = errors.New("token not found")
	ErrDuplicateToken    = errors.New("token already exists")
)

// Artifact is one stored version of a named binary.
type Artifact struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_artifacts_name_version,priority:1" json:"name"`
	Version   string    `gorm:"not null;uniqueIndex:idx_artifacts_name_version,priority:2" json:"version"`
	Filename  string    `gorm:"not null" json:"filename"`
	SHA256    string    `gorm:"column:sha256;size:64;not null" json:"sha256"`
	Size      int64     `gorm:"not null" json:"size"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`

	Metadata  []ArtifactMetadata `gorm:"foreignKey:ArtifactID;constraint:OnDelete:CASCADE" json:"-"`
	Downloads []DownloadStat     `gorm:"foreignKey:ArtifactID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Artifact) TableName() string { return "artifacts" }

// ArtifactMetadata is one custom key/value attached to an artifact.
type ArtifactMetadata struct {
	ArtifactID string `gorm:"primaryKey;size:36"`
	Key        string `gorm:"primaryKey"`
	Value      string `gorm:"not null"`
}

func (ArtifactMetadata) TableName() string { return "artifact_metadata" }

// DownloadStat records one download of an artifact.
type DownloadStat struct {
	ID           string    `gorm:"primaryKey;size:36"`
	ArtifactID   string    `gorm:"size:36;not null;index"`
	IP           string    `gorm:"column:ip"`
	DownloadedAt time.Time `gorm:"not null"`
}

func (DownloadStat) TableName() string { return "download_stats" }

// Token is an API token. Only the SHA-256 of the secret is stored.
type Token struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	TokenHash string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Label     string     `gorm:"not null" json:"label"`
	IsAdmin   bool       `gorm:"not null" json:"is_admin"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (Token) TableName() string { return "tokens" }

// Expired reports whether the token is past its expiry at now.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// AllModels lists the models migrated on SQLite.
func AllModels() []any {
	return []any{
		&Artifact{},
		&ArtifactMetadata{},
		&DownloadStat{},
		&Token{},
	}
}
