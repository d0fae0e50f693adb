package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/marmos91/cask/internal/telemetry"
)

func (s *GORMStore) ListArtifacts(ctx context.Context) ([]*Artifact, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "list_artifacts")
	defer span.End()

	return listOrdered[Artifact](s.db, ctx, nil, "name ASC, created_at DESC")
}

func (s *GORMStore) ListVersions(ctx context.Context, name string) ([]*Artifact, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "list_versions", telemetry.ArtifactName(name))
	defer span.End()

	return listOrdered[Artifact](s.db, ctx, map[string]any{"name": name}, "created_at DESC")
}

func (s *GORMStore) GetArtifact(ctx context.Context, name, version string) (*Artifact, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "get_artifact",
		telemetry.ArtifactName(name), telemetry.ArtifactVersion(version))
	defer span.End()

	return getByFields[Artifact](s.db, ctx, map[string]any{"name": name, "version": version}, ErrArtifactNotFound)
}

func (s *GORMStore) ArtifactExists(ctx context.Context, name, version string) (bool, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "artifact_exists",
		telemetry.ArtifactName(name), telemetry.ArtifactVersion(version))
	defer span.End()

	var count int64
	err := s.db.WithContext(ctx).Model(&Artifact{}).
		Where("name = ? AND version = ?", name, version).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GORMStore) CreateArtifact(ctx context.Context, artifact *Artifact) (string, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "create_artifact",
		telemetry.ArtifactName(artifact.Name), telemetry.ArtifactVersion(artifact.Version))
	defer span.End()

	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now().UTC()
	}
	return createWithID(s.db, ctx, artifact, func(a *Artifact, id string) { a.ID = id }, artifact.ID, ErrDuplicateArtifact)
}

// DeleteArtifact removes the dependent rows explicitly as well, so the
// result does not depend on the backend enforcing foreign keys.
func (s *GORMStore) DeleteArtifact(ctx context.Context, id string) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "delete_artifact", telemetry.ArtifactID(id))
	defer span.End()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("artifact_id = ?", id).Delete(&ArtifactMetadata{}).Error; err != nil {
			return err
		}
		if err := tx.Where("artifact_id = ?", id).Delete(&DownloadStat{}).Error; err != nil {
			return err
		}
		return deleteByField[Artifact](tx, ctx, "id", id, ErrArtifactNotFound)
	})
}
