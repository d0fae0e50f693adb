package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/cask/internal/telemetry"
)

func (s *GORMStore) RecordDownload(ctx context.Context, artifactID, ip string) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "record_download", telemetry.ArtifactID(artifactID))
	defer span.End()

	return s.db.WithContext(ctx).Create(&DownloadStat{
		ID:           uuid.New().String(),
		ArtifactID:   artifactID,
		IP:           ip,
		DownloadedAt: time.Now().UTC(),
	}).Error
}

func (s *GORMStore) VersionDownloads(ctx context.Context, name, version string) (int64, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "version_downloads",
		telemetry.ArtifactName(name), telemetry.ArtifactVersion(version))
	defer span.End()

	var count int64
	err := s.db.WithContext(ctx).Model(&DownloadStat{}).
		Joins("JOIN artifacts ON artifacts.id = download_stats.artifact_id").
		Where("artifacts.name = ? AND artifacts.version = ?", name, version).
		Count(&count).Error
	return count, err
}

func (s *GORMStore) ArtifactDownloads(ctx context.Context, name string) (int64, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "artifact_downloads", telemetry.ArtifactName(name))
	defer span.End()

	var count int64
	err := s.db.WithContext(ctx).Model(&DownloadStat{}).
		Joins("JOIN artifacts ON artifacts.id = download_stats.artifact_id").
		Where("artifacts.name = ?", name).
		Count(&count).Error
	return count, err
}
