package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marmos91/cask/internal/telemetry"
)

func (s *GORMStore) GetMetadata(ctx context.Context, artifactID string) (map[string]string, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "get_metadata", telemetry.ArtifactID(artifactID))
	defer span.End()

	var rows []ArtifactMetadata
	if err := s.db.WithContext(ctx).Where("artifact_id = ?", artifactID).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

func (s *GORMStore) SetMetadata(ctx context.Context, artifactID string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	ctx, span := telemetry.StartStoreSpan(ctx, "set_metadata", telemetry.ArtifactID(artifactID))
	defer span.End()

	rows := make([]ArtifactMetadata, 0, len(values))
	for k, v := range values {
		rows = append(rows, ArtifactMetadata{ArtifactID: artifactID, Key: k, Value: v})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "artifact_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&rows).Error
	})
}

func (s *GORMStore) DeleteMetadata(ctx context.Context, artifactID, key string) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "delete_metadata", telemetry.ArtifactID(artifactID))
	defer span.End()

	return s.db.WithContext(ctx).
		Where("artifact_id = ? AND key = ?", artifactID, key).
		Delete(&ArtifactMetadata{}).Error
}
