package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// getByFields returns the first T matching every field=value pair in
// conds, mapping a missing row to notFoundErr.
func getByFields[T any](db *gorm.DB, ctx context.Context, conds map[string]any, notFoundErr error) (*T, error) {
	var result T
	if err := db.WithContext(ctx).Where(conds).First(&result).Error; err != nil {
		return nil, convertNotFoundError(err, notFoundErr)
	}
	return &result, nil
}

// listOrdered returns every T matching conds (all rows when conds is nil)
// sorted by order. The result is never nil.
func listOrdered[T any](db *gorm.DB, ctx context.Context, conds map[string]any, order string) ([]*T, error) {
	results := []*T{}
	q := db.WithContext(ctx)
	if conds != nil {
		q = q.Where(conds)
	}
	if err := q.Order(order).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// createWithID assigns a UUID when currentID is empty, then inserts entity.
// Unique constraint violations become dupErr.
func createWithID[T any](db *gorm.DB, ctx context.Context, entity *T, idSetter func(*T, string), currentID string, dupErr error) (string, error) {
	id := currentID
	if id == "" {
		id = uuid.New().String()
		idSetter(entity, id)
	}
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueConstraintError(err) {
			return "", dupErr
		}
		return "", err
	}
	return id, nil
}

// deleteByField deletes T rows where field=value. Returns notFoundErr if
// nothing was deleted.
func deleteByField[T any](db *gorm.DB, ctx context.Context, field string, value any, notFoundErr error) error {
	var zero T
	result := db.WithContext(ctx).Where(field+" = ?", value).Delete(&zero)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFoundErr
	}
	return nil
}
