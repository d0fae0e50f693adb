package store

import (
	"context"
	"time"

	"github.com/marmos91/cask/internal/telemetry"
)

func (s *GORMStore) CountTokens(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "count_tokens")
	defer span.End()

	var count int64
	err := s.db.WithContext(ctx).Model(&Token{}).Count(&count).Error
	return count, err
}

func (s *GORMStore) CreateToken(ctx context.Context, token *Token) (string, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "create_token")
	defer span.End()

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	return createWithID(s.db, ctx, token, func(t *Token, id string) { t.ID = id }, token.ID, ErrDuplicateToken)
}

// FindActiveToken checks expiry in Go rather than SQL so the comparison
// does not depend on how each backend stores timestamps.
func (s *GORMStore) FindActiveToken(ctx context.Context, hash string, now time.Time) (*Token, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "find_token")
	defer span.End()

	token, err := getByFields[Token](s.db, ctx, map[string]any{"token_hash": hash}, ErrTokenNotFound)
	if err != nil {
		return nil, err
	}
	if token.Expired(now) {
		return nil, ErrTokenNotFound
	}
	span.SetAttributes(telemetry.TokenID(token.ID))
	return token, nil
}

func (s *GORMStore) ListTokens(ctx context.Context) ([]*Token, error) {
	ctx, span := telemetry.StartStoreSpan(ctx, "list_tokens")
	defer span.End()

	return listOrdered[Token](s.db, ctx, nil, "created_at DESC")
}

func (s *GORMStore) DeleteToken(ctx context.Context, id string) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "delete_token", telemetry.TokenID(id))
	defer span.End()

	return deleteByField[Token](s.db, ctx, "id", id, ErrTokenNotFound)
}
