package badger

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cask/pkg/blob"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blobs.badger")
	s, err := Open(blob.BadgerConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func readAll(t *testing.T, s *Store, id string) string {
	t.Helper()
	rc, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	require.NoError(t, s.Put(ctx, "a", strings.NewReader("first")))
	assert.Equal(t, "first", readAll(t, s, "a"))

	require.NoError(t, s.Put(ctx, "a", strings.NewReader("second")))
	assert.Equal(t, "second", readAll(t, s, "a"))

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"), "deleting a missing blob is not an error")

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestStore_RejectsInvalidIDs(t *testing.T) {
	s, _ := openTestStore(t)
	assert.ErrorIs(t, s.Put(context.Background(), "../x", strings.NewReader("x")), blob.ErrInvalidID)
	_, err := s.Get(context.Background(), "")
	assert.ErrorIs(t, err, blob.ErrInvalidID)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)
	require.NoError(t, s.Put(ctx, "kept", strings.NewReader("payload")))
	require.NoError(t, s.Close())

	reopened, err := Open(blob.BadgerConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	assert.Equal(t, "payload", readAll(t, reopened, "kept"))
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)
	require.NoError(t, s.HealthCheck(ctx))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.HealthCheck(ctx), blob.ErrClosed)
	assert.ErrorIs(t, s.Put(ctx, "a", strings.NewReader("x")), blob.ErrClosed)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(blob.BadgerConfig{})
	require.Error(t, err)
}
