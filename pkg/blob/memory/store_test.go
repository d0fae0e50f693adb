package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cask/pkg/blob"
)

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Put(ctx, "a", strings.NewReader("one")))
	require.NoError(t, s.Put(ctx, "b", strings.NewReader("two")))
	assert.Equal(t, 2, s.Len())

	rc, err := s.Get(ctx, "a")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, blob.ErrNotFound)
	assert.Equal(t, 1, s.Len())

	assert.ErrorIs(t, s.Put(ctx, "", strings.NewReader("x")), blob.ErrInvalidID)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.HealthCheck(ctx), blob.ErrClosed)
	assert.ErrorIs(t, s.Put(ctx, "c", strings.NewReader("x")), blob.ErrClosed)
}
