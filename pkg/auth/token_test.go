package auth

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a := GenerateToken()
	b := GenerateToken()

	assert.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, TokenPrefix))

	_, err := uuid.Parse(strings.TrimPrefix(a, TokenPrefix))
	assert.NoError(t, err)
}

func TestHashToken(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashToken("abc"))

	h := HashToken(GenerateToken())
	assert.Len(t, h, 64)
	assert.Equal(t, strings.ToLower(h), h)
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer cask_123", "cask_123", nil},
		{"", "", ErrMissingHeader},
		{"Basic dXNlcjpwYXNz", "", ErrInvalidScheme},
		{"bearer cask_123", "", ErrInvalidScheme},
		{"Bearer", "", ErrInvalidScheme},
		{"Bearer ", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ExtractBearer(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "missing authorization header", ErrMissingHeader.Error())
	assert.Equal(t, "invalid authorization scheme", ErrInvalidScheme.Error())
}
