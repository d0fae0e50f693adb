package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	client := New("http://localhost:8080/")
	assert.Equal(t, "http://localhost:8080", client.BaseURL())
}

func TestForAddress(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 8080, "http://127.0.0.1:8080"},
		{"0.0.0.0", 9000, "http://127.0.0.1:9000"},
		{"", 80, "http://127.0.0.1:80"},
		{"::1", 8080, "http://[::1]:8080"},
		{"cask.local", 443, "http://cask.local:443"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ForAddress(tt.host, tt.port).BaseURL())
	}
}

func TestWithToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer cask_abc", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := New(server.URL)
	assert.Empty(t, client.token)

	require.NoError(t, client.WithToken("cask_abc").Health(context.Background()))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"ok", http.StatusOK, "ok", ""},
		{"ok with newline", http.StatusOK, "ok\n", ""},
		{"unexpected body", http.StatusOK, "starting", "unexpected health response"},
		{"server error", http.StatusServiceUnavailable, "down", "503 Service Unavailable: down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := New(server.URL).Health(context.Background())
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHealth_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := New(url).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestListArtifacts(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/artifacts", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Artifact{{ID: "1", Name: "tool", Version: "1.0.0", Size: 3, CreatedAt: created}})
	}))
	defer server.Close()

	artifacts, err := New(server.URL).ListArtifacts(context.Background())
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "tool", artifacts[0].Name)
	assert.True(t, created.Equal(artifacts[0].CreatedAt))
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing authorization header"})
	}))
	defer server.Close()

	_, err := New(server.URL).ListArtifacts(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "missing authorization header", apiErr.Message)
	assert.True(t, apiErr.IsAuthError())
	assert.False(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsConflict())
}
