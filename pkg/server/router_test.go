package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cask/pkg/auth"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/blob/memory"
	"github.com/marmos91/cask/pkg/metrics"
	"github.com/marmos91/cask/pkg/store"
)

type testEnv struct {
	t       *testing.T
	handler http.Handler
	store   *store.GORMStore
	blobs   *memory.Store
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, maxUploadSize int64) *testEnv {
	t.Helper()

	db, err := store.New(context.Background(), &store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "cask.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs := memory.New()
	m := metrics.New()

	return &testEnv{
		t: t,
		handler: NewRouter(RouterConfig{
			Store:         db,
			Blobs:         blob.Instrument(blobs, blob.TypeMemory, m),
			Metrics:       m,
			MaxUploadSize: maxUploadSize,
		}),
		store:   db,
		blobs:   blobs,
		metrics: m,
	}
}

func (e *testEnv) request(method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// createToken posts a token request and returns the decoded reply.
func (e *testEnv) createToken(authToken, body string) (int, map[string]any) {
	e.t.Helper()
	w := e.request(http.MethodPost, "/v1/tokens", authToken, strings.NewReader(body))
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w.Code, resp
}

// bootstrap creates the first (admin) token.
func (e *testEnv) bootstrap() string {
	e.t.Helper()
	code, resp := e.createToken("", `{"label":"admin"}`)
	require.Equal(e.t, http.StatusCreated, code)
	return resp["token"].(string)
}

func (e *testEnv) upload(token, name, version, content string) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.request(http.MethodPut, "/v1/artifacts/"+name+"/"+version, token, strings.NewReader(content))
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp["error"]
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 1024)

	w := env.request(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = env.request(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestTokens_Bootstrap(t *testing.T) {
	env := newTestEnv(t, 1024)

	code, resp := env.createToken("", `{"label":"first","is_admin":false}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, resp["is_admin"], "bootstrap token is always admin")
	assert.Equal(t, "first", resp["label"])
	assert.NotEmpty(t, resp["id"])
	admin := resp["token"].(string)
	assert.True(t, strings.HasPrefix(admin, auth.TokenPrefix))

	// Only the hash is stored.
	stored, err := env.store.FindActiveToken(context.Background(), auth.HashToken(admin), time.Now())
	require.NoError(t, err)
	assert.Equal(t, resp["id"], stored.ID)

	// Once a token exists, creation needs an admin token.
	code, resp = env.createToken("", `{"label":"second"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "missing authorization header", resp["error"])

	code, resp = env.createToken(admin, `{"label":"ci"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, false, resp["is_admin"])
	user := resp["token"].(string)

	code, resp = env.createToken(user, `{"label":"escalate","is_admin":true}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "admin access required", resp["error"])
}

func TestTokens_InvalidRequests(t *testing.T) {
	env := newTestEnv(t, 1024)
	admin := env.bootstrap()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed", `{"label":`, "invalid request body"},
		{"missing label", `{"is_admin":true}`, "label is required"},
		{"bad expiry", `{"label":"x","expires_at":"tomorrow"}`, "invalid expires_at: expected RFC 3339 timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.createToken(admin, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.wantMsg, resp["error"])
		})
	}
}

func TestAuth_Errors(t *testing.T) {
	env := newTestEnv(t, 1024)
	admin := env.bootstrap()

	t.Run("missing header", func(t *testing.T) {
		w := env.upload("", "app", "1.0", "x")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "missing authorization header", errorMessage(t, w))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/artifacts/app/1.0", strings.NewReader("x"))
		req.Header.Set("Authorization", "Basic "+admin)
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid authorization scheme", errorMessage(t, w))
	})

	t.Run("unknown token", func(t *testing.T) {
		w := env.upload("cask_nope", "app", "1.0", "x")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid or expired token", errorMessage(t, w))
	})

	t.Run("expired token", func(t *testing.T) {
		past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
		code, resp := env.createToken(admin, `{"label":"old","expires_at":"`+past+`"}`)
		require.Equal(t, http.StatusCreated, code)

		w := env.upload(resp["token"].(string), "app", "1.0", "x")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid or expired token", errorMessage(t, w))
	})

	t.Run("future expiry is accepted", func(t *testing.T) {
		future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		code, resp := env.createToken(admin, `{"label":"new","expires_at":"`+future+`"}`)
		require.Equal(t, http.StatusCreated, code)

		w := env.upload(resp["token"].(string), "app", "2.0", "x")
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("reads are public", func(t *testing.T) {
		w := env.request(http.MethodGet, "/v1/artifacts", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestArtifacts_UploadDownload(t *testing.T) {
	env := newTestEnv(t, 1024)
	token := env.bootstrap()
	content := "binary payload"

	w := env.upload(token, "app", "1.0.0", content)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created store.Artifact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "app", created.Name)
	assert.Equal(t, "1.0.0", created.Version)
	assert.Equal(t, "app-1.0.0", created.Filename)
	assert.Equal(t, sha256Hex(content), created.SHA256)
	assert.Equal(t, int64(len(content)), created.Size)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, 1, env.blobs.Len())

	w = env.request(http.MethodGet, "/v1/artifacts/app/1.0.0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.String())
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="app-1.0.0"`, w.Header().Get("Content-Disposition"))

	w = env.request(http.MethodGet, "/v1/artifacts/app/9.9.9", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "artifact app/9.9.9 not found", errorMessage(t, w))
}

func TestArtifacts_CustomFilename(t *testing.T) {
	env := newTestEnv(t, 1024)
	token := env.bootstrap()

	w := env.request(http.MethodPut, "/v1/artifacts/tool/2.1?filename=tool-linux-amd64.tar.gz", token, strings.NewReader("tgz"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(http.MethodGet, "/v1/artifacts/tool/2.1", "", nil)
	assert.Equal(t, `attachment; filename="tool-linux-amd64.tar.gz"`, w.Header().Get("Content-Disposition"))
}

func TestArtifacts_Duplicate(t *testing.T) {
	env := newTestEnv(t, 1024)
	token := env.bootstrap()

	require.Equal(t, http.StatusCreated, env.upload(token, "app", "1.0", "a").Code)

	w := env.upload(token, "app", "1.0", "b")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "artifact app/1.0 already exists", errorMessage(t, w))
	assert.Equal(t, 1, env.blobs.Len())

	w = env.request(http.MethodGet, "/v1/artifacts/app/1.0", "", nil)
	assert.Equal(t, "a", w.Body.String())
}

func TestArtifacts_UploadTooLarge(t *testing.T) {
	env := newTestEnv(t, 10)
	token := env.bootstrap()

	t.Run("declared length", func(t *testing.T) {
		w := env.upload(token, "big", "1", "0123456789A")
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "upload size 11 exceeds maximum 10", errorMessage(t, w))
	})

	t.Run("streamed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/artifacts/big/2", strings.NewReader("0123456789ABCDEF"))
		req.ContentLength = -1
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "upload size exceeds maximum 10", errorMessage(t, w))
	})

	t.Run("exact limit", func(t *testing.T) {
		w := env.upload(token, "big", "3", "0123456789")
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	assert.Equal(t, 1, env.blobs.Len())
	exists, err := env.store.ArtifactExists(context.Background(), "big", "2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestArtifacts_List(t *testing.T) {
	env := newTestEnv(t, 1024)
	token := env.bootstrap()

	for _, a := range []struct{ name, version string }{
		{"zeta", "1"}, {"alpha", "1"}, {"alpha", "2"},
	} {
		require.Equal(t, http.StatusCreated, env.upload(token, a.name, a.version, a.name+a.version).Code)
		time.Sleep(10 * time.Millisecond)
	}

	var all []store.Artifact
	w := env.request(http.MethodGet, "/v1/artifacts", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, []string{"alpha/2", "alpha/1", "zeta/1"}, []string{
		all[0].Name + "/" + all[0].Version,
		all[1].Name + "/" + all[1].Version,
		all[2].Name + "/" + all[2].Version,
	})

	var versions []store.Artifact
	w = env.request(http.MethodGet, "/v1/artifacts/alpha", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &versions))
	require.Len(t, versions, 2)
	assert.Equal(t, "2", versions[0].Version)

	w = env.request(http.MethodGet, "/v1/artifacts/unknown", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestArtifacts_Delete(t *testing.T) {
	env := newTestEnv(t, 1024)
	token := env.bootstrap()

	require.Equal(t, http.StatusCreated, env.upload(token, "app", "1.0", "data").Code)
	require.Equal(t, http.StatusNoContent,
		env.request(http.MethodPut, "/v1/artifacts/app/1.0/meta", token, strings.NewReader(`{"os":"linux"}`)).Code)
	require.Equal(t, http.StatusOK, env.request(http.MethodGet, "/v1/artifacts/app/1.0", "", nil).Code)

	w := env.request(http.MethodDelete, "/v1/artifacts/app/1.0", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, env.blobs.Len())

	w = env.request(http.MethodGet, "/v1/artifacts/app/1.0", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(http.MethodGet, "/v1/artifacts/app/stats", "", nil)
	assert.JSONEq(t, `{"downloads":0}`, w.Body.String())

	w = env.request(http.MethodDelete, "/v1/artifacts/app/1.0", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "artifact app/1.0 not found", errorMessage(t, w))

	// The version can be uploaded again.
	assert.Equal(t, http.StatusCreated, env.upload(token, "app", "1.0", "again").Code)
}

func TestMetadata(t *testing.T) {
	env := newTestEnv(t, 1024)
	token := env.bootstrap()
	require.Equal(t, http.StatusCreated, env.upload(token, "app", "1.0", "data").Code)

	w := env.request(http.MethodPut, "/v1/artifacts/app/1.0/meta", token,
		strings.NewReader(`{"os":"linux","arch":"amd64"}`))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(http.MethodPut, "/v1/artifacts/app/1.0/meta", token,
		strings.NewReader(`{"arch":"arm64"}`))
	require.Equal(t, http.StatusNoContent, w.Code)

	var meta map[string]string
	w = env.request(http.MethodGet, "/v1/artifacts/app/1.0/meta", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, sha256Hex("data"), meta["sha256"])
	assert.NotEmpty(t, meta["created_at"])
	assert.Equal(t, "linux", meta["os"])
	assert.Equal(t, "arm64", meta["arch"])

	w = env.request(http.MethodDelete, "/v1/artifacts/app/1.0/meta/os", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.request(http.MethodDelete, "/v1/artifacts/app/1.0/meta/missing", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	meta = nil
	w = env.request(http.MethodGet, "/v1/artifacts/app/1.0/meta", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.NotContains(t, meta, "os")
	assert.Len(t, meta, 3)

	t.Run("unknown artifact", func(t *testing.T) {
		w := env.request(http.MethodGet, "/v1/artifacts/app/2.0/meta", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "artifact app/2.0 not found", errorMessage(t, w))

		w = env.request(http.MethodPut, "/v1/artifacts/app/2.0/meta", token, strings.NewReader(`{}`))
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.request(http.MethodDelete, "/v1/artifacts/app/2.0/meta/os", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-string values", func(t *testing.T) {
		w := env.request(http.MethodPut, "/v1/artifacts/app/1.0/meta", token, strings.NewReader(`{"n":1}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("writes need a token", func(t *testing.T) {
		w := env.request(http.MethodPut, "/v1/artifacts/app/1.0/meta", "", strings.NewReader(`{"a":"b"}`))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, 1024)
	token := env.bootstrap()
	require.Equal(t, http.StatusCreated, env.upload(token, "app", "1.0", "a").Code)
	require.Equal(t, http.StatusCreated, env.upload(token, "app", "2.0", "b").Code)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, env.request(http.MethodGet, "/v1/artifacts/app/1.0", "", nil).Code)
	}
	require.Equal(t, http.StatusOK, env.request(http.MethodGet, "/v1/artifacts/app/2.0", "", nil).Code)

	w := env.request(http.MethodGet, "/v1/artifacts/app/1.0/stats", "", nil)
	assert.JSONEq(t, `{"downloads":2}`, w.Body.String())

	w = env.request(http.MethodGet, "/v1/artifacts/app/stats", "", nil)
	assert.JSONEq(t, `{"downloads":3}`, w.Body.String())

	w = env.request(http.MethodGet, "/v1/artifacts/app/3.0/stats", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"downloads":0}`, w.Body.String())
}

func TestTokens_ListAndRevoke(t *testing.T) {
	env := newTestEnv(t, 1024)
	admin := env.bootstrap()

	code, resp := env.createToken(admin, `{"label":"ci"}`)
	require.Equal(t, http.StatusCreated, code)
	ciID := resp["id"].(string)
	ciToken := resp["token"].(string)

	w := env.request(http.MethodGet, "/v1/tokens", ciToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(http.MethodGet, "/v1/tokens", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "token_hash")
	assert.NotContains(t, w.Body.String(), ciToken)

	var tokens []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	require.Len(t, tokens, 2)
	for _, tok := range tokens {
		assert.Contains(t, tok, "id")
		assert.Contains(t, tok, "label")
		assert.Contains(t, tok, "is_admin")
		assert.Contains(t, tok, "expires_at")
		assert.Contains(t, tok, "created_at")
	}

	w = env.request(http.MethodDelete, "/v1/tokens/"+ciID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(http.MethodDelete, "/v1/tokens/"+ciID, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "token not found", errorMessage(t, w))

	w = env.upload(ciToken, "app", "1.0", "x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 1024)
	token := env.bootstrap()
	require.Equal(t, http.StatusCreated, env.upload(token, "app", "1.0", "abc").Code)
	require.Equal(t, http.StatusOK, env.request(http.MethodGet, "/v1/artifacts/app/1.0", "", nil).Code)

	w := env.request(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `cask_http_requests_total{method="PUT",route="/v1/artifacts/{name}/{version}",status="201"} 1`)
	assert.Contains(t, body, "cask_artifact_uploads_total 1")
	assert.Contains(t, body, "cask_artifact_upload_bytes_total 3")
	assert.Contains(t, body, "cask_artifact_downloads_total 1")
	assert.Contains(t, body, `cask_blob_operations_total{backend="memory",operation="put",status="ok"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	db, err := store.New(context.Background(), &store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(t.TempDir(), "cask.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := NewRouter(RouterConfig{Store: db, Blobs: memory.New(), MaxUploadSize: 10})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
