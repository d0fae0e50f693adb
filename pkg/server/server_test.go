package server

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cask/internal/supervisor"
	"github.com/marmos91/cask/pkg/apiclient"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{DataDir: filepath.Join(t.TempDir(), "data")}
	config.ApplyDefaults(cfg)
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	return cfg
}

func TestOpen_CreatesDataLayout(t *testing.T) {
	cfg := testConfig(t)

	srv, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	assert.DirExists(t, cfg.DataDir)
	assert.DirExists(t, filepath.Join(cfg.DataDir, blob.DirName))
	assert.FileExists(t, filepath.Join(cfg.DataDir, "cask.db"))
}

func TestOpen_BadgerBlobStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blob = blob.Config{Type: blob.TypeBadger}
	cfg.Blob.ApplyDefaults(cfg.DataDir)

	srv, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	assert.DirExists(t, filepath.Join(cfg.DataDir, blob.BadgerDirName))
	assert.NoError(t, srv.deps.Blobs.HealthCheck(context.Background()))
}

func TestOpen_UnsupportedBlobType(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blob.Type = "tape"

	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported blob type: "tape"`)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = true

	srv, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	addr, err := srv.Listen()
	require.NoError(t, err)
	assert.Equal(t, addr, srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	client := apiclient.New("http://" + addr)
	require.NoError(t, client.Health(context.Background()))

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	assert.NoError(t, srv.Stop(context.Background()), "Stop is idempotent")
	assert.Error(t, client.Health(context.Background()))
}

func TestServer_ListenConflict(t *testing.T) {
	first, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })

	addr, err := first.Listen()
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	cfg := testConfig(t)
	host, port := splitAddr(t, addr)
	cfg.Server.Host = host
	cfg.Server.Port = port

	second, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	_, err = second.Listen()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind to "+addr)
}

func TestServer_UnderRunner(t *testing.T) {
	srv, err := Open(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- supervisor.NewRunner().Run(ctx, srv) }()

	require.Eventually(t, func() bool {
		return apiclient.New("http://"+srv.Addr()).Health(context.Background()) == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not return after cancellation")
	}
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}
