package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/cask/internal/bytesize"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/store"
)

// yamlSafePath avoids backslash escapes in double-quoted YAML on Windows.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, bytesize.ByteSize(104857600), cfg.Server.MaxUploadSize)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Zero(t, cfg.Server.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, store.DatabaseTypeSQLite, cfg.Database.Type)
	assert.Equal(t, filepath.Join("./data", "cask.db"), cfg.Database.SQLite.Path)
	assert.Equal(t, blob.TypeFS, cfg.Blob.Type)
	assert.Equal(t, filepath.Join("./data", "artifacts"), cfg.Blob.FS.Path)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)
}

func TestLoad_File(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, `
data_dir: "`+yamlSafePath(dataDir)+`"
server:
  host: 0.0.0.0
  port: 9000
  max_upload_size: 1GiB
  shutdown_timeout: 10s
logging:
  level: trace
  format: JSON
database:
  type: postgres
  postgres:
    host: db
    database: cask
    user: cask
blob:
  type: s3
  s3:
    bucket: artifacts
    region: eu-west-1
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dataDir, filepath.ToSlash(cfg.DataDir))
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, bytesize.GiB, cfg.Server.MaxUploadSize)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, store.DatabaseTypePostgres, cfg.Database.Type)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Empty(t, cfg.Database.SQLite.Path)

	assert.Equal(t, blob.TypeS3, cfg.Blob.Type)
	assert.Equal(t, "artifacts/", cfg.Blob.S3.Prefix)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
logging:
  level: info
`)
	t.Setenv("CASK_SERVER_PORT", "9100")
	t.Setenv("CASK_LOGGING_LEVEL", "warn")
	t.Setenv("CASK_SERVER_MAX_UPLOAD_SIZE", "5MiB")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, 5*bytesize.MiB, cfg.Server.MaxUploadSize)
}

func TestLoad_EnvWithoutFile(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("CASK_DATA_DIR", dataDir)
	t.Setenv("CASK_METRICS_ENABLED", "true")
	t.Setenv("CASK_TELEMETRY_PROFILING_PROFILE_TYPES", "cpu,goroutines")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "cask.db"), cfg.Database.SQLite.Path)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"cpu", "goroutines"}, cfg.Telemetry.Profiling.ProfileTypes)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"port", "server:\n  port: 70000\n", "server.port: failed 'max=65535'"},
		{"level", "logging:\n  level: loud\n", "logging.level: failed 'oneof"},
		{"size", "server:\n  max_upload_size: lots\n", "invalid byte size"},
		{"database", "database:\n  type: postgres\n", "database: postgres host is required"},
		{"blob", "blob:\n  type: s3\n", "blob: blob s3 bucket is required"},
		{"profile type", "telemetry:\n  profiling:\n    enabled: true\n    profile_types: [cpu, heap]\n", "unknown profile type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := MustLoad(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
	assert.Contains(t, err.Error(), "cask config init --config "+path)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Server.Port = 9999
	cfg.Server.MaxUploadSize = 64 * bytesize.MiB
	cfg.Server.ShutdownTimeout = 7 * time.Second
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if filepath.Separator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.Server.Port)
	assert.Equal(t, 64*bytesize.MiB, loaded.Server.MaxUploadSize)
	assert.Equal(t, 7*time.Second, loaded.Server.ShutdownTimeout)
}

func TestLoadWithOverrides_DerivedPathsFollowDataDir(t *testing.T) {
	path := writeConfig(t, "data_dir: /srv/original\nserver:\n  port: 9000\n")
	dataDir := filepath.Join(t.TempDir(), "override")

	cfg, err := LoadWithOverrides(path, func(c *Config) {
		c.DataDir = dataDir
		c.Logging.Level = "trace"
	})
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(dataDir, "cask.db"), cfg.Database.SQLite.Path)
	assert.Equal(t, filepath.Join(dataDir, "artifacts"), cfg.Blob.FS.Path)
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/cask"}
	assert.Equal(t, filepath.Join("/var/lib/cask", "cask.pid"), cfg.PIDFile())
	assert.Equal(t, filepath.Join("/var/lib/cask", "cask.log"), cfg.LogFile())
}

func TestNormalizeLogLevel(t *testing.T) {
	tests := map[string]string{
		"":        "INFO",
		"trace":   "DEBUG",
		"Debug":   "DEBUG",
		"info":    "INFO",
		"warning": "WARN",
		" error ": "ERROR",
		"bogus":   "BOGUS",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLogLevel(in), in)
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "cask"), GetConfigDir())
	assert.Equal(t, filepath.Join(dir, "cask", "config.yaml"), GetDefaultConfigPath())
}

func TestInitConfigToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom", "config.yaml")

	require.NoError(t, InitConfigToPath(path, false))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# cask configuration file")
	assert.Contains(t, string(content), "max_upload_size: 100Mi")
	assert.NotContains(t, string(content), filepath.Join("data", "cask.db"))

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(content, &raw))
	assert.Contains(t, raw, "server")

	err = InitConfigToPath(path, false)
	assert.ErrorIs(t, err, ErrConfigExists)

	require.NoError(t, InitConfigToPath(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, filepath.Join("./data", "cask.db"), cfg.Database.SQLite.Path)
}

func TestInitConfig_DefaultLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitConfig(false)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, GetDefaultConfigPath(), path)

	_, err = InitConfig(false)
	assert.ErrorIs(t, err, ErrConfigExists)
}
