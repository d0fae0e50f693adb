package config

import (
	"strings"
	"time"

	"github.com/marmos91/cask/internal/bytesize"
	"github.com/marmos91/cask/internal/telemetry"
)

// Default values shared with the CLI flag definitions.
const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 8080
	DefaultDataDir       = "./data"
	DefaultMaxUploadSize = 100 * bytesize.MiB
	DefaultLogLevel      = "INFO"
	DefaultMetricsPath   = "/metrics"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}

	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
	cfg.Database.ApplyDefaults(cfg.DataDir)
	cfg.Blob.ApplyDefaults(cfg.DataDir)
	applyMetricsDefaults(&cfg.Metrics)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	// WriteTimeout stays zero so downloads are not cut off.
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 120 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes the level.
func applyLoggingDefaults(cfg *LoggingConfig) {
	cfg.Level = NormalizeLogLevel(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// NormalizeLogLevel uppercases level, maps TRACE to DEBUG and WARNING to
// WARN, and defaults an empty level to INFO.
func NormalizeLogLevel(level string) string {
	level = strings.ToUpper(strings.TrimSpace(level))
	switch level {
	case "":
		return DefaultLogLevel
	case "TRACE":
		return "DEBUG"
	case "WARNING":
		return "WARN"
	}
	return level
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultMetricsPath
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	defaults := telemetry.DefaultConfig()

	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = defaults.SampleRate
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// GetDefaultConfig returns a Config with all defaults applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
