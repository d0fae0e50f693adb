package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/cask/internal/bytesize"
	"github.com/marmos91/cask/internal/supervisor"
	"github.com/marmos91/cask/pkg/blob"
	"github.com/marmos91/cask/pkg/store"
)

// EnvPrefix prefixes every environment override, e.g. CASK_SERVER_PORT.
const EnvPrefix = "CASK"

// Config is the cask configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags that were explicitly set (applied by the commands)
//  2. Environment variables (CASK_*)
//  3. Configuration file (YAML)
//  4. Default values
type Config struct {
	// DataDir holds the pid file, the log file, the SQLite database and
	// the blob directory.
	DataDir string `mapstructure:"data_dir" validate:"required" yaml:"data_dir"`

	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Database  store.Config    `mapstructure:"database" yaml:"database"`
	Blob      blob.Config     `mapstructure:"blob" yaml:"blob"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `mapstructure:"host" validate:"required" yaml:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535" yaml:"port"`

	// MaxUploadSize bounds an artifact upload. Accepts "100MiB" or bytes.
	MaxUploadSize bytesize.ByteSize `mapstructure:"max_upload_size" validate:"gt=0" yaml:"max_upload_size"`

	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"gte=0" yaml:"read_timeout"`

	// WriteTimeout of zero leaves large downloads unbounded.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0" yaml:"write_timeout"`

	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gte=0" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0" yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is normalized to uppercase; TRACE is accepted as DEBUG.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR" yaml:"level"`

	// Format is text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls the Prometheus endpoint on the API server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" validate:"omitempty,startswith=/" yaml:"path"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of traces kept, from 0 to 1.
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL.
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint"`

	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// PIDFile is the pid registry path under the data directory.
func (c *Config) PIDFile() string {
	return supervisor.PIDPath(c.DataDir)
}

// LogFile is the daemon log path under the data directory.
func (c *Config) LogFile() string {
	return supervisor.LogPath(c.DataDir)
}

// Load reads configuration from the file at configPath (or the default
// location when empty), CASK_* environment variables and defaults. A
// missing file is not an error.
func Load(configPath string) (*Config, error) {
	return LoadWithOverrides(configPath, nil)
}

// LoadWithOverrides is Load with override applied after the file and
// environment are decoded and before defaults are filled in, so paths
// derived from data_dir follow an overridden data_dir. override may be nil.
func LoadWithOverrides(configPath string, override func(*Config)) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if override != nil {
		override(&cfg)
	}
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load for commands that need an existing file: it fails with
// instructions when the file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Create it with:\n"+
			"  cask config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML. The file is created with mode 0600 since
// it may hold database and S3 credentials.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	// Example: CASK_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only answers keys viper already knows about, and
	// Unmarshal only asks for known keys; bind every field so env
	// overrides apply even without a config file.
	bindEnvs(v, reflect.TypeOf(Config{}), "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// bindEnvs registers every mapstructure key of t (recursively) with viper.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			bindEnvs(v, field.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// readConfigFile reports whether a config file was read.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook accepts "100MiB", "1Gi", or a plain number of bytes.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			if v < 0 {
				return nil, fmt.Errorf("negative size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("negative size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often decodes numbers as float64.
			if v < 0 {
				return nil, fmt.Errorf("negative size: %v", v)
			}
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook accepts "30s", "5m", or a number of nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir uses XDG_CONFIG_HOME, then ~/.config, then ".".
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "cask")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "cask")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
