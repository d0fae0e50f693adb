package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by InitConfigToPath when the file exists and
// force is not set.
var ErrConfigExists = errors.New("configuration file already exists")

const configHeader = `# cask configuration file
#
# Every key can be overridden with a CASK_ environment variable, e.g.
#   CASK_SERVER_PORT=9090 or CASK_LOGGING_LEVEL=debug
# Explicitly set command-line flags take precedence over both.
#
# Paths left empty are derived from data_dir:
#   <data_dir>/cask.pid, <data_dir>/cask.log, <data_dir>/cask.db, <data_dir>/artifacts/

`

// InitConfig writes a default configuration file at the default location
// and returns its path.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file at path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
		}
	}

	data, err := DefaultConfigYAML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfigYAML renders the default configuration with a header. The
// data_dir-derived paths are left out so they follow data_dir.
func DefaultConfigYAML() ([]byte, error) {
	cfg := GetDefaultConfig()
	cfg.Database.SQLite.Path = ""
	cfg.Blob.FS.Path = ""

	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
