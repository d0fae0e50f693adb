package store

import (
	"fmt"
	"path/filepath"
)

// DatabaseType selects the metadata database backend.
type DatabaseType string

const (
	// DatabaseTypeSQLite keeps metadata in a file under the data directory.
	DatabaseTypeSQLite DatabaseType = "sqlite"

	// DatabaseTypePostgres uses an external PostgreSQL server.
	DatabaseTypePostgres DatabaseType = "postgres"
)

// DBFileName is the SQLite database file created under the data directory.
const DBFileName = "cask.db"

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file. Defaults to <data_dir>/cask.db.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host,omitempty"`
	Port         int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`
	Database     string `mapstructure:"database" yaml:"database,omitempty"`
	User         string `mapstructure:"user" yaml:"user,omitempty"`
	Password     string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode      string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full" yaml:"sslmode,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"omitempty,min=1" yaml:"max_open_conns,omitempty"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"omitempty,min=0" yaml:"max_idle_conns,omitempty"`
}

// DSN returns the key/value connection string understood by both pgx and
// the gorm postgres driver.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += " sslmode=" + c.SSLMode
	}
	return dsn
}

// Config selects and configures the metadata database.
type Config struct {
	Type     DatabaseType   `mapstructure:"type" validate:"omitempty,oneof=sqlite postgres" yaml:"type"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres,omitempty"`
}

// ApplyDefaults fills unset fields. The SQLite file defaults to a path
// under dataDir.
func (c *Config) ApplyDefaults(dataDir string) {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}

	if c.Type == DatabaseTypeSQLite && c.SQLite.Path == "" {
		c.SQLite.Path = filepath.Join(dataDir, DBFileName)
	}

	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 25
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 5
		}
	}
}

// Validate checks the fields required by the selected backend.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Type)
	}
	return nil
}
