package config

import (
	"fmt"
	"net/url"
)

// Supported storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLitePath is the database file written next to the checkout
const DefaultSQLitePath = "bench-build.db"

// StorageConfig selects and configures the run store backend
type StorageConfig struct {
	Driver     string           `yaml:"driver"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
}

// SQLiteConfig configures the embedded database. An empty path opens a private in-memory database.
type SQLiteConfig struct {
	Path          string `yaml:"path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

// PostgreSQLConfig contains connection settings for a shared results database
type PostgreSQLConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// DefaultStorageConfig returns a sqlite configuration writing bench-build.db
func DefaultStorageConfig() StorageConfig {
	cfg := StorageConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *StorageConfig) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.SQLite.Path == "" && c.Driver == DriverSQLite {
		c.SQLite.Path = DefaultSQLitePath
	}
	if c.SQLite.BusyTimeoutMS == 0 {
		c.SQLite.BusyTimeoutMS = 5000
	}
	if c.PostgreSQL.Host == "" {
		c.PostgreSQL.Host = "localhost"
	}
	if c.PostgreSQL.Port == 0 {
		c.PostgreSQL.Port = 5432
	}
	if c.PostgreSQL.Database == "" {
		c.PostgreSQL.Database = "buildbench"
	}
	if c.PostgreSQL.User == "" {
		c.PostgreSQL.User = "postgres"
	}
	if c.PostgreSQL.SSLMode == "" {
		c.PostgreSQL.SSLMode = "disable"
	}
	if c.PostgreSQL.MaxOpenConns == 0 {
		c.PostgreSQL.MaxOpenConns = 4
	}
	if c.PostgreSQL.MaxIdleConns == 0 {
		c.PostgreSQL.MaxIdleConns = 2
	}
}

// Validate validates the storage configuration
func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.SQLite.BusyTimeoutMS < 0 {
			return fmt.Errorf("sqlite busy_timeout_ms must not be negative")
		}
		return nil
	case DriverPostgres:
		if err := c.PostgreSQL.Validate(); err != nil {
			return fmt.Errorf("invalid PostgreSQL configuration: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported storage driver %q (want %q or %q)", c.Driver, DriverSQLite, DriverPostgres)
	}
}

// Validate validates the PostgreSQL configuration
func (c *PostgreSQLConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("max_open_conns must be greater than 0")
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("max_idle_conns must not be negative")
	}
	return nil
}

// ConnectionString returns the lib/pq keyword/value connection string
func (c *PostgreSQLConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DSN returns the modernc.org/sqlite data source name for this configuration
func (c *SQLiteConfig) DSN() string {
	pragmas := url.Values{}
	pragmas.Add("_pragma", "foreign_keys(1)")
	pragmas.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeoutMS))
	if c.Path == "" {
		return "file::memory:?" + pragmas.Encode()
	}
	return "file:" + c.Path + "?" + pragmas.Encode()
}
