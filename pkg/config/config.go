// Package config provides the unified configuration for rowmap.
// A single Config structure drives readers, the struct binder, logging,
// metrics, the query executor and the CLI.
//
// The configuration is organized into logical sections:
//   - Reader: materialization defaults (capacity hints, strict binding)
//   - Logging: zap logger settings
//   - Metrics: Prometheus collection
//   - Database: driver and DSN used by the CLI and query executor
//   - Retry: backoff used when a query fails to start
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Reader.InitialCapacity = 256
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
)

// Supported database drivers.
const (
	DriverPgx       = "pgx"
	DriverMySQL     = "mysql"
	DriverSnowflake = "snowflake"
)

// Config is the root configuration structure.
type Config struct {
	// Reader settings apply to every reader built from this config
	Reader ReaderConfig `yaml:"reader" json:"reader" mapstructure:"reader"`

	// Logging settings for the global zap logger
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`

	// Metrics settings for Prometheus collectors
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`

	// Database connection used by the executor and CLI
	Database DatabaseConfig `yaml:"database" json:"database" mapstructure:"database"`

	// Retry policy for starting queries
	Retry RetryConfig `yaml:"retry" json:"retry" mapstructure:"retry"`
}

// ReaderConfig contains materialization settings.
type ReaderConfig struct {
	// InitialCapacity pre-sizes the materialized list
	InitialCapacity int `yaml:"initial_capacity" json:"initial_capacity" mapstructure:"initial_capacity"`
	// TagName is the struct tag consulted by the binder
	TagName string `yaml:"tag_name" json:"tag_name" mapstructure:"tag_name"`
	// StrictColumns rejects columns that bind to no component field
	StrictColumns bool `yaml:"strict_columns" json:"strict_columns" mapstructure:"strict_columns"`
	// SplitOn names the first column of components 2..N
	SplitOn []string `yaml:"split_on" json:"split_on" mapstructure:"split_on"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" json:"development" mapstructure:"development"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Address string `yaml:"address" json:"address" mapstructure:"address"`
}

// DatabaseConfig identifies the database to query.
type DatabaseConfig struct {
	Driver  string        `yaml:"driver" json:"driver" mapstructure:"driver"`
	DSN     string        `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}

// RetryConfig contains query start retry settings.
type RetryConfig struct {
	// Attempts is the total number of tries, 1 disables retries
	Attempts   int           `yaml:"attempts" json:"attempts" mapstructure:"attempts"`
	Delay      time.Duration `yaml:"delay" json:"delay" mapstructure:"delay"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier" mapstructure:"multiplier"`
	MaxDelay   time.Duration `yaml:"max_delay" json:"max_delay" mapstructure:"max_delay"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Reader: ReaderConfig{
			InitialCapacity: 16,
			TagName:         "db",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
		Database: DatabaseConfig{
			Driver:  DriverPgx,
			Timeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			Attempts:   3,
			Delay:      200 * time.Millisecond,
			Multiplier: 2.0,
			MaxDelay:   5 * time.Second,
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Reader.InitialCapacity < 0 {
		return fmt.Errorf("reader.initial_capacity cannot be negative")
	}
	if c.Reader.TagName == "" {
		return fmt.Errorf("reader.tag_name is required")
	}
	if len(c.Reader.SplitOn) > 15 {
		return fmt.Errorf("reader.split_on names at most 15 boundaries, got %d", len(c.Reader.SplitOn))
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1")
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be >= 1")
	}
	return nil
}

// ValidateDatabase checks the driver name and, where the driver offers a
// parser, the DSN shape. It is separate from Validate because library users
// never need a database section.
func (d *DatabaseConfig) ValidateDatabase() error {
	if d.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	switch d.Driver {
	case DriverPgx:
		if _, err := pgx.ParseConfig(d.DSN); err != nil {
			return fmt.Errorf("invalid pgx dsn: %w", err)
		}
	case DriverMySQL:
		if _, err := mysql.ParseDSN(d.DSN); err != nil {
			return fmt.Errorf("invalid mysql dsn: %w", err)
		}
	case DriverSnowflake:
	default:
		return fmt.Errorf("unsupported driver %q", d.Driver)
	}
	return nil
}
