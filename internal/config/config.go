// Package config loads and validates the service configuration from YAML
// files with ${VAR} environment interpolation.
package config

import (
	"time"
)

// Config is the root configuration for the OSIDB service.
type Config struct {
	Core      CoreConfig      `mapstructure:"core" yaml:"core" validate:"required"`
	Database  DBConfig        `mapstructure:"database" yaml:"database" validate:"required"`
	Workflows WorkflowsConfig `mapstructure:"workflows" yaml:"workflows"`
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir string        `mapstructure:"home_dir" yaml:"home_dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	Debug   bool          `mapstructure:"debug" yaml:"debug"`
}

// DBConfig contains database configuration.
type DBConfig struct {
	Path           string        `mapstructure:"path" yaml:"path"`
	MaxConnections int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=1,max=100"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
}

// WorkflowsConfig locates the workflow definition file. An empty path means
// the built-in definitions are used.
type WorkflowsConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// CollectorConfig contains settings for the NVD score collector.
type CollectorConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Schedule is a cron expression controlling periodic collection runs
	Schedule string `mapstructure:"schedule" yaml:"schedule"`

	// BaseURL overrides the NVD API endpoint, mainly for testing
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// APIKey raises the NVD rate limit when set
	APIKey string `mapstructure:"api_key" yaml:"api_key,omitempty"`

	// ProductDefinitionsURL is the endpoint serving the product-definition
	// document consumed by the constants sync
	ProductDefinitionsURL string `mapstructure:"product_definitions_url" yaml:"product_definitions_url"`

	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}
