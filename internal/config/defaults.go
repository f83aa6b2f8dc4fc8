package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns a configuration with sensible defaults applied.
func DefaultConfig() *Config {
	homeDir := defaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			Timeout: 30 * time.Second,
		},
		Database: DBConfig{
			Path:           filepath.Join(homeDir, "osidb.db"),
			MaxConnections: 10,
			Timeout:        5 * time.Second,
		},
		Workflows: WorkflowsConfig{
			Path: "",
		},
		Collector: CollectorConfig{
			Enabled:  false,
			Schedule: "@hourly",
			BaseURL:  "https://services.nvd.nist.gov/rest/json/cves/2.0",
			Timeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// defaultHomeDir resolves the service home directory, ~/.osidb unless the
// user's home cannot be determined.
func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".osidb"
	}
	return filepath.Join(home, ".osidb")
}
