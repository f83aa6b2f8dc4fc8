package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/d10n/osidb/internal/config"
	"github.com/d10n/osidb/internal/database"
	"github.com/d10n/osidb/internal/workflow"
)

// app bundles the dependencies most commands need
type app struct {
	cfg       *config.Config
	db        *database.DB
	framework *workflow.Framework
	logger    *slog.Logger
}

// loadApp loads configuration, opens the database and builds the workflow
// framework. Callers must Close the returned app.
func loadApp(cmd *cobra.Command) (*app, error) {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(flags)
	if err != nil {
		return nil, err
	}

	logger := config.NewLogger(cfg.Logging)
	if flags.IsVerbose() {
		logger = config.NewLogger(config.LoggingConfig{Level: "debug", Format: cfg.Logging.Format})
	}
	slog.SetDefault(logger)

	framework, err := buildFramework(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenWithConfig(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxConnections / 2,
		ConnMaxLifetime: time.Hour,
		BusyTimeout:     cfg.Database.Timeout,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, db: db, framework: framework, logger: logger}, nil
}

// Close releases the app's resources
func (a *app) Close() error {
	return a.db.Close()
}

// loadConfigFile resolves and loads the configuration file
func loadConfigFile(flags *GlobalFlags) (*config.Config, error) {
	path := flags.ConfigFile
	if path == "" {
		path = defaultConfigPath()
	}
	return config.NewLoader(config.NewValidator()).LoadWithDefaults(path)
}

// defaultConfigPath is ~/.osidb/osidb.yaml
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "osidb.yaml"
	}
	return filepath.Join(home, ".osidb", "osidb.yaml")
}

// buildFramework registers workflow definitions, from the configured YAML
// file when one is set and the built-in definitions otherwise.
func buildFramework(cfg *config.Config) (*workflow.Framework, error) {
	framework := workflow.NewFramework()

	if cfg.Workflows.Path != "" {
		workflows, err := workflow.LoadDefinitions(cfg.Workflows.Path)
		if err != nil {
			return nil, err
		}
		for _, w := range workflows {
			framework.RegisterWorkflow(w)
		}
		return framework, nil
	}

	for _, w := range workflow.DefaultDefinitions() {
		framework.RegisterWorkflow(w)
	}
	return framework, nil
}
