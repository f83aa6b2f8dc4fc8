package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/d10n/osidb/internal/database"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the OSIDB database and configuration",
	Long: `Initialize OSIDB by creating:
- The home directory
- A default configuration file
- The SQLite database with schema`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

const defaultConfigTemplate = `# OSIDB service configuration
database:
  path: %s

# workflows:
#   path: /etc/osidb/workflows.yaml

collector:
  enabled: false
  schedule: "@hourly"
  # api_key: ${NVD_API_KEY}
  # product_definitions_url: https://example.com/product-definitions.yaml

logging:
  level: info
  format: text
`

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	configPath := flags.ConfigFile
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	homeDir := filepath.Dir(configPath)

	cmd.Printf("Initializing OSIDB in %s...\n", homeDir)

	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return err
	}

	dbPath := filepath.Join(homeDir, "osidb.db")

	if _, err := os.Stat(configPath); os.IsNotExist(err) || initForce {
		content := []byte(fmt.Sprintf(defaultConfigTemplate, dbPath))
		if err := os.WriteFile(configPath, content, 0o644); err != nil {
			return err
		}
		cmd.Printf("  Config created: %s\n", configPath)
	} else {
		cmd.Printf("  Config exists: %s (use --force to overwrite)\n", configPath)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		return err
	}
	cmd.Printf("  Database ready: %s\n", dbPath)

	cmd.Println("\nOSIDB initialized successfully!")
	return nil
}
