package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Migrator handles database schema migrations
type Migrator interface {
	// Migrate applies all pending migrations
	Migrate(ctx context.Context) error

	// CurrentVersion returns the current schema version
	CurrentVersion(ctx context.Context) (int, error)
}

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// migrator implements the Migrator interface
type migrator struct {
	db         *DB
	migrations []migration
}

// NewMigrator creates a new database migrator
func NewMigrator(db *DB) Migrator {
	return &migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

// getMigrations returns all available migrations in order
func getMigrations() []migration {
	migrations := []migration{
		{
			version: 1,
			name:    "flaws_table",
			up:      getFlawsTableSchema(),
		},
		{
			version: 2,
			name:    "collector_metadata",
			up:      getCollectorMetadataSchema(),
		},
		{
			version: 3,
			name:    "ps_constants_tables",
			up:      getPSConstantsSchema(),
		},
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations
}

// getFlawsTableSchema returns the schema for the flaws table
func getFlawsTableSchema() string {
	return `
-- Flaws table: one row per tracked vulnerability record
CREATE TABLE IF NOT EXISTS flaws (
    uuid TEXT PRIMARY KEY,
    cve_id TEXT,
    cwe_id TEXT,
    type TEXT,
    impact TEXT,
    component TEXT,
    title TEXT,
    description TEXT,
    summary TEXT,
    statement TEXT,
    mitigation TEXT,
    source TEXT,

    cvss2 TEXT,
    cvss2_score REAL,
    cvss3 TEXT,
    cvss3_score REAL,
    nvd_cvss2 TEXT,
    nvd_cvss3 TEXT,

    is_major_incident INTEGER NOT NULL DEFAULT 0,
    embargoed INTEGER NOT NULL DEFAULT 0,

    -- relations serialized as JSON
    affects TEXT,
    cvss_scores TEXT,
    package_versions TEXT,

    -- stored classification
    workflow_name TEXT NOT NULL DEFAULT '',
    state_name TEXT NOT NULL DEFAULT '',

    created_dt TIMESTAMP,
    updated_dt TIMESTAMP,
    reported_dt TIMESTAMP,
    unembargo_dt TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_flaws_cve ON flaws(cve_id);
CREATE INDEX IF NOT EXISTS idx_flaws_workflow ON flaws(workflow_name, state_name);
CREATE INDEX IF NOT EXISTS idx_flaws_impact ON flaws(impact);
CREATE INDEX IF NOT EXISTS idx_flaws_updated ON flaws(updated_dt DESC);
`
}

// getCollectorMetadataSchema returns the schema for collector bookkeeping
func getCollectorMetadataSchema() string {
	return `
-- Collector metadata: per-collector sync watermarks
CREATE TABLE IF NOT EXISTS collector_metadata (
    name TEXT PRIMARY KEY,
    updated_until TIMESTAMP,
    last_run TIMESTAMP
);
`
}

// getPSConstantsSchema returns the schema for the product-definition
// constants synced from product definitions
func getPSConstantsSchema() string {
	return `
-- UBI components per major RHEL stream
CREATE TABLE IF NOT EXISTS ubi_packages (
    name TEXT NOT NULL,
    major_stream_version TEXT NOT NULL,
    PRIMARY KEY (name, major_stream_version)
);

-- Components needing special consideration during triage
CREATE TABLE IF NOT EXISTS special_consideration_packages (
    name TEXT PRIMARY KEY
);
`
}

// Migrate applies all pending migrations
func (m *migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, mig := range m.migrations {
		if mig.version <= currentVersion {
			continue
		}
		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.version, mig.name, err)
		}
	}
	return nil
}

// CurrentVersion returns the current schema version
func (m *migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	var version int
	query := "SELECT COALESCE(MAX(version), 0) FROM migrations"
	if err := m.db.conn.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}
	return version, nil
}

// ensureMigrationsTable creates the migrations table if it doesn't exist
func (m *migrator) ensureMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := m.db.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// applyMigration applies a single migration within a transaction
func (m *migrator) applyMigration(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range splitSQL(mig.up) {
			stmt = removeComments(stmt)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
			mig.version, mig.name)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}

// splitSQL splits an SQL script into individual statements
func splitSQL(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		if strings.TrimSpace(stmt) != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// removeComments strips single-line SQL comments from a statement
func removeComments(stmt string) string {
	var result strings.Builder
	for _, line := range strings.Split(stmt, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		if strings.TrimSpace(line) != "" {
			result.WriteString(line)
			result.WriteString("\n")
		}
	}
	return strings.TrimSpace(result.String())
}
