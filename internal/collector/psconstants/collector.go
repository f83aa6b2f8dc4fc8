package psconstants

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/d10n/osidb/internal/database"
)

// collectorName keys the bookkeeping row in collector_metadata
const collectorName = "ps_constants"

// Collector syncs product-definition constants into the database.
// Each sync fully replaces the previous table contents, so removals
// upstream propagate.
type Collector struct {
	client *Client
	db     *database.DB
	logger *slog.Logger
	now    func() time.Time
}

// CollectorOption is a functional option for configuring the Collector
type CollectorOption func(*Collector)

// WithLogger sets the collector's logger
func WithLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector creates a product-definitions collector
func NewCollector(client *Client, db *database.DB, opts ...CollectorOption) *Collector {
	collector := &Collector{
		client: client,
		db:     db,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(collector)
	}

	return collector
}

// Sync fetches the product-definition document and replaces the local
// constants tables in one transaction.
func (c *Collector) Sync(ctx context.Context) error {
	definitions, err := c.client.Fetch(ctx)
	if err != nil {
		return err
	}

	err = c.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := syncUbiPackages(ctx, tx, definitions.UbiPackages); err != nil {
			return err
		}
		if err := syncSpecialConsiderationPackages(ctx, tx, definitions.SpecialConsiderationPackages); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO collector_metadata (name, last_run)
			VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET last_run = excluded.last_run
		`, collectorName, c.now().UTC())
		return err
	})
	if err != nil {
		return err
	}

	c.logger.Info("synced product-definition constants",
		"ubi_streams", len(definitions.UbiPackages),
		"special_consideration", len(definitions.SpecialConsiderationPackages))
	return nil
}

// syncUbiPackages replaces the UBI component table
func syncUbiPackages(ctx context.Context, tx *sql.Tx, ubiPackages map[string][]string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM ubi_packages"); err != nil {
		return err
	}
	for major, packages := range ubiPackages {
		for _, name := range packages {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO ubi_packages (name, major_stream_version) VALUES (?, ?)",
				name, major)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// syncSpecialConsiderationPackages replaces the special-consideration table
func syncSpecialConsiderationPackages(ctx context.Context, tx *sql.Tx, packages []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM special_consideration_packages"); err != nil {
		return err
	}
	for _, name := range packages {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO special_consideration_packages (name) VALUES (?)", name)
		if err != nil {
			return err
		}
	}
	return nil
}

// UbiPackages returns the UBI components of a major stream version
func (c *Collector) UbiPackages(ctx context.Context, majorStreamVersion string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name FROM ubi_packages WHERE major_stream_version = ? ORDER BY name",
		majorStreamVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNames(rows)
}

// SpecialConsiderationPackages returns all special-consideration components
func (c *Collector) SpecialConsiderationPackages(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name FROM special_consideration_packages ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNames(rows)
}

// IsSpecialConsideration reports whether a component needs special
// consideration during triage.
func (c *Collector) IsSpecialConsideration(ctx context.Context, name string) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM special_consideration_packages WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
