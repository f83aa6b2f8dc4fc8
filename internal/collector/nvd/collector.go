package nvd

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/d10n/osidb/internal/database"
	"github.com/d10n/osidb/internal/flaw"
	"github.com/d10n/osidb/internal/workflow"
)

// collectorName keys the watermark row in collector_metadata
const collectorName = "nvd"

// batchPeriod is the modification window collected per batch. The NVD API
// caps the window at 120 days.
const batchPeriod = 100 * 24 * time.Hour

// Collector enriches stored flaws with NVD CVSS scores.
type Collector struct {
	client    *Client
	store     flaw.Store
	framework *workflow.Framework
	db        *database.DB
	logger    *slog.Logger
	now       func() time.Time
}

// CollectorOption is a functional option for configuring the Collector
type CollectorOption func(*Collector)

// WithLogger sets the collector's logger
func WithLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector creates an NVD collector over the given store and framework
func NewCollector(client *Client, store flaw.Store, framework *workflow.Framework, db *database.DB, opts ...CollectorOption) *Collector {
	collector := &Collector{
		client:    client,
		store:     store,
		framework: framework,
		db:        db,
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(collector)
	}

	return collector
}

// Collect runs one collection pass: flaws without NVD scores are fetched
// individually, then the modification window since the last run is swept in
// batches. The watermark only advances after a batch is fully applied.
func (c *Collector) Collect(ctx context.Context) error {
	if err := c.collectMissing(ctx); err != nil {
		return err
	}
	return c.collectUpdated(ctx)
}

// CollectCVE fetches and applies the NVD scores of a single CVE
func (c *Collector) CollectCVE(ctx context.Context, cveID string) error {
	record, err := c.client.FetchCVE(ctx, cveID)
	if err != nil {
		return err
	}
	if record == nil {
		c.logger.Warn("CVE not found in NVD", "cve", cveID)
		return nil
	}
	return c.apply(ctx, *record)
}

// collectMissing sweeps flaws carrying a CVE but no NVD CVSSv3 score yet
func (c *Collector) collectMissing(ctx context.Context) error {
	missing, err := c.store.List(ctx, flaw.NewFilter().WithMissingNVD())
	if err != nil {
		return err
	}

	for _, f := range missing {
		if err := c.CollectCVE(ctx, f.CVEID); err != nil {
			return err
		}
	}
	return nil
}

// collectUpdated sweeps the modification windows between the stored
// watermark and now.
func (c *Collector) collectUpdated(ctx context.Context) error {
	updatedUntil, err := c.getUpdatedUntil(ctx)
	if err != nil {
		return err
	}

	now := c.now().UTC()
	for updatedUntil.Before(now) {
		periodEnd := updatedUntil.Add(batchPeriod)
		if periodEnd.After(now) {
			periodEnd = now
		}

		records, err := c.client.FetchModifiedBetween(ctx, updatedUntil, periodEnd)
		if err != nil {
			return err
		}

		c.logger.Info("collected NVD batch",
			"from", updatedUntil, "to", periodEnd, "records", len(records))

		for _, record := range records {
			if err := c.apply(ctx, record); err != nil {
				return err
			}
		}

		if err := c.setUpdatedUntil(ctx, periodEnd); err != nil {
			return err
		}
		updatedUntil = periodEnd
	}

	return nil
}

// apply writes the fetched scores to the matching flaw, if any, and
// reconciles its classification.
func (c *Collector) apply(ctx context.Context, record CVERecord) error {
	f, err := c.store.GetByCVE(ctx, record.CVEID)
	if err != nil {
		if flaw.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	// fetched scores also materialize as NIST-issued cvss_scores entries
	scoresChanged := false
	if record.CVSS2Vector != "" {
		scoresChanged = f.SetCVSSScore(flaw.CVSSIssuerNIST, flaw.CVSSVersion2,
			record.CVSS2Vector, record.CVSS2Score) || scoresChanged
	}
	if record.CVSS3Vector != "" {
		scoresChanged = f.SetCVSSScore(flaw.CVSSIssuerNIST, flaw.CVSSVersion3,
			record.CVSS3Vector, record.CVSS3Score) || scoresChanged
	}

	if f.NvdCVSS2 == record.CVSS2 && f.NvdCVSS3 == record.CVSS3 && !scoresChanged {
		return nil
	}

	f.NvdCVSS2 = record.CVSS2
	f.NvdCVSS3 = record.CVSS3

	changed, err := f.AdjustClassification(ctx, c.framework)
	if err != nil {
		return err
	}
	if changed {
		c.logger.Info("flaw reclassified after NVD update",
			"cve", f.CVEID, "workflow", f.WorkflowName, "state", f.StateName)
	}

	return c.store.Save(ctx, f)
}

// getUpdatedUntil reads the collection watermark. A collector that never
// ran starts one batch period in the past.
func (c *Collector) getUpdatedUntil(ctx context.Context) (time.Time, error) {
	var updatedUntil sql.NullTime
	err := c.db.QueryRowContext(ctx,
		"SELECT updated_until FROM collector_metadata WHERE name = ?",
		collectorName).Scan(&updatedUntil)
	if err == sql.ErrNoRows {
		return c.now().UTC().Add(-batchPeriod), nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if !updatedUntil.Valid {
		return c.now().UTC().Add(-batchPeriod), nil
	}
	return updatedUntil.Time.UTC(), nil
}

// setUpdatedUntil advances the collection watermark
func (c *Collector) setUpdatedUntil(ctx context.Context, updatedUntil time.Time) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO collector_metadata (name, updated_until, last_run)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			updated_until = excluded.updated_until,
			last_run = excluded.last_run
	`, collectorName, updatedUntil, c.now().UTC())
	return err
}
