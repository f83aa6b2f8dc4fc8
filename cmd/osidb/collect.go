package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/d10n/osidb/internal/collector/nvd"
	"github.com/d10n/osidb/internal/flaw"
)

var collectScheduled bool

var collectCmd = &cobra.Command{
	Use:   "collect [CVE]",
	Short: "Collect NVD CVSS scores for stored flaws",
	Long: `Collect fetches CVSS scores from the NVD API and applies them to the
stored flaws, reconciling each flaw's classification afterwards.

Without arguments a full collection pass runs once: flaws missing NVD
scores are fetched individually, then all CVEs modified since the last run
are swept. With a CVE argument only that CVE is collected. With
--scheduled the collector keeps running on the configured cron schedule
until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().BoolVar(&collectScheduled, "scheduled", false, "Run periodically on the configured schedule")
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	clientOpts := []nvd.ClientOption{
		nvd.WithHTTPClient(&http.Client{Timeout: a.cfg.Collector.Timeout}),
	}
	if a.cfg.Collector.BaseURL != "" {
		clientOpts = append(clientOpts, nvd.WithBaseURL(a.cfg.Collector.BaseURL))
	}
	if a.cfg.Collector.APIKey != "" {
		clientOpts = append(clientOpts, nvd.WithAPIKey(a.cfg.Collector.APIKey))
	}

	store := flaw.NewDBStore(a.db)
	collector := nvd.NewCollector(
		nvd.NewClient(clientOpts...),
		store,
		a.framework,
		a.db,
		nvd.WithLogger(a.logger),
	)

	if len(args) == 1 {
		return collector.CollectCVE(ctx, args[0])
	}

	if collectScheduled {
		scheduler := nvd.NewScheduler(collector, a.cfg.Collector.Schedule, a.logger)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()

		<-ctx.Done()
		return nil
	}

	return collector.Collect(ctx)
}
