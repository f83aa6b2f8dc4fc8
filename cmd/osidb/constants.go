package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/d10n/osidb/internal/collector/psconstants"
)

var constantsMajorStream string

var constantsCmd = &cobra.Command{
	Use:   "constants",
	Short: "Manage product-definition constants",
	Long: `Constants manages the product-definition lookup tables: UBI components
per major stream and components needing special consideration during
triage. The tables are synced from the product definitions service and
fully replaced on every sync.`,
}

var constantsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync constants from the product definitions service",
	RunE:  runConstantsSync,
}

var constantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the synced constants",
	RunE:  runConstantsList,
}

func init() {
	constantsListCmd.Flags().StringVar(&constantsMajorStream, "stream", "", "Limit UBI components to a major stream version")

	constantsCmd.AddCommand(constantsSyncCmd)
	constantsCmd.AddCommand(constantsListCmd)
}

func constantsCollector(cmd *cobra.Command) (*psconstants.Collector, *app, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, nil, err
	}

	if a.cfg.Collector.ProductDefinitionsURL == "" {
		a.Close()
		return nil, nil, fmt.Errorf("collector.product_definitions_url is not configured")
	}

	client := psconstants.NewClient(a.cfg.Collector.ProductDefinitionsURL,
		psconstants.WithHTTPClient(&http.Client{Timeout: a.cfg.Collector.Timeout}))
	collector := psconstants.NewCollector(client, a.db, psconstants.WithLogger(a.logger))
	return collector, a, nil
}

func runConstantsSync(cmd *cobra.Command, args []string) error {
	collector, a, err := constantsCollector(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return collector.Sync(cmd.Context())
}

func runConstantsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	collector, a, err := constantsCollector(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if constantsMajorStream != "" {
		packages, err := collector.UbiPackages(ctx, constantsMajorStream)
		if err != nil {
			return err
		}
		for _, name := range packages {
			cmd.Println(name)
		}
		return nil
	}

	special, err := collector.SpecialConsiderationPackages(ctx)
	if err != nil {
		return err
	}
	cmd.Println("Special consideration packages:")
	for _, name := range special {
		cmd.Printf("  %s\n", name)
	}
	return nil
}
