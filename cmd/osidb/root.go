package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "osidb",
	Short: "OSIDB - vulnerability tracking with workflow classification",
	Long: `OSIDB tracks vulnerability records (flaws) and files each one under a
workflow state computed from its attributes. Workflows are selected by
priority among those whose conditions the flaw meets; within a workflow the
flaw progresses through states strictly in order, as far as its attributes
carry it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(constantsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("osidb v0.1.0")
	},
}
