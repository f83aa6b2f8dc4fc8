package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/d10n/osidb/internal/workflow"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Inspect and validate workflow definitions",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered workflows and their states",
	RunE:  runWorkflowList,
}

var workflowValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a workflow definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowValidate,
}

func init() {
	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowValidateCmd)
}

func runWorkflowList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	workflows := a.framework.Workflows()

	if globalFlags.GetOutputFormat() == FormatJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(workflowSummaries(workflows))
	}

	for _, w := range workflows {
		cmd.Printf("%s (priority %d)\n", w.Name, w.Priority)
		if w.Description != "" {
			cmd.Printf("  %s\n", w.Description)
		}
		if len(w.Conditions) > 0 {
			cmd.Println("  conditions:")
			for _, c := range w.Conditions {
				cmd.Printf("    - %s\n", c.Name)
			}
		}
		cmd.Println("  states:")
		for _, s := range w.States {
			if len(s.Requirements) == 0 {
				cmd.Printf("    %s\n", s.Name)
				continue
			}
			cmd.Printf("    %s:\n", s.Name)
			for _, r := range s.Requirements {
				cmd.Printf("      - %s\n", r.Name)
			}
		}
		cmd.Println()
	}
	return nil
}

// workflowSummary is the JSON shape of one workflow in list output
type workflowSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Priority    int            `json:"priority"`
	Conditions  []string       `json:"conditions,omitempty"`
	States      []stateSummary `json:"states"`
}

type stateSummary struct {
	Name         string   `json:"name"`
	Requirements []string `json:"requirements,omitempty"`
}

func workflowSummaries(workflows []*workflow.Workflow) []workflowSummary {
	summaries := make([]workflowSummary, 0, len(workflows))
	for _, w := range workflows {
		summary := workflowSummary{
			Name:        w.Name,
			Description: w.Description,
			Priority:    w.Priority,
		}
		for _, c := range w.Conditions {
			summary.Conditions = append(summary.Conditions, c.Name)
		}
		for _, s := range w.States {
			state := stateSummary{Name: s.Name}
			for _, r := range s.Requirements {
				state.Requirements = append(state.Requirements, r.Name)
			}
			summary.States = append(summary.States, state)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func runWorkflowValidate(cmd *cobra.Command, args []string) error {
	workflows, err := workflow.LoadDefinitions(args[0])
	if err != nil {
		return err
	}

	cmd.Printf("%s: %d workflow(s) valid\n", args[0], len(workflows))
	return nil
}
