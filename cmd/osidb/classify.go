package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/d10n/osidb/internal/flaw"
	"github.com/d10n/osidb/internal/workflow"
)

var (
	classifyCVE        string
	classifyUUID       string
	classifyProperties string
	classifySave       bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a flaw into its workflow state",
	Long: `Classify computes the workflow and state a flaw's attributes map to.

Select a stored flaw with --cve or --uuid, or classify an ad-hoc property
set from a JSON file with --properties. With --save the stored
classification of the selected flaw is reconciled and persisted.

Ad-hoc property maps must list every property the workflow definitions
check; a property the map does not carry fails the classification rather
than evaluating to absent.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyCVE, "cve", "", "CVE of the stored flaw to classify")
	classifyCmd.Flags().StringVar(&classifyUUID, "uuid", "", "UUID of the stored flaw to classify")
	classifyCmd.Flags().StringVar(&classifyProperties, "properties", "", "Path to a JSON property map to classify instead of a stored flaw")
	classifyCmd.Flags().BoolVar(&classifySave, "save", false, "Persist the reconciled classification")
	classifyCmd.MarkFlagsMutuallyExclusive("cve", "uuid", "properties")
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if classifyProperties != "" {
		return classifyPropertyFile(cmd, a)
	}

	if classifyCVE == "" && classifyUUID == "" {
		return fmt.Errorf("one of --cve, --uuid or --properties is required")
	}

	store := flaw.NewDBStore(a.db)

	var f *flaw.Flaw
	if classifyCVE != "" {
		f, err = store.GetByCVE(ctx, classifyCVE)
	} else {
		var id uuid.UUID
		id, err = uuid.Parse(classifyUUID)
		if err != nil {
			return fmt.Errorf("invalid UUID: %w", err)
		}
		f, err = store.Get(ctx, id)
	}
	if err != nil {
		return err
	}

	if classifySave {
		changed, err := f.AdjustClassification(ctx, a.framework)
		if err != nil {
			return err
		}
		if changed {
			if err := store.Save(ctx, f); err != nil {
				return err
			}
		}
		return printClassification(cmd, f.Classification(), changed)
	}

	computed, err := f.Classify(ctx, a.framework)
	if err != nil {
		return err
	}
	return printClassification(cmd, computed, computed != f.Classification())
}

// propertyFile is the JSON shape accepted by --properties
type propertyFile struct {
	Scalars   map[string]string `json:"scalars"`
	Relations map[string]int    `json:"relations"`
	Bools     map[string]bool   `json:"bools"`
}

func classifyPropertyFile(cmd *cobra.Command, a *app) error {
	data, err := os.ReadFile(classifyProperties)
	if err != nil {
		return err
	}

	var props propertyFile
	if err := json.Unmarshal(data, &props); err != nil {
		return fmt.Errorf("invalid property file: %w", err)
	}

	record := workflowRecord(props)
	selected, state, err := a.framework.Classify(cmd.Context(), record)
	if err != nil {
		return err
	}

	return printClassification(cmd, flaw.Classification{
		Workflow: selected.Name,
		State:    state.Name,
	}, false)
}

func workflowRecord(props propertyFile) workflow.MapRecord {
	return workflow.MapRecord{
		Scalars:   props.Scalars,
		Relations: props.Relations,
		Bools:     props.Bools,
	}
}

func printClassification(cmd *cobra.Command, c flaw.Classification, changed bool) error {
	if globalFlags.GetOutputFormat() == FormatJSON {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"workflow": c.Workflow,
			"state":    c.State,
			"changed":  changed,
		})
	}

	cmd.Printf("Workflow: %s\n", c.Workflow)
	cmd.Printf("State:    %s\n", c.State)
	if changed {
		cmd.Println("Classification diverged from the stored one")
	}
	return nil
}
