package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d10n/osidb/internal/workflow"
)

func resetGlobalFlags() {
	globalFlags = &GlobalFlags{OutputFormat: "text"}
}

func TestParseGlobalFlags(t *testing.T) {
	defer resetGlobalFlags()

	tests := []struct {
		name    string
		flags   GlobalFlags
		wantErr bool
	}{
		{name: "defaults", flags: GlobalFlags{OutputFormat: "text"}},
		{name: "json output", flags: GlobalFlags{OutputFormat: "json"}},
		{name: "bad output format", flags: GlobalFlags{OutputFormat: "yaml"}, wantErr: true},
		{name: "verbose and quiet", flags: GlobalFlags{OutputFormat: "text", Verbose: true, Quiet: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			globalFlags = &tt.flags
			_, err := ParseGlobalFlags(&cobra.Command{})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOutputFormat(t *testing.T) {
	flags := &GlobalFlags{OutputFormat: "json"}
	assert.Equal(t, FormatJSON, flags.GetOutputFormat())

	flags.OutputFormat = "text"
	assert.Equal(t, FormatText, flags.GetOutputFormat())
}

func TestIsVerbose(t *testing.T) {
	flags := &GlobalFlags{Verbose: true}
	assert.True(t, flags.IsVerbose())

	flags.Quiet = true
	assert.False(t, flags.IsVerbose(), "quiet wins over verbose")
}

func TestWorkflowSummaries(t *testing.T) {
	framework := workflow.NewFramework()
	for _, w := range workflow.DefaultDefinitions() {
		framework.RegisterWorkflow(w)
	}

	summaries := workflowSummaries(framework.Workflows())
	require.Len(t, summaries, 2)
	assert.Equal(t, "default", summaries[0].Name)
	assert.NotEmpty(t, summaries[0].States)
	assert.Empty(t, summaries[0].States[0].Requirements)
}
