package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultStates() []State {
	return []State{{Name: "DRAFT"}}
}

func TestFramework_ClassifyPriority(t *testing.T) {
	for _, count := range []int{1, 2, 3, 4, 5} {
		t.Run(fmt.Sprintf("%d workflows", count), func(t *testing.T) {
			framework := NewFramework()
			for i := 1; i <= count; i++ {
				w, err := NewWorkflow(fmt.Sprintf("workflow %d", i), "random description", i, nil, defaultStates())
				require.NoError(t, err)
				framework.RegisterWorkflow(w)
			}

			selected, err := framework.ClassifyWorkflow(context.Background(), testRecord())
			require.NoError(t, err)
			assert.Equal(t, count, selected.Priority,
				"classified into priority %d despite the most prior accepting workflow having priority %d",
				selected.Priority, count)
		})
	}
}

func TestFramework_ClassifyPriorityTieBreak(t *testing.T) {
	framework := NewFramework()
	first, err := NewWorkflow("first registered", "random description", 7, nil, defaultStates())
	require.NoError(t, err)
	second, err := NewWorkflow("second registered", "random description", 7, nil, defaultStates())
	require.NoError(t, err)
	framework.RegisterWorkflow(first)
	framework.RegisterWorkflow(second)

	selected, err := framework.ClassifyWorkflow(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, "first registered", selected.Name,
		"equal priorities must resolve to the first registered workflow")
}

func TestFramework_ClassifyDefaultExists(t *testing.T) {
	framework := NewFramework()

	defaultWorkflow, err := NewWorkflow("default", "catch-all", 0, nil, defaultStates())
	require.NoError(t, err)
	framework.RegisterWorkflow(defaultWorkflow)

	conditioned, err := NewWorkflow("conditioned", "random description", 1,
		[]string{"has description", "major_incident"}, defaultStates())
	require.NoError(t, err)
	framework.RegisterWorkflow(conditioned)

	// with a default workflow registered, any record classifies
	records := []MapRecord{testRecord(), testRecord()}
	records[1].Scalars["description"] = "x"
	records[1].Bools["is_major_incident"] = true

	for _, record := range records {
		selected, state, err := framework.Classify(context.Background(), record)
		require.NoError(t, err)
		require.NotNil(t, selected)
		assert.Equal(t, "DRAFT", state.Name)
	}
}

func TestFramework_ClassifyNoAcceptingWorkflow(t *testing.T) {
	framework := NewFramework()
	w, err := NewWorkflow("conditioned", "random description", 0,
		[]string{"has description"}, defaultStates())
	require.NoError(t, err)
	framework.RegisterWorkflow(w)

	_, _, err = framework.Classify(context.Background(), testRecord())
	require.Error(t, err)
	assert.True(t, IsNoAcceptingWorkflowError(err))
}

func TestFramework_ClassifyEmptyRegistry(t *testing.T) {
	framework := NewFramework()
	_, err := framework.ClassifyWorkflow(context.Background(), testRecord())
	require.Error(t, err)
	assert.True(t, IsNoAcceptingWorkflowError(err))
}

func TestFramework_ClassifyComplete(t *testing.T) {
	tests := []struct {
		name         string
		workflows    []struct {
			name       string
			priority   int
			conditions []string
		}
		record           func() MapRecord
		wantWorkflow string
		wantState    string
	}{
		{
			name: "default only",
			workflows: []struct {
				name       string
				priority   int
				conditions []string
			}{
				{"default", 0, nil},
			},
			record:       testRecord,
			wantWorkflow: "default",
			wantState:    "DRAFT",
		},
		{
			name: "more prior accepting wins",
			workflows: []struct {
				name       string
				priority   int
				conditions []string
			}{
				{"another", 1, []string{"has description"}},
				{"default", 0, nil},
			},
			record: func() MapRecord {
				r := testRecord()
				r.Scalars["description"] = "some description"
				return r
			},
			wantWorkflow: "another",
			wantState:    "NEW",
		},
		{
			name: "more prior rejecting is skipped",
			workflows: []struct {
				name       string
				priority   int
				conditions []string
			}{
				{"another", 1, []string{"major_incident"}},
				{"default", 0, nil},
			},
			record:       testRecord,
			wantWorkflow: "default",
			wantState:    "DRAFT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			framework := NewFramework()
			for _, def := range tt.workflows {
				w, err := NewWorkflow(def.name, "random description", def.priority, def.conditions, []State{
					{Name: "DRAFT"},
					{Name: "NEW", Requirements: mustChecks("has description")},
				})
				require.NoError(t, err)
				framework.RegisterWorkflow(w)
			}

			selected, state, err := framework.Classify(context.Background(), tt.record())
			require.NoError(t, err)
			assert.Equal(t, tt.wantWorkflow, selected.Name)
			assert.Equal(t, tt.wantState, state.Name)
		})
	}
}

func TestFramework_WorkflowLookup(t *testing.T) {
	framework := NewFramework()
	for _, w := range DefaultDefinitions() {
		framework.RegisterWorkflow(w)
	}

	assert.Len(t, framework.Workflows(), 2)
	assert.NotNil(t, framework.Workflow("default"))
	assert.NotNil(t, framework.Workflow("major incident"))
	assert.Nil(t, framework.Workflow("no such workflow"))
}

func TestFramework_DefaultDefinitions(t *testing.T) {
	framework := NewFramework()
	for _, w := range DefaultDefinitions() {
		framework.RegisterWorkflow(w)
	}

	// empty record lands in the catch-all workflow's entry state
	selected, state, err := framework.Classify(context.Background(), testRecord())
	require.NoError(t, err)
	assert.Equal(t, "default", selected.Name)
	assert.Equal(t, "DRAFT", state.Name)

	// major incidents route into the expedited workflow
	record := testRecord()
	record.Bools["is_major_incident"] = true
	record.Scalars["description"] = "some description"
	record.Relations["affects"] = 1

	selected, state, err = framework.Classify(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, "major incident", selected.Name)
	assert.Equal(t, "ANALYSIS", state.Name)
}
