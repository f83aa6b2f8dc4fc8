package flaw

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d10n/osidb/internal/workflow"
)

func defaultFramework(t *testing.T) *workflow.Framework {
	t.Helper()
	framework := workflow.NewFramework()
	for _, w := range workflow.DefaultDefinitions() {
		framework.RegisterWorkflow(w)
	}
	return framework
}

func TestNewFlawClassification(t *testing.T) {
	framework := defaultFramework(t)

	f, err := NewFlaw(context.Background(), framework)
	require.NoError(t, err)

	// an empty flaw lands in the catch-all workflow's entry state
	assert.Equal(t, "default", f.WorkflowName)
	assert.Equal(t, "DRAFT", f.StateName)
	assert.NotEqual(t, "", f.UUID.String())
	assert.False(t, f.CreatedDt.IsZero())
}

func TestFlawClassifyPure(t *testing.T) {
	framework := defaultFramework(t)
	ctx := context.Background()

	f, err := NewFlaw(ctx, framework)
	require.NoError(t, err)

	f.Description = "some description"

	// Classify reports the new position without touching the stored pair
	computed, err := f.Classify(ctx, framework)
	require.NoError(t, err)
	assert.Equal(t, Classification{Workflow: "default", State: "NEW"}, computed)
	assert.Equal(t, Classification{Workflow: "default", State: "DRAFT"}, f.Classification())
}

func TestFlawAdjustClassification(t *testing.T) {
	framework := defaultFramework(t)
	ctx := context.Background()

	f, err := NewFlaw(ctx, framework)
	require.NoError(t, err)

	f.Description = "some description"

	changed, err := f.AdjustClassification(ctx, framework)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Classification{Workflow: "default", State: "NEW"}, f.Classification())

	// a second adjust with unchanged attributes is a no-op
	changed, err = f.AdjustClassification(ctx, framework)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, Classification{Workflow: "default", State: "NEW"}, f.Classification())
}

func TestFlawAdjustClassificationRegression(t *testing.T) {
	framework := defaultFramework(t)
	ctx := context.Background()

	f, err := NewFlaw(ctx, framework)
	require.NoError(t, err)
	f.Description = "some description"

	_, err = f.AdjustClassification(ctx, framework)
	require.NoError(t, err)
	require.Equal(t, "NEW", f.StateName)

	// losing an attribute moves the flaw back
	f.Description = ""
	changed, err := f.AdjustClassification(ctx, framework)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "DRAFT", f.StateName)
}

func TestFlawMajorIncidentRouting(t *testing.T) {
	framework := defaultFramework(t)
	ctx := context.Background()

	f, err := NewFlaw(ctx, framework)
	require.NoError(t, err)
	require.Equal(t, "default", f.WorkflowName)

	f.IsMajorIncident = true
	f.Description = "some description"
	f.Affects = []Affect{{PSModule: "rhel-9", PSComponent: "kernel"}}

	changed, err := f.AdjustClassification(ctx, framework)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Classification{Workflow: "major incident", State: "ANALYSIS"}, f.Classification())
}

func TestFlawStoredDivergesFromComputed(t *testing.T) {
	framework := defaultFramework(t)
	ctx := context.Background()

	f, err := NewFlaw(ctx, framework)
	require.NoError(t, err)

	// attribute changes do not move the stored classification by themselves
	f.Description = "some description"
	f.Title = "some title"
	f.CVEID = "CVE-2024-0001"
	assert.Equal(t, "DRAFT", f.StateName)

	computed, err := f.Classify(ctx, framework)
	require.NoError(t, err)
	assert.Equal(t, "ANALYSIS", computed.State)
}

func TestFlawRecordProperties(t *testing.T) {
	f := &Flaw{
		CVEID:      "CVE-2024-0001",
		Impact:     ImpactModerate,
		Affects:    []Affect{{PSModule: "rhel-9", PSComponent: "kernel"}},
		CVSSScores: []FlawCVSS{{Issuer: "RH", Version: "3.1", Vector: "CVSS:3.1/AV:N", Score: 7.5}},
		Embargoed:  true,
	}

	value, ok := f.Scalar("cve_id")
	assert.True(t, ok)
	assert.Equal(t, "CVE-2024-0001", value)

	value, ok = f.Scalar("impact")
	assert.True(t, ok)
	assert.Equal(t, "MODERATE", value)

	value, ok = f.Scalar("summary")
	assert.True(t, ok)
	assert.Equal(t, "", value)

	_, ok = f.Scalar("no_such_property")
	assert.False(t, ok)

	n, ok := f.RelationSize("affects")
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = f.RelationSize("package_versions")
	assert.True(t, ok)
	assert.Zero(t, n)

	_, ok = f.RelationSize("cve_id")
	assert.False(t, ok)

	embargoed, ok := f.Bool("embargoed")
	assert.True(t, ok)
	assert.True(t, embargoed)

	major, ok := f.Bool("is_major_incident")
	assert.True(t, ok)
	assert.False(t, major)

	_, ok = f.Bool("title")
	assert.False(t, ok)
}

func TestFlawUUIDScalar(t *testing.T) {
	f := &Flaw{}

	// a flaw without an identity reads as unset, not as the nil UUID text
	value, ok := f.Scalar("uuid")
	assert.True(t, ok)
	assert.Equal(t, "", value)

	f.UUID = uuid.MustParse("35d1ad45-0dba-41a3-bad6-5dd36d624ead")
	value, ok = f.Scalar("uuid")
	assert.True(t, ok)
	assert.Equal(t, "35d1ad45-0dba-41a3-bad6-5dd36d624ead", value)

	// "has uuid" evaluates against a persisted flaw
	check := workflow.MustParseCheck("has uuid")
	result, err := check.Evaluate(f)
	require.NoError(t, err)
	assert.True(t, result)
}

func TestFlawTimeScalars(t *testing.T) {
	f := &Flaw{}

	value, ok := f.Scalar("reported_dt")
	assert.True(t, ok)
	assert.Equal(t, "", value, "zero time renders empty")
}

func TestSetClassification(t *testing.T) {
	f := &Flaw{}
	f.SetClassification(Classification{Workflow: "default", State: "REVIEW"})
	assert.Equal(t, "default", f.WorkflowName)
	assert.Equal(t, "REVIEW", f.StateName)
}
