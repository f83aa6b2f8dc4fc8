package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_EmptyRequirements(t *testing.T) {
	state := State{Name: "random name"}

	accepts, err := state.Accepts(testRecord())
	require.NoError(t, err)
	assert.True(t, accepts, "state with no requirements rejected a record")

	// content of the record must not matter
	full := testRecord()
	full.Scalars["description"] = "x"
	full.Relations["affects"] = 3
	full.Bools["is_major_incident"] = true

	accepts, err = state.Accepts(full)
	require.NoError(t, err)
	assert.True(t, accepts)
}

func TestState_Conjunction(t *testing.T) {
	state, err := NewState("random name", []string{
		"has cve_id",
		"has impact",
		"not cwe",
		"not description",
	})
	require.NoError(t, err)

	record := testRecord()
	record.Scalars["cve_id"] = "CVE-2020-1234"
	record.Scalars["impact"] = "MODERATE"

	accepts, err := state.Accepts(record)
	require.NoError(t, err)
	assert.True(t, accepts, "record meeting every requirement was rejected")

	// any single failing requirement rejects
	record.Scalars["cwe_id"] = "CWE-1"
	accepts, err = state.Accepts(record)
	require.NoError(t, err)
	assert.False(t, accepts)

	record.Scalars["cwe_id"] = ""
	record.Scalars["impact"] = ""
	accepts, err = state.Accepts(record)
	require.NoError(t, err)
	assert.False(t, accepts)
}

func TestState_MatchesCheckConjunction(t *testing.T) {
	requirements := []string{"has title", "not summary", "major_incident"}
	state, err := NewState("random name", requirements)
	require.NoError(t, err)

	records := []MapRecord{testRecord(), testRecord(), testRecord()}
	records[0].Scalars["title"] = "a title"
	records[1].Bools["is_major_incident"] = true
	records[2].Scalars["title"] = "a title"
	records[2].Bools["is_major_incident"] = true

	for _, record := range records {
		expected := true
		for _, requirement := range requirements {
			result, err := MustParseCheck(requirement).Evaluate(record)
			require.NoError(t, err)
			expected = expected && result
		}

		accepts, err := state.Accepts(record)
		require.NoError(t, err)
		assert.Equal(t, expected, accepts, "state acceptance diverged from check conjunction")
	}
}

func TestState_MalformedRequirement(t *testing.T) {
	_, err := NewState("random name", []string{"has title", "frobnicate description"})
	require.Error(t, err)
	assert.True(t, IsMalformedRequirementError(err))
}
