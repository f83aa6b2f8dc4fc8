package workflow

// DefaultDefinitions returns the built-in workflow set used when no
// definition file is configured: a catch-all default workflow walking the
// standard flaw lifecycle, and a higher-priority workflow for major
// incidents.
//
// The default workflow has empty conditions, so a framework seeded with
// these definitions classifies every record.
func DefaultDefinitions() []*Workflow {
	return []*Workflow{
		{
			Name:        "default",
			Description: "catch-all workflow for flaws without special handling",
			Priority:    0,
			States: []State{
				{Name: "DRAFT"},
				{Name: "NEW", Requirements: mustChecks("has description")},
				{Name: "ANALYSIS", Requirements: mustChecks("has title", "has cve")},
				{Name: "REVIEW", Requirements: mustChecks("has impact", "has cvss3")},
				{Name: "FIX", Requirements: mustChecks("has statement", "has cwe")},
				{Name: "DONE", Requirements: mustChecks("has summary")},
			},
		},
		{
			Name:        "major incident",
			Description: "expedited workflow for flaws declared major incidents",
			Priority:    1,
			Conditions:  mustChecks("major_incident"),
			States: []State{
				{Name: "DRAFT"},
				{Name: "ANALYSIS", Requirements: mustChecks("has description", "has affects")},
				{Name: "REVIEW", Requirements: mustChecks("has summary", "has statement")},
				{Name: "DONE", Requirements: mustChecks("has cvss3")},
			},
		},
	}
}

func mustChecks(requirements ...string) []Check {
	checks := make([]Check, 0, len(requirements))
	for _, requirement := range requirements {
		checks = append(checks, MustParseCheck(requirement))
	}
	return checks
}
