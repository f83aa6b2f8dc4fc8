package workflow

import (
	"testing"
)

// testRecord returns a record exposing the flaw property surface with
// everything unset
func testRecord() MapRecord {
	return MapRecord{
		Scalars: map[string]string{
			"uuid": "", "cve_id": "", "cwe_id": "", "type": "",
			"created_dt": "", "updated_dt": "", "reported_dt": "", "unembargo_dt": "",
			"impact": "", "title": "", "description": "", "summary": "",
			"statement": "", "source": "", "component": "", "mitigation": "",
			"cvss2": "", "cvss2_score": "", "cvss3": "", "cvss3_score": "",
		},
		Relations: map[string]int{
			"affects": 0, "cvss_scores": 0, "package_versions": 0,
		},
		Bools: map[string]bool{
			"is_major_incident": false, "embargoed": false,
		},
	}
}

func TestParseCheck_Modes(t *testing.T) {
	tests := []struct {
		name        string
		requirement string
		mode        CheckMode
		target      string
		kind        PropertyKind
		wantErr     bool
	}{
		{"has scalar", "has description", CheckModeHas, "description", PropertyScalar, false},
		{"has with spaces", "has cvss3 score", CheckModeHas, "cvss3_score", PropertyScalar, false},
		{"has alias cve", "has cve", CheckModeHas, "cve_id", PropertyScalar, false},
		{"has alias cwe", "has cwe", CheckModeHas, "cwe_id", PropertyScalar, false},
		{"has relational", "has affects", CheckModeHas, "affects", PropertyRelational, false},
		{"not scalar", "not description", CheckModeNot, "description", PropertyScalar, false},
		{"not alias", "not cwe", CheckModeNot, "cwe_id", PropertyScalar, false},
		{"bool true", "major_incident", CheckModeBoolTrue, "is_major_incident", PropertyBoolean, false},
		{"bool true with spaces", "major incident", CheckModeBoolTrue, "is_major_incident", PropertyBoolean, false},
		{"bool false", "not major_incident", CheckModeBoolFalse, "is_major_incident", PropertyBoolean, false},
		{"bool false with spaces", "not major incident", CheckModeBoolFalse, "is_major_incident", PropertyBoolean, false},
		{"embargoed predicate", "embargoed", CheckModeBoolTrue, "embargoed", PropertyBoolean, false},
		{"bare non-predicate", "description", "", "", "", true},
		{"empty", "", "", "", "", true},
		{"has without target", "has ", "", "", "", true},
		{"not without target", "not ", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := ParseCheck(tt.requirement)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCheck(%q) error = %v, wantErr %v", tt.requirement, err, tt.wantErr)
			}
			if tt.wantErr {
				if !IsMalformedRequirementError(err) {
					t.Errorf("ParseCheck(%q) error = %v, want malformed requirement", tt.requirement, err)
				}
				return
			}
			if check.Name != tt.requirement {
				t.Errorf("Name = %q, want verbatim %q", check.Name, tt.requirement)
			}
			if check.Mode != tt.mode {
				t.Errorf("Mode = %q, want %q", check.Mode, tt.mode)
			}
			if check.Target != tt.target {
				t.Errorf("Target = %q, want %q", check.Target, tt.target)
			}
			if check.Kind() != tt.kind {
				t.Errorf("Kind = %q, want %q", check.Kind(), tt.kind)
			}
		})
	}
}

func TestCheck_EvaluateScalar(t *testing.T) {
	record := testRecord()
	record.Scalars["description"] = "some description"

	tests := []struct {
		name        string
		requirement string
		expected    bool
	}{
		{"has set", "has description", true},
		{"has unset", "has title", false},
		{"not set", "not description", false},
		{"not unset", "not title", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := MustParseCheck(tt.requirement)
			result, err := check.Evaluate(record)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.requirement, result, tt.expected)
			}
		})
	}
}

func TestCheck_EvaluateRelational(t *testing.T) {
	for _, field := range []string{"affects", "cvss_scores", "package_versions"} {
		t.Run(field, func(t *testing.T) {
			record := testRecord()
			check := MustParseCheck("has " + field)

			result, err := check.Evaluate(record)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if result {
				t.Errorf("check %q passed against an empty collection", check.Name)
			}

			record.Relations[field] = 1
			result, err = check.Evaluate(record)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if !result {
				t.Errorf("check %q failed against a non-empty collection", check.Name)
			}
		})
	}
}

func TestCheck_EvaluateBoolean(t *testing.T) {
	tests := []struct {
		name        string
		requirement string
		value       bool
		expected    bool
	}{
		{"true predicate set", "major_incident", true, true},
		{"true predicate unset", "major_incident", false, false},
		{"false predicate set", "not major_incident", true, false},
		{"false predicate unset", "not major_incident", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := testRecord()
			record.Bools["is_major_incident"] = tt.value

			check := MustParseCheck(tt.requirement)
			result, err := check.Evaluate(record)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.requirement, result, tt.expected)
			}
		})
	}
}

func TestCheck_AliasEquivalence(t *testing.T) {
	aliased := MustParseCheck("has cve")
	canonical := MustParseCheck("has cve_id")

	for _, value := range []string{"", "CVE-2020-1234"} {
		record := testRecord()
		record.Scalars["cve_id"] = value

		aliasResult, err := aliased.Evaluate(record)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		canonicalResult, err := canonical.Evaluate(record)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if aliasResult != canonicalResult {
			t.Errorf("alias and canonical checks disagree for value %q: %v vs %v",
				value, aliasResult, canonicalResult)
		}
	}
}

func TestCheck_UnknownProperty(t *testing.T) {
	record := testRecord()
	check := MustParseCheck("has no_such_property")

	_, err := check.Evaluate(record)
	if !IsUnknownPropertyError(err) {
		t.Fatalf("Evaluate() error = %v, want unknown property", err)
	}
}
