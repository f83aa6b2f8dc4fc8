package workflow

import (
	"strings"
)

// CheckMode determines how a check reads and tests its target property
type CheckMode string

const (
	// CheckModeHas requires the target property to be non-empty
	CheckModeHas CheckMode = "has"
	// CheckModeNot requires the target property to be empty
	CheckModeNot CheckMode = "not"
	// CheckModeBoolTrue requires the target boolean predicate to be true
	CheckModeBoolTrue CheckMode = "bool_true"
	// CheckModeBoolFalse requires the target boolean predicate to be false
	CheckModeBoolFalse CheckMode = "bool_false"
)

// PropertyKind classifies how a check target is read from a record
type PropertyKind string

const (
	PropertyScalar     PropertyKind = "scalar"
	PropertyRelational PropertyKind = "relational"
	PropertyBoolean    PropertyKind = "boolean"
)

// propertyAliases maps short human names used in requirement strings to
// canonical property identifiers. Applied for has/not modes only.
var propertyAliases = map[string]string{
	"cve": "cve_id",
	"cwe": "cwe_id",
}

// booleanPredicates maps requirement tokens to the canonical boolean-valued
// property they read.
var booleanPredicates = map[string]string{
	"major_incident": "is_major_incident",
	"embargoed":      "embargoed",
}

// relationalProperties names the collection-valued properties. For these,
// "has" tests that the referenced collection holds at least one element.
var relationalProperties = map[string]bool{
	"affects":          true,
	"cvss_scores":      true,
	"package_versions": true,
}

// Check is a single predicate parsed from a requirement string such as
// "has cve", "not description" or "major_incident". It is an immutable
// value: the mode, target and property kind are resolved once at parse time
// and evaluation never mutates the record.
type Check struct {
	// Name holds the original requirement string verbatim, for diagnostics
	Name   string
	Mode   CheckMode
	Target string
	kind   PropertyKind
}

// ParseCheck parses a requirement string into a Check.
//
// The grammar, longest match on the leading token:
//
//	"has <property>"  non-empty test, alias-resolved
//	"not <property>"  empty test, or boolean-false when the resolved
//	                  remainder names a boolean predicate
//	"<predicate>"     boolean-true test for a known boolean predicate
//
// Spaces within the property part map to the canonical underscore
// separator. Strings outside the grammar fail with a malformed requirement
// error, fatal to configuration loading.
func ParseCheck(requirement string) (Check, error) {
	switch {
	case strings.HasPrefix(requirement, "has "):
		target := canonicalTarget(strings.TrimPrefix(requirement, "has "))
		if target == "" {
			return Check{}, NewMalformedRequirementError(requirement)
		}
		return Check{
			Name:   requirement,
			Mode:   CheckModeHas,
			Target: target,
			kind:   targetKind(target),
		}, nil

	case strings.HasPrefix(requirement, "not "):
		target := canonicalTarget(strings.TrimPrefix(requirement, "not "))
		if target == "" {
			return Check{}, NewMalformedRequirementError(requirement)
		}
		if canonical, ok := booleanPredicates[target]; ok {
			return Check{
				Name:   requirement,
				Mode:   CheckModeBoolFalse,
				Target: canonical,
				kind:   PropertyBoolean,
			}, nil
		}
		return Check{
			Name:   requirement,
			Mode:   CheckModeNot,
			Target: target,
			kind:   targetKind(target),
		}, nil

	default:
		target := canonicalTarget(requirement)
		if canonical, ok := booleanPredicates[target]; ok {
			return Check{
				Name:   requirement,
				Mode:   CheckModeBoolTrue,
				Target: canonical,
				kind:   PropertyBoolean,
			}, nil
		}
		return Check{}, NewMalformedRequirementError(requirement)
	}
}

// MustParseCheck is like ParseCheck but panics on a malformed requirement.
// Intended for statically known definitions.
func MustParseCheck(requirement string) Check {
	check, err := ParseCheck(requirement)
	if err != nil {
		panic(err)
	}
	return check
}

// Kind returns the resolved property kind of the check target
func (c Check) Kind() PropertyKind {
	return c.kind
}

// Evaluate tests the check against the record's current attributes.
// It fails closed: a target the record does not expose raises an unknown
// property error rather than evaluating to false.
func (c Check) Evaluate(record Record) (bool, error) {
	switch c.Mode {
	case CheckModeHas, CheckModeNot:
		present, err := c.present(record)
		if err != nil {
			return false, err
		}
		if c.Mode == CheckModeNot {
			return !present, nil
		}
		return present, nil

	case CheckModeBoolTrue, CheckModeBoolFalse:
		value, ok := record.Bool(c.Target)
		if !ok {
			return false, NewUnknownPropertyError(c.Target, c.Name)
		}
		return value == (c.Mode == CheckModeBoolTrue), nil

	default:
		return false, NewMalformedRequirementError(c.Name)
	}
}

// present reports whether the target property is non-empty
func (c Check) present(record Record) (bool, error) {
	if c.kind == PropertyRelational {
		n, ok := record.RelationSize(c.Target)
		if !ok {
			return false, NewUnknownPropertyError(c.Target, c.Name)
		}
		return n > 0, nil
	}
	value, ok := record.Scalar(c.Target)
	if !ok {
		return false, NewUnknownPropertyError(c.Target, c.Name)
	}
	return value != "", nil
}

// canonicalTarget normalizes a property reference: trims whitespace,
// replaces spaces with the canonical underscore separator and resolves
// aliases.
func canonicalTarget(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	if canonical, ok := propertyAliases[s]; ok {
		return canonical
	}
	return s
}

// targetKind resolves the property kind for a has/not target
func targetKind(target string) PropertyKind {
	if relationalProperties[target] {
		return PropertyRelational
	}
	return PropertyScalar
}

// ParseChecks parses a slice of requirement strings, failing on the first
// malformed one.
func ParseChecks(requirements []string) ([]Check, error) {
	checks := make([]Check, 0, len(requirements))
	for _, requirement := range requirements {
		check, err := ParseCheck(requirement)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, nil
}
