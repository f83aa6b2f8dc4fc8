// Package workflow implements the flaw classification engine.
//
// A Framework holds an ordered set of registered Workflows. Each Workflow is
// a named, prioritized lifecycle: a sequence of States gated by entry
// Conditions. States and conditions are conjunctions of Checks, small
// predicates parsed from human-readable requirement strings such as
// "has cve_id", "not description" or "major_incident".
//
// Classification is a pure computation: the framework selects the highest
// priority workflow whose conditions accept the record, then walks that
// workflow's states in declared order and returns the furthest state whose
// requirements are all satisfied. Lifecycle progression is strictly
// sequential; a record never lands in a later state while an earlier state
// rejects it.
//
// Workflow definitions are supplied as YAML documents (see LoadDefinitions)
// or constructed programmatically. The engine itself performs no I/O and
// never mutates the records it classifies.
package workflow
