package workflow

// Workflow is a named, prioritized ruleset: entry conditions gating which
// records it applies to, and an ordered, non-empty list of lifecycle states.
// Workflows are built at configuration time and are immutable once
// registered with a Framework.
type Workflow struct {
	Name        string
	Description string
	// Priority orders workflow selection; higher wins. Ties resolve to the
	// workflow registered first.
	Priority   int
	Conditions []Check
	States     []State
}

// NewWorkflow builds a workflow from condition and state definitions
func NewWorkflow(name, description string, priority int, conditions []string, states []State) (*Workflow, error) {
	checks, err := ParseChecks(conditions)
	if err != nil {
		return nil, err
	}
	return &Workflow{
		Name:        name,
		Description: description,
		Priority:    priority,
		Conditions:  checks,
		States:      states,
	}, nil
}

// Accepts reports whether the record satisfies every entry condition.
// A workflow with no conditions is a default workflow and accepts any
// record.
func (w *Workflow) Accepts(record Record) (bool, error) {
	for _, condition := range w.Conditions {
		ok, err := condition.Evaluate(record)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Classify returns the furthest state the record reaches when walking the
// states in declared order. The walk stops at the first non-accepting state
// and never looks further ahead: a record cannot skip into a later state
// while an earlier one rejects it.
//
// A workflow whose first state carries requirements may reject a record
// outright; that is reported as a no accepting state error. Definitions
// loaded through this package cannot trigger it because the loader requires
// an unconditional first state.
func (w *Workflow) Classify(record Record) (State, error) {
	accepted := -1
	for i, state := range w.States {
		ok, err := state.Accepts(record)
		if err != nil {
			return State{}, err
		}
		if !ok {
			break
		}
		accepted = i
	}
	if accepted < 0 {
		return State{}, NewNoAcceptingStateError(w.Name)
	}
	return w.States[accepted], nil
}
