package workflow

// State is one ordered step in a workflow's lifecycle, gated by a
// conjunction of checks. A state with no requirements accepts every record;
// by convention the first state of each workflow is such a default state.
type State struct {
	Name         string
	Requirements []Check
}

// NewState builds a state from a name and requirement strings
func NewState(name string, requirements []string) (State, error) {
	checks, err := ParseChecks(requirements)
	if err != nil {
		return State{}, err
	}
	return State{Name: name, Requirements: checks}, nil
}

// Accepts reports whether the record satisfies every requirement of the
// state. Evaluation short-circuits on the first failing check; an empty
// requirement list accepts unconditionally.
func (s State) Accepts(record Record) (bool, error) {
	for _, check := range s.Requirements {
		ok, err := check.Evaluate(record)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
