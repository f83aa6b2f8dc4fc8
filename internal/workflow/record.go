package workflow

// Record is the capability the engine needs from a classified entity.
// Every accessor reports whether the named property is one the record
// exposes at all; a false second return value marks a configuration defect
// (an unknown property), never an empty value.
//
// Implementations must not mutate the record during access; the engine
// guarantees classification is a pure computation.
type Record interface {
	// Scalar returns the current value of a named scalar property.
	// Unset scalars are represented by the empty string.
	Scalar(name string) (value string, ok bool)

	// RelationSize returns the number of elements in a named
	// collection-valued property.
	RelationSize(name string) (n int, ok bool)

	// Bool returns the current value of a named boolean predicate.
	Bool(name string) (value bool, ok bool)
}

// MapRecord is a map-backed Record used by tests and by the CLI when
// classifying ad-hoc property sets. Nil maps behave as empty.
type MapRecord struct {
	Scalars   map[string]string
	Relations map[string]int
	Bools     map[string]bool
}

// Scalar implements Record
func (m MapRecord) Scalar(name string) (string, bool) {
	v, ok := m.Scalars[name]
	return v, ok
}

// RelationSize implements Record
func (m MapRecord) RelationSize(name string) (int, bool) {
	n, ok := m.Relations[name]
	return n, ok
}

// Bool implements Record
func (m MapRecord) Bool(name string) (bool, bool) {
	v, ok := m.Bools[name]
	return v, ok
}
