package merge

// Decision is what to do with one path when merging.
type Decision int

const (
	// Keep leaves the working tree as it is.
	Keep Decision = iota
	// Take applies the incoming side, including deletion.
	Take
	// Conflict writes conflict markers and records the path.
	Conflict
)

// Predicate decides, per path, how the incoming branch is integrated. A nil
// pointer means the file is absent on that side.
type Predicate interface {
	Decide(path string, base, ours, theirs *string) Decision
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(path string, base, ours, theirs *string) Decision

func (f PredicateFunc) Decide(path string, base, ours, theirs *string) Decision {
	return f(path, base, ours, theirs)
}

// ThreeWay is the default predicate. Equal sides keep ours; a side that
// still matches the merge base yields to the other; anything else
// conflicts.
type ThreeWay struct{}

func (ThreeWay) Decide(_ string, base, ours, theirs *string) Decision {
	if same(ours, theirs) {
		return Keep
	}
	if same(base, ours) {
		return Take
	}
	if same(base, theirs) {
		return Keep
	}
	return Conflict
}

func same(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
