package lookup

import "github.com/quarrydb/quarry/internal/base"

// State is the resolver's position in the resolution lattice. Transitions
// only move forward; StateCorrupt and the post-merge StateFound/StateDeleted
// are terminal for a lookup.
type State int

const (
	// StateNotFound: no visible record accepted yet.
	StateNotFound State = iota
	// StateFound: a value was resolved.
	StateFound
	// StateDeleted: a tombstone ended the search with no pending merge.
	StateDeleted
	// StateMerge: merge operands are accumulating; scanning continues.
	StateMerge
	// StateCorrupt: the merge operator failed; terminal.
	StateCorrupt
)

func (s State) String() string {
	switch s {
	case StateNotFound:
		return "not-found"
	case StateFound:
		return "found"
	case StateDeleted:
		return "deleted"
	case StateMerge:
		return "merge"
	case StateCorrupt:
		return "corrupt"
	}
	return "invalid"
}

// transition is the pure core of the state machine: given the current state
// and the effective (post-translation) type of the next accepted record, it
// returns the successor state, whether a full merge must run to reach it,
// which base value that merge uses, and whether scanning stops.
//
// Feeding a record into a terminal state is a caller contract violation.
func transition(st State, t base.ValueType) (next State, merge bool, mergeWithBase bool, stop bool) {
	if st != StateNotFound && st != StateMerge {
		panic("lookup: record fed to resolver in terminal state " + st.String())
	}
	switch t {
	case base.TypeValue:
		if st == StateMerge {
			return StateFound, true, true, true
		}
		return StateFound, false, false, true
	case base.TypeDeletion, base.TypeSingleDeletion, base.TypeRangeDeletion:
		if st == StateMerge {
			return StateFound, true, false, true
		}
		return StateDeleted, false, false, true
	case base.TypeMerge:
		return StateMerge, false, false, false
	}
	panic("lookup: unexpected record type " + t.String())
}
