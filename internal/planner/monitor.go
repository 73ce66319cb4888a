package planner

import (
	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/ltl"
)

// BuchiSet is a set of Büchi states carried along a trajectory.
type BuchiSet map[string]bool

// NewBuchiSet builds a set from the given states.
func NewBuchiSet(states ...string) BuchiSet {
	s := make(BuchiSet, len(states))
	for _, q := range states {
		s[q] = true
	}
	return s
}

// Has reports whether q is in the set.
func (s BuchiSet) Has(q string) bool { return s[q] }

// Clone copies the set.
func (s BuchiSet) Clone() BuchiSet {
	out := make(BuchiSet, len(s))
	for q := range s {
		out[q] = true
	}
	return out
}

// Monitor is the Büchi half-monitor: it propagates the set of states
// consistent with a trajectory across one more segment. When the
// proposition does not change no region boundary was crossed and the
// set is returned unchanged; otherwise the union of successors under
// the new proposition is taken. An empty result means the segment
// violates the global specification. Assumes each segment crosses at
// most one global region boundary (enforced by IsSimpleSegment).
func Monitor(start BuchiSet, b *ltl.Buchi, prevProp, nextProp core.Symbols) BuchiSet {
	if prevProp.Equal(nextProp) {
		return start.Clone()
	}
	out := BuchiSet{}
	for q := range start {
		for _, q2 := range b.Next(q, nextProp) {
			out[q2] = true
		}
	}
	return out
}
