// Package ltl provides the automaton machinery shared by the global
// and local planners: the input Büchi automaton, the transition system
// built over configurations, and the incremental product automaton
// with its potential function.
package ltl

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/Charlie0257/reactive-ltl/internal/core"
)

// Guard is the label of a Büchi transition: a conjunction of symbols
// that must hold and symbols that must not. Disjunctive guards are
// expressed as parallel edges between the same pair of states.
type Guard struct {
	All  []string `yaml:"all,omitempty"`
	None []string `yaml:"none,omitempty"`
}

// Admits reports whether the proposition set satisfies the guard.
func (g Guard) Admits(sigma core.Symbols) bool {
	for _, s := range g.All {
		if !sigma.Has(s) {
			return false
		}
	}
	for _, s := range g.None {
		if sigma.Has(s) {
			return false
		}
	}
	return true
}

type buchiEdge struct {
	to    string
	guard Guard
}

// Buchi is a nondeterministic Büchi automaton over the global symbol
// alphabet. The planners treat it as read-only input; it may be built
// programmatically, by the fragment builders in this package, or
// loaded from a YAML document produced by an external LTL translator.
type Buchi struct {
	states []string
	init   map[string]bool
	accept map[string]bool
	edges  map[string][]buchiEdge
}

// NewBuchi creates an empty automaton.
func NewBuchi() *Buchi {
	return &Buchi{
		init:   map[string]bool{},
		accept: map[string]bool{},
		edges:  map[string][]buchiEdge{},
	}
}

// AddState declares a state. Redeclaring updates the membership flags.
func (b *Buchi) AddState(q string, init, accept bool) {
	if _, ok := b.edges[q]; !ok {
		b.states = append(b.states, q)
		b.edges[q] = nil
	}
	if init {
		b.init[q] = true
	}
	if accept {
		b.accept[q] = true
	}
}

// AddTransition adds a guarded edge between declared states.
func (b *Buchi) AddTransition(from, to string, g Guard) error {
	if _, ok := b.edges[from]; !ok {
		return errors.Wrapf(ErrUnknownState, "transition source %q", from)
	}
	if _, ok := b.edges[to]; !ok {
		return errors.Wrapf(ErrUnknownState, "transition target %q", to)
	}
	b.edges[from] = append(b.edges[from], buchiEdge{to: to, guard: g})
	return nil
}

// States returns the states in declaration order.
func (b *Buchi) States() []string {
	return append([]string(nil), b.states...)
}

// Init returns the initial states in sorted order.
func (b *Buchi) Init() []string {
	out := make([]string, 0, len(b.init))
	for q := range b.init {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// IsInit reports whether q is initial.
func (b *Buchi) IsInit(q string) bool { return b.init[q] }

// IsAccepting reports whether q is accepting.
func (b *Buchi) IsAccepting(q string) bool { return b.accept[q] }

// Next returns the successor states of q under the input proposition
// sigma, in sorted order without duplicates.
func (b *Buchi) Next(q string, sigma core.Symbols) []string {
	seen := map[string]bool{}
	for _, e := range b.edges[q] {
		if e.guard.Admits(sigma) {
			seen[e.to] = true
		}
	}
	out := make([]string, 0, len(seen))
	for q2 := range seen {
		out = append(out, q2)
	}
	sort.Strings(out)
	return out
}

// HasEdge reports whether some edge q -> q2 admits sigma.
func (b *Buchi) HasEdge(q, q2 string, sigma core.Symbols) bool {
	for _, e := range b.edges[q] {
		if e.to == q2 && e.guard.Admits(sigma) {
			return true
		}
	}
	return false
}

// Admits reports whether any edge of the automaton accepts sigma.
// The RRG planner uses it to diagnose specification mismatches: a
// proposition set rejected everywhere can never appear on a product
// edge.
func (b *Buchi) Admits(sigma core.Symbols) bool {
	for _, edges := range b.edges {
		for _, e := range edges {
			if e.guard.Admits(sigma) {
				return true
			}
		}
	}
	return false
}

// NumStates returns the number of states.
func (b *Buchi) NumStates() int { return len(b.states) }

// NumEdges returns the number of transitions.
func (b *Buchi) NumEdges() int {
	n := 0
	for _, edges := range b.edges {
		n += len(edges)
	}
	return n
}
