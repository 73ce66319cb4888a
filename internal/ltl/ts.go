package ltl

import (
	"sort"

	"github.com/Charlie0257/reactive-ltl/internal/core"
)

// TS is a transition system over configurations. Vertices are keyed by
// configuration value; each carries the proposition set of the global
// regions containing it. Edges denote one-shot simple-segment
// traversability.
type TS struct {
	init      core.Conf
	props     map[core.Conf]core.Symbols
	succ      map[core.Conf]map[core.Conf]bool
	order     []core.Conf // insertion order, for deterministic scans
	edgeCount int
}

// NewTS creates a transition system seeded with the initial vertex.
func NewTS(init core.Conf, props core.Symbols) *TS {
	t := &TS{
		init:  init,
		props: map[core.Conf]core.Symbols{},
		succ:  map[core.Conf]map[core.Conf]bool{},
	}
	t.AddState(init, props)
	return t
}

// Init returns the initial vertex.
func (t *TS) Init() core.Conf { return t.init }

// AddState inserts a vertex with its proposition set. Re-adding an
// existing vertex is a no-op.
func (t *TS) AddState(c core.Conf, props core.Symbols) {
	if _, ok := t.props[c]; ok {
		return
	}
	t.props[c] = props.Clone()
	t.succ[c] = map[core.Conf]bool{}
	t.order = append(t.order, c)
}

// AddEdge inserts the directed edge u -> v. Both endpoints must exist.
func (t *TS) AddEdge(u, v core.Conf) {
	if _, ok := t.succ[u]; !ok {
		return
	}
	if _, ok := t.succ[v]; !ok {
		return
	}
	if !t.succ[u][v] {
		t.succ[u][v] = true
		t.edgeCount++
	}
}

// HasState reports whether c is a vertex.
func (t *TS) HasState(c core.Conf) bool {
	_, ok := t.props[c]
	return ok
}

// HasEdge reports whether the edge u -> v exists.
func (t *TS) HasEdge(u, v core.Conf) bool {
	return t.succ[u][v]
}

// Props returns the proposition set of c.
func (t *TS) Props(c core.Conf) core.Symbols {
	return t.props[c]
}

// States returns all vertices in insertion order. The slice is shared
// with the TS and must not be mutated.
func (t *TS) States() []core.Conf {
	return t.order
}

// Successors returns the outgoing neighbors of c in deterministic
// lexicographic order.
func (t *TS) Successors(c core.Conf) []core.Conf {
	out := make([]core.Conf, 0, len(t.succ[c]))
	for v := range t.succ[c] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// NumStates returns the vertex count.
func (t *TS) NumStates() int { return len(t.order) }

// NumEdges returns the edge count.
func (t *TS) NumEdges() int { return t.edgeCount }
