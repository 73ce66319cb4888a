package ltl

import (
	"math"
	"sort"

	"github.com/Charlie0257/reactive-ltl/internal/core"
)

// PotentialInf marks product vertices that cannot reach any accepting
// cycle.
const PotentialInf = math.MaxInt

// ProdState is a product-automaton vertex: a TS configuration paired
// with a Büchi state. Like Conf it is a comparable value, keyed by
// content.
type ProdState struct {
	X core.Conf
	Q string
}

// Less orders product states lexicographically (configuration first,
// then Büchi state).
func (p ProdState) Less(other ProdState) bool {
	if p.X != other.X {
		return p.X.Less(other.X)
	}
	return p.Q < other.Q
}

// ProdEdge is a candidate or committed product edge.
type ProdEdge struct {
	From, To ProdState
}

// Product is the incremental product automaton of a transition system
// and a Büchi automaton. It holds non-owning keys into both: TS owns
// configurations, the Büchi automaton owns its states. During RRG
// construction it grows monotonically; on-line execution reads it.
type Product struct {
	buchi *Buchi
	ts    *TS // captured from Check; drives the Update closure

	states    map[ProdState]bool
	succ      map[ProdState]map[ProdState]bool
	pred      map[ProdState]map[ProdState]bool
	proj      map[core.Conf]map[string]bool // TS vertex -> Büchi components
	order     []ProdState                   // insertion order
	init      map[ProdState]bool
	potential   map[ProdState]int
	edgeCount   int
	acceptCount int
	found       bool
}

// NewProduct creates an empty product over the given automaton.
func NewProduct(b *Buchi) *Product {
	return &Product{
		buchi:     b,
		states:    map[ProdState]bool{},
		succ:      map[ProdState]map[ProdState]bool{},
		pred:      map[ProdState]map[ProdState]bool{},
		proj:      map[core.Conf]map[string]bool{},
		init:      map[ProdState]bool{},
		potential: map[ProdState]int{},
	}
}

// Buchi returns the automaton component.
func (p *Product) Buchi() *Buchi { return p.buchi }

// AddInitialState seeds the product with (x, q) for every initial q of
// the Büchi automaton. Consistency with sigma is propagated by the
// subsequent Check calls, which gate every product edge on the
// destination's proposition.
func (p *Product) AddInitialState(x core.Conf, sigma core.Symbols) {
	_ = sigma
	for _, q := range p.buchi.Init() {
		s := ProdState{X: x, Q: q}
		p.addState(s)
		p.init[s] = true
	}
}

func (p *Product) addState(s ProdState) {
	if p.states[s] {
		return
	}
	p.states[s] = true
	p.succ[s] = map[ProdState]bool{}
	p.pred[s] = map[ProdState]bool{}
	p.order = append(p.order, s)
	if p.buchi.IsAccepting(s.Q) {
		p.acceptCount++
	}
	if p.proj[s.X] == nil {
		p.proj[s.X] = map[string]bool{}
	}
	p.proj[s.X][s.Q] = true
}

// Has reports whether s is a product vertex.
func (p *Product) Has(s ProdState) bool { return p.states[s] }

// IsInit reports whether s was seeded as an initial product vertex.
func (p *Product) IsInit(s ProdState) bool { return p.init[s] }

// IsAccepting reports whether the Büchi component of s is accepting.
func (p *Product) IsAccepting(s ProdState) bool { return p.buchi.IsAccepting(s.Q) }

// InitStates returns the initial product vertices in sorted order.
func (p *Product) InitStates() []ProdState {
	out := make([]ProdState, 0, len(p.init))
	for s := range p.init {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Proj returns the Büchi components paired with the TS vertex x, in
// sorted order.
func (p *Product) Proj(x core.Conf) []string {
	out := make([]string, 0, len(p.proj[x]))
	for q := range p.proj[x] {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// Successors returns the outgoing neighbors of s in sorted order.
func (p *Product) Successors(s ProdState) []ProdState {
	out := make([]ProdState, 0, len(p.succ[s]))
	for t := range p.succ[s] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Check returns the candidate product edges induced by the prospective
// TS edge (u,v), both directions gated by the destination proposition
// sigma = σ(v). Forward: for each (u,q) in P and q' in Next(q, σ(v)),
// emit ((u,q),(v,q')); (v,q') may be new and is inserted by Update.
// Backward: only edges between existing product vertices are emitted.
// Inconsistent input yields an empty set. Check adds no vertex or edge
// to the product; it only records ts for the Update closure.
func (p *Product) Check(ts *TS, u, v core.Conf, sigma core.Symbols, forward bool) []ProdEdge {
	if ts != nil {
		p.ts = ts
		if !ts.HasState(u) {
			return nil
		}
	}
	var out []ProdEdge
	if forward {
		for q := range p.proj[u] {
			from := ProdState{X: u, Q: q}
			for _, q2 := range p.buchi.Next(q, sigma) {
				out = append(out, ProdEdge{From: from, To: ProdState{X: v, Q: q2}})
			}
		}
	} else {
		for q2 := range p.proj[v] {
			to := ProdState{X: v, Q: q2}
			for q := range p.proj[u] {
				if p.buchi.HasEdge(q, q2, sigma) {
					out = append(out, ProdEdge{From: ProdState{X: u, Q: q}, To: to})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From.Less(out[j].From)
		}
		return out[i].To.Less(out[j].To)
	})
	return out
}

// Update commits candidate edges: endpoints are inserted as needed,
// reachability is closed over the committed TS edges, and the
// acceptance condition is re-evaluated. The closure matters when a TS
// vertex acquires a new Büchi pairing after its outgoing TS edges were
// already checked: the new product vertex must still flow through
// them. Growth is monotone, so a found policy stays found.
func (p *Product) Update(edges []ProdEdge) {
	added := false
	var work []ProdState
	insert := func(s ProdState) {
		if !p.states[s] {
			p.addState(s)
			work = append(work, s)
		}
	}
	link := func(e ProdEdge) {
		insert(e.From)
		insert(e.To)
		if !p.succ[e.From][e.To] {
			p.succ[e.From][e.To] = true
			p.pred[e.To][e.From] = true
			p.edgeCount++
			added = true
		}
	}
	var tails []core.Conf
	seenTail := map[core.Conf]bool{}
	for _, e := range edges {
		link(e)
		if !seenTail[e.From.X] {
			seenTail[e.From.X] = true
			tails = append(tails, e.From.X)
		}
	}
	// pairings that already existed at the tail of a newly committed TS
	// edge must flow through it as well
	for _, x := range tails {
		for _, q := range p.Proj(x) {
			work = append(work, ProdState{X: x, Q: q})
		}
	}
	for len(work) > 0 && p.ts != nil {
		s := work[0]
		work = work[1:]
		for _, y := range p.ts.Successors(s.X) {
			for _, q2 := range p.buchi.Next(s.Q, p.ts.Props(y)) {
				link(ProdEdge{From: s, To: ProdState{X: y, Q: q2}})
			}
		}
	}
	if added && !p.found {
		p.found = p.scanForLasso()
	}
}

// scanForLasso looks for an accepting vertex lying on a cycle. Every
// product vertex is init-reachable by construction, so an accepting
// vertex inside a cyclic strongly-connected component completes a
// lasso. One iterative Tarjan pass keeps the per-Update cost at
// O(V+E).
func (p *Product) scanForLasso() bool {
	if p.acceptCount == 0 {
		return false
	}

	index := make(map[ProdState]int, len(p.order))
	low := make(map[ProdState]int, len(p.order))
	onStack := map[ProdState]bool{}
	var stack []ProdState
	next := 0

	type frame struct {
		v    ProdState
		succ []ProdState
		i    int
	}

	for _, root := range p.order {
		if _, ok := index[root]; ok {
			continue
		}
		index[root], low[root] = next, next
		next++
		stack = append(stack, root)
		onStack[root] = true
		frames := []frame{{v: root, succ: p.Successors(root)}}

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if f.i < len(f.succ) {
				w := f.succ[f.i]
				f.i++
				if _, ok := index[w]; !ok {
					index[w], low[w] = next, next
					next++
					stack = append(stack, w)
					onStack[w] = true
					frames = append(frames, frame{v: w, succ: p.Successors(w)})
				} else if onStack[w] && index[w] < low[f.v] {
					low[f.v] = index[w]
				}
				continue
			}
			v := f.v
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				pv := frames[len(frames)-1].v
				if low[v] < low[pv] {
					low[pv] = low[v]
				}
			}
			if low[v] == index[v] {
				var comp []ProdState
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				cyclic := len(comp) > 1 || p.succ[v][v]
				if cyclic {
					for _, w := range comp {
						if p.IsAccepting(w) {
							return true
						}
					}
				}
			}
		}
	}
	return false
}

// selfReachable reports whether s lies on a non-empty cycle.
func (p *Product) selfReachable(s ProdState) bool {
	visited := map[ProdState]bool{}
	queue := make([]ProdState, 0, len(p.succ[s]))
	for t := range p.succ[s] {
		if t == s {
			return true
		}
		visited[t] = true
		queue = append(queue, t)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for t := range p.succ[cur] {
			if t == s {
				return true
			}
			if !visited[t] {
				visited[t] = true
				queue = append(queue, t)
			}
		}
	}
	return false
}

// FoundPolicy reports whether the product contains an init-reachable
// accepting vertex lying on an accepting cycle.
func (p *Product) FoundPolicy() bool { return p.found }

// NumStates returns the vertex count.
func (p *Product) NumStates() int { return len(p.order) }

// NumEdges returns the edge count.
func (p *Product) NumEdges() int { return p.edgeCount }

// bfsFrom runs a BFS from the given sources over successor edges, or
// over predecessor edges when backward is set, returning distance and
// parent maps.
func (p *Product) bfsFrom(sources []ProdState, backward bool) (map[ProdState]int, map[ProdState]ProdState) {
	dist := map[ProdState]int{}
	parent := map[ProdState]ProdState{}
	queue := make([]ProdState, 0, len(sources))
	for _, s := range sources {
		if _, ok := dist[s]; ok {
			continue
		}
		dist[s] = 0
		queue = append(queue, s)
	}
	adj := p.succ
	if backward {
		adj = p.pred
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		// sorted expansion keeps parents (and therefore extracted
		// paths) deterministic
		next := make([]ProdState, 0, len(adj[cur]))
		for t := range adj[cur] {
			next = append(next, t)
		}
		sort.Slice(next, func(i, j int) bool { return next[i].Less(next[j]) })
		for _, t := range next {
			if _, ok := dist[t]; ok {
				continue
			}
			dist[t] = dist[cur] + 1
			parent[t] = cur
			queue = append(queue, t)
		}
	}
	return dist, parent
}

// GlobalPolicy extracts the lasso minimizing |prefix| + |suffix|, ties
// broken by lexicographic vertex order. The prefix runs from an
// initial vertex to the chosen accepting vertex q*; the suffix is the
// cycle from q*'s first cycle successor back to q*, so prefix ⧺ suffix
// repeated walks the lasso without duplicating q* at the seam. The
// Büchi component is projected away.
func (p *Product) GlobalPolicy(ts *TS) (prefix, suffix []core.Conf, err error) {
	if !p.found {
		return nil, nil, ErrNoPolicy
	}

	distInit, parentInit := p.bfsFrom(p.InitStates(), false)

	best := ProdState{}
	bestTotal := -1
	var bestCycleParent map[ProdState]ProdState
	for _, s := range p.order {
		if !p.IsAccepting(s) {
			continue
		}
		if ts != nil && !ts.HasState(s.X) {
			continue
		}
		dp, ok := distInit[s]
		if !ok {
			continue
		}
		cycleDist, cycleParent := p.bfsFrom(p.Successors(s), false)
		// shift by one edge: distances start at q*'s successors
		dc, ok := cycleDist[s]
		if !ok {
			continue
		}
		total := dp + dc + 1
		if bestTotal < 0 || total < bestTotal || (total == bestTotal && s.Less(best)) {
			best, bestTotal = s, total
			bestCycleParent = cycleParent
		}
	}
	if bestTotal < 0 {
		return nil, nil, ErrNoPolicy
	}

	// prefix: walk parents back from q* to an initial vertex
	var rev []ProdState
	for cur := best; ; {
		rev = append(rev, cur)
		par, ok := parentInit[cur]
		if !ok {
			break
		}
		cur = par
	}
	for i := len(rev) - 1; i >= 0; i-- {
		prefix = append(prefix, rev[i].X)
	}

	// suffix: walk parents back from q* through the cycle BFS; the
	// sources of that BFS are q*'s successors, so prepending them
	// closes the loop q* -> ... -> q*.
	rev = rev[:0]
	for cur := best; ; {
		rev = append(rev, cur)
		par, ok := bestCycleParent[cur]
		if !ok {
			break
		}
		cur = par
	}
	for i := len(rev) - 1; i >= 0; i-- {
		suffix = append(suffix, rev[i].X)
	}
	return prefix, suffix, nil
}

// ComputePotentials assigns every product vertex its distance in edges
// to the set of vertices lying on accepting cycles (0 on such a
// vertex, PotentialInf when unreachable). It is idempotent on an
// unchanged product and returns false when no accepting cycle exists.
func (p *Product) ComputePotentials() bool {
	zero := map[ProdState]bool{}
	for _, s := range p.order {
		if !p.IsAccepting(s) || !p.selfReachable(s) {
			continue
		}
		reach, _ := p.bfsFrom([]ProdState{s}, false)
		coreach, _ := p.bfsFrom([]ProdState{s}, true)
		for t := range reach {
			if _, ok := coreach[t]; ok {
				zero[t] = true
			}
		}
	}
	if len(zero) == 0 {
		return false
	}
	sources := make([]ProdState, 0, len(zero))
	for s := range zero {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Less(sources[j]) })
	dist, _ := p.bfsFrom(sources, true)
	for _, s := range p.order {
		if d, ok := dist[s]; ok {
			p.potential[s] = d
		} else {
			p.potential[s] = PotentialInf
		}
	}
	return true
}

// Potential returns the potential of s, PotentialInf when unknown.
func (p *Product) Potential(s ProdState) int {
	if d, ok := p.potential[s]; ok {
		return d
	}
	return PotentialInf
}
