package ltl

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Charlie0257/reactive-ltl/internal/core"
)

// reachAutomaton is <>a with an absorbing accepting state.
func reachAutomaton(t *testing.T) *Buchi {
	t.Helper()
	b := NewBuchi()
	b.AddState("q0", true, false)
	b.AddState("qa", false, true)
	require.NoError(t, b.AddTransition("q0", "q0", Guard{None: []string{"a"}}))
	require.NoError(t, b.AddTransition("q0", "qa", Guard{All: []string{"a"}}))
	require.NoError(t, b.AddTransition("qa", "qa", Guard{}))
	return b
}

// infeasibleAutomaton is <>a && []!a: the accepting state is
// unreachable because its only incoming guard contradicts itself.
func infeasibleAutomaton(t *testing.T) *Buchi {
	t.Helper()
	b := NewBuchi()
	b.AddState("q0", true, false)
	b.AddState("qa", false, true)
	require.NoError(t, b.AddTransition("q0", "q0", Guard{None: []string{"a"}}))
	require.NoError(t, b.AddTransition("q0", "qa", Guard{All: []string{"a"}, None: []string{"a"}}))
	require.NoError(t, b.AddTransition("qa", "qa", Guard{None: []string{"a"}}))
	return b
}

// chainProduct builds x0 -> x1 -> x2 with "a" on x2, plus a self-loop
// x2 -> x2 when withCycle is set.
func chainProduct(t *testing.T, b *Buchi, withCycle bool) (*Product, *TS, []core.Conf) {
	t.Helper()
	x := []core.Conf{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	sigma := []core.Symbols{core.NewSymbols(), core.NewSymbols(), core.NewSymbols("a")}

	ts := NewTS(x[0], sigma[0])
	p := NewProduct(b)
	p.AddInitialState(x[0], sigma[0])

	extend := func(u, v int) {
		if !ts.HasState(x[v]) {
			ts.AddState(x[v], sigma[v])
		}
		edges := p.Check(ts, x[u], x[v], sigma[v], true)
		require.NotEmpty(t, edges)
		ts.AddEdge(x[u], x[v])
		p.Update(edges)
	}
	extend(0, 1)
	extend(1, 2)
	if withCycle {
		extend(2, 2)
	}
	return p, ts, x
}

func TestProductEdgesMatchBuchi(t *testing.T) {
	b := reachAutomaton(t)
	p, ts, x := chainProduct(t, b, true)

	// every committed product edge must correspond to a Büchi edge
	// labeled by the destination's proposition
	for _, s := range p.InitStates() {
		require.True(t, p.IsInit(s))
	}
	states := []ProdState{}
	for _, c := range x {
		for _, q := range p.Proj(c) {
			states = append(states, ProdState{X: c, Q: q})
		}
	}
	for _, s := range states {
		for _, next := range p.Successors(s) {
			require.True(t, b.HasEdge(s.Q, next.Q, ts.Props(next.X)),
				"product edge %v -> %v has no automaton edge", s, next)
		}
	}
}

func TestFoundPolicyAndPotentials(t *testing.T) {
	b := reachAutomaton(t)

	// without the accepting self-loop there is no cycle
	p, _, _ := chainProduct(t, b, false)
	require.False(t, p.FoundPolicy())
	require.False(t, p.ComputePotentials())

	p, _, x := chainProduct(t, b, true)
	require.True(t, p.FoundPolicy())
	require.True(t, p.ComputePotentials())

	accept := ProdState{X: x[2], Q: "qa"}
	require.Equal(t, 0, p.Potential(accept))
	require.Equal(t, 1, p.Potential(ProdState{X: x[1], Q: "q0"}))
	require.Equal(t, 2, p.Potential(ProdState{X: x[0], Q: "q0"}))

	// idempotent on an unchanged product
	require.True(t, p.ComputePotentials())
	require.Equal(t, 0, p.Potential(accept))
	require.Equal(t, 2, p.Potential(ProdState{X: x[0], Q: "q0"}))

	require.Equal(t, PotentialInf, p.Potential(ProdState{X: x[0], Q: "ghost"}))
}

func TestGlobalPolicyLasso(t *testing.T) {
	b := reachAutomaton(t)

	p, ts, _ := chainProduct(t, b, false)
	_, _, err := p.GlobalPolicy(ts)
	require.True(t, errors.Is(err, ErrNoPolicy))

	p, ts, x := chainProduct(t, b, true)
	prefix, suffix, err := p.GlobalPolicy(ts)
	require.NoError(t, err)

	// prefix runs from the initial vertex to the accepting one
	require.Equal(t, x[0], prefix[0])
	require.Equal(t, x[2], prefix[len(prefix)-1])
	require.Equal(t, []core.Conf{x[0], x[1], x[2]}, prefix)
	// suffix is the self-loop cycle closing at the accepting vertex
	require.Equal(t, []core.Conf{x[2]}, suffix)
}

func TestGlobalPolicyPrefersShortLasso(t *testing.T) {
	b := reachAutomaton(t)

	// two branches from the initial vertex: a long chain to a-far and
	// a short hop to a-near, both with accepting self-loops
	x0 := core.Conf{X: 0, Y: 0}
	near := core.Conf{X: 1, Y: 0}
	mid := core.Conf{X: 0, Y: 1}
	far := core.Conf{X: 0, Y: 2}
	empty := core.NewSymbols()
	a := core.NewSymbols("a")

	ts := NewTS(x0, empty)
	p := NewProduct(b)
	p.AddInitialState(x0, empty)

	extend := func(u, v core.Conf, sigma core.Symbols) {
		if !ts.HasState(v) {
			ts.AddState(v, sigma)
		}
		edges := p.Check(ts, u, v, sigma, true)
		require.NotEmpty(t, edges)
		ts.AddEdge(u, v)
		p.Update(edges)
	}
	extend(x0, mid, empty)
	extend(mid, far, a)
	extend(far, far, a)
	extend(x0, near, a)
	extend(near, near, a)

	require.True(t, p.FoundPolicy())
	prefix, suffix, err := p.GlobalPolicy(ts)
	require.NoError(t, err)
	require.Equal(t, []core.Conf{x0, near}, prefix)
	require.Equal(t, []core.Conf{near}, suffix)
}

func TestBackwardCheck(t *testing.T) {
	b := reachAutomaton(t)
	p, ts, x := chainProduct(t, b, false)

	// backward candidate x1 -> x0 between existing product vertices,
	// gated by sigma(x0)
	edges := p.Check(ts, x[1], x[0], ts.Props(x[0]), false)
	require.NotEmpty(t, edges)
	for _, e := range edges {
		require.Equal(t, x[1], e.From.X)
		require.Equal(t, x[0], e.To.X)
		require.True(t, b.HasEdge(e.From.Q, e.To.Q, ts.Props(x[0])))
	}

	// the automaton cannot step back from acceptance to q0, so the
	// reverse candidate set is empty
	require.Empty(t, p.Check(ts, x[2], x[1], ts.Props(x[1]), false))

	// backward check emits nothing for unknown destinations
	require.Empty(t, p.Check(ts, x[2], core.Conf{X: 9, Y: 9}, core.NewSymbols(), false))
}

func TestInfeasibleSpecNeverAccepts(t *testing.T) {
	b := infeasibleAutomaton(t)
	x := []core.Conf{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	sigma := []core.Symbols{core.NewSymbols(), core.NewSymbols(), core.NewSymbols("a")}

	ts := NewTS(x[0], sigma[0])
	p := NewProduct(b)
	p.AddInitialState(x[0], sigma[0])

	for i := 0; i+1 < len(x); i++ {
		ts.AddState(x[i+1], sigma[i+1])
		edges := p.Check(ts, x[i], x[i+1], sigma[i+1], true)
		ts.AddEdge(x[i], x[i+1])
		p.Update(edges)
	}
	// the "a" vertex admits no Büchi transition at all
	require.False(t, p.FoundPolicy())
	require.False(t, p.ComputePotentials())
	_, _, err := p.GlobalPolicy(ts)
	require.True(t, errors.Is(err, ErrNoPolicy))
}
