package ltl

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Charlie0257/reactive-ltl/internal/core"
)

func TestGuardAdmits(t *testing.T) {
	g := Guard{All: []string{"r1"}, None: []string{"o1"}}
	require.True(t, g.Admits(core.NewSymbols("r1")))
	require.True(t, g.Admits(core.NewSymbols("r1", "r2")))
	require.False(t, g.Admits(core.NewSymbols()))
	require.False(t, g.Admits(core.NewSymbols("r1", "o1")))

	empty := Guard{}
	require.True(t, empty.Admits(core.NewSymbols()))
	require.True(t, empty.Admits(core.NewSymbols("anything")))
}

func TestBuchiNext(t *testing.T) {
	b := NewBuchi()
	b.AddState("q0", true, false)
	b.AddState("q1", false, true)
	require.NoError(t, b.AddTransition("q0", "q0", Guard{None: []string{"a"}}))
	require.NoError(t, b.AddTransition("q0", "q1", Guard{All: []string{"a"}}))
	require.NoError(t, b.AddTransition("q1", "q1", Guard{}))

	require.Equal(t, []string{"q0"}, b.Next("q0", core.NewSymbols()))
	require.Equal(t, []string{"q1"}, b.Next("q0", core.NewSymbols("a")))
	require.Equal(t, []string{"q1"}, b.Next("q1", core.NewSymbols("b")))
	require.Empty(t, b.Next("missing", core.NewSymbols()))

	require.True(t, b.HasEdge("q0", "q1", core.NewSymbols("a")))
	require.False(t, b.HasEdge("q0", "q1", core.NewSymbols()))

	require.Equal(t, []string{"q0"}, b.Init())
	require.True(t, b.IsAccepting("q1"))
	require.False(t, b.IsAccepting("q0"))
	require.Equal(t, 2, b.NumStates())
	require.Equal(t, 3, b.NumEdges())

	err := b.AddTransition("q0", "nope", Guard{})
	require.True(t, errors.Is(err, ErrUnknownState))
}

func TestBuchiYAMLRoundTrip(t *testing.T) {
	doc := []byte(`
states: [q0, q1]
init: [q0]
accept: [q1]
transitions:
  - {from: q0, to: q0, guard: {none: [a]}}
  - {from: q0, to: q1, guard: {all: [a]}}
  - {from: q1, to: q1, guard: {}}
`)
	b, err := ParseBuchi(doc)
	require.NoError(t, err)
	require.Equal(t, []string{"q0"}, b.Init())
	require.True(t, b.IsAccepting("q1"))
	require.Equal(t, []string{"q1"}, b.Next("q0", core.NewSymbols("a")))
}

func TestReachBuchi(t *testing.T) {
	b := ReachBuchi([]string{"a", "b"}, nil)

	// pending both -> seeing a leaves b pending
	init := b.Init()
	require.Len(t, init, 1)
	next := b.Next(init[0], core.NewSymbols("a"))
	require.NotEmpty(t, next)

	// walking a then b reaches acceptance
	set := map[string]bool{init[0]: true}
	step := func(sigma core.Symbols) {
		out := map[string]bool{}
		for q := range set {
			for _, q2 := range b.Next(q, sigma) {
				out[q2] = true
			}
		}
		set = out
	}
	step(core.NewSymbols("a"))
	step(core.NewSymbols("b"))
	accepting := false
	for q := range set {
		accepting = accepting || b.IsAccepting(q)
	}
	require.True(t, accepting)

	// acceptance is absorbing for the co-safe fragment
	step(core.NewSymbols())
	stillAccepting := false
	for q := range set {
		stillAccepting = stillAccepting || b.IsAccepting(q)
	}
	require.True(t, stillAccepting)
}

func TestSurveillanceBuchi(t *testing.T) {
	b := SurveillanceBuchi([]string{"r1", "r2"}, []string{"o1"})

	// obstacle symbols are rejected everywhere
	require.False(t, b.Admits(core.NewSymbols("o1")))
	require.True(t, b.Admits(core.NewSymbols("r1")))

	init := b.Init()
	require.Len(t, init, 1)

	set := map[string]bool{init[0]: true}
	step := func(sigma core.Symbols) bool {
		out := map[string]bool{}
		acc := false
		for q := range set {
			for _, q2 := range b.Next(q, sigma) {
				out[q2] = true
				acc = acc || b.IsAccepting(q2)
			}
		}
		set = out
		return acc
	}

	require.False(t, step(core.NewSymbols("r1")))
	require.True(t, step(core.NewSymbols("r2")))
	// the obligation rearms after acceptance
	require.False(t, step(core.NewSymbols()))
	// the branch that tracked r2 first still had r1 pending
	require.True(t, step(core.NewSymbols("r1")))
	require.True(t, step(core.NewSymbols("r2")))
}
