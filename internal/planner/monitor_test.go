package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/ltl"
)

func monitorAutomaton(t *testing.T) *ltl.Buchi {
	t.Helper()
	b := ltl.NewBuchi()
	b.AddState("q0", true, false)
	b.AddState("qa", false, true)
	require.NoError(t, b.AddTransition("q0", "q0", ltl.Guard{None: []string{"a", "o"}}))
	require.NoError(t, b.AddTransition("q0", "qa", ltl.Guard{All: []string{"a"}, None: []string{"o"}}))
	require.NoError(t, b.AddTransition("qa", "qa", ltl.Guard{None: []string{"o"}}))
	return b
}

func TestMonitorUnchangedProposition(t *testing.T) {
	b := monitorAutomaton(t)
	start := NewBuchiSet("q0")

	// no boundary crossed: the set is passed through untouched, even
	// for propositions no automaton edge admits
	out := Monitor(start, b, core.NewSymbols("o"), core.NewSymbols("o"))
	require.Equal(t, start, out)

	// the returned set is a copy
	out["probe"] = true
	require.False(t, start.Has("probe"))
}

func TestMonitorPropagates(t *testing.T) {
	b := monitorAutomaton(t)

	out := Monitor(NewBuchiSet("q0"), b, core.NewSymbols(), core.NewSymbols("a"))
	require.Equal(t, NewBuchiSet("qa"), out)

	// nondeterministic union over the carried set
	out = Monitor(NewBuchiSet("q0", "qa"), b, core.NewSymbols("a"), core.NewSymbols())
	require.Equal(t, NewBuchiSet("q0", "qa"), out)
}

func TestMonitorViolation(t *testing.T) {
	b := monitorAutomaton(t)

	// crossing into the forbidden region empties the set
	out := Monitor(NewBuchiSet("q0", "qa"), b, core.NewSymbols(), core.NewSymbols("o"))
	require.Empty(t, out)

	// an already-empty set stays empty
	out = Monitor(BuchiSet{}, b, core.NewSymbols(), core.NewSymbols("a"))
	require.Empty(t, out)
}
