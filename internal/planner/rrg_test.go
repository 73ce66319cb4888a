package planner

import (
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/ltl"
)

// createReachWorld builds a unit workspace with regions a and b in
// opposite corners. When separated is set, a wall splits the two.
func createReachWorld(t *testing.T, separated bool) *core.Robot {
	t.Helper()
	boundary, err := core.NewBoxRegion(0, 1, 0, 1)
	require.NoError(t, err)
	ws := core.NewWorkspace(boundary)

	ra, err := core.NewBoxRegion(0, 0.2, 0, 0.2, "a")
	require.NoError(t, err)
	rb, err := core.NewBoxRegion(0.8, 1, 0.8, 1, "b")
	require.NoError(t, err)
	ws.AddRegion(ra, false)
	ws.AddRegion(rb, false)
	if separated {
		wall, err := core.NewBoxRegion(0, 1, 0.45, 0.55, "wall")
		require.NoError(t, err)
		ws.AddRegion(wall, false)
	}

	rng := rand.New(rand.NewSource(0))
	robot := core.NewRobot("unit", core.Conf{X: 0.5, Y: 0.1}, ws, 0.25, rng)
	robot.SensingRadius = 0.3
	return robot
}

func TestSolveTrivialReach(t *testing.T) {
	robot := createReachWorld(t, false)
	buchi := ltl.ReachBuchi([]string{"a", "b"}, nil)
	checker := ltl.NewProduct(buchi)
	rrg := NewRRG(robot, checker, 2000, 0.1, 0.3)

	require.NoError(t, rrg.Solve())
	require.True(t, checker.FoundPolicy())

	require.True(t, checker.ComputePotentials())
	prefix, suffix, err := checker.GlobalPolicy(rrg.TS)
	require.NoError(t, err)
	require.NotEmpty(t, prefix)
	require.NotEmpty(t, suffix)

	// the lasso visits both regions
	sawA, sawB := false, false
	for _, c := range append(append([]core.Conf{}, prefix...), suffix...) {
		props := robot.Symbols(c, false)
		sawA = sawA || props.Has("a")
		sawB = sawB || props.Has("b")
	}
	require.True(t, sawA)
	require.True(t, sawB)
}

func TestSolveInvariants(t *testing.T) {
	robot := createReachWorld(t, false)
	buchi := ltl.ReachBuchi([]string{"a", "b"}, nil)
	checker := ltl.NewProduct(buchi)
	rrg := NewRRG(robot, checker, 300, 0.1, 0.3)
	_ = rrg.Solve() // success not required for the invariants

	states := rrg.TS.States()
	// dispersion: no two vertices closer than eta_lo
	for i, u := range states {
		for _, v := range states[i+1:] {
			require.Greater(t, u.Dist(v), rrg.EtaLo,
				"vertices %v and %v violate dispersion", u, v)
		}
	}
	// every TS edge is a simple segment within eta_hi
	for _, u := range states {
		for _, v := range rrg.TS.Successors(u) {
			require.True(t, robot.IsSimpleSegment(u, v))
			require.Less(t, u.Dist(v), rrg.EtaHi)
		}
	}
	// every TS vertex carries at least one product vertex
	for _, u := range states {
		require.NotEmpty(t, checker.Proj(u), "vertex %v missing from product", u)
	}
	// every product edge is justified by an automaton edge
	for _, u := range states {
		for _, q := range checker.Proj(u) {
			s := ltl.ProdState{X: u, Q: q}
			for _, next := range checker.Successors(s) {
				require.True(t, buchi.HasEdge(s.Q, next.Q, rrg.TS.Props(next.X)))
			}
		}
	}
}

func TestSolveSeparatedFails(t *testing.T) {
	robot := createReachWorld(t, true)
	// the wall region is not mentioned by the mission, so crossing it
	// is legal for the automaton; make it forbidden instead
	buchi := ltl.ReachBuchi([]string{"a", "b"}, []string{"wall"})
	checker := ltl.NewProduct(buchi)
	rrg := NewRRG(robot, checker, 300, 0.1, 0.3)

	err := rrg.Solve()
	require.Error(t, err)
	require.False(t, checker.FoundPolicy())
	_, _, err = checker.GlobalPolicy(rrg.TS)
	require.True(t, errors.Is(err, ltl.ErrNoPolicy))
}

func TestSolveInfeasibleSpec(t *testing.T) {
	robot := createReachWorld(t, false)
	// <>a && []!a
	buchi := ltl.NewBuchi()
	buchi.AddState("q0", true, false)
	buchi.AddState("qa", false, true)
	require.NoError(t, buchi.AddTransition("q0", "q0", ltl.Guard{None: []string{"a"}}))
	require.NoError(t, buchi.AddTransition("q0", "qa", ltl.Guard{All: []string{"a"}, None: []string{"a"}}))
	require.NoError(t, buchi.AddTransition("qa", "qa", ltl.Guard{None: []string{"a"}}))

	checker := ltl.NewProduct(buchi)
	rrg := NewRRG(robot, checker, 200, 0.1, 0.3)
	err := rrg.Solve()
	require.Error(t, err)
	require.False(t, checker.FoundPolicy())
}

// steppingClock advances a mocked clock on every Since call, so the
// RRG deadline check observes time passing without any real sleeping.
type steppingClock struct {
	*clock.Mock
	step time.Duration
}

func (c *steppingClock) Since(t time.Time) time.Duration {
	c.Mock.Add(c.step)
	return c.Mock.Since(t)
}

func TestSolveDeadline(t *testing.T) {
	robot := createReachWorld(t, false)
	buchi := ltl.ReachBuchi([]string{"a", "b"}, nil)
	checker := ltl.NewProduct(buchi)
	rrg := NewRRG(robot, checker, 100000, 0.1, 0.3)
	rrg.Clock = &steppingClock{Mock: clock.NewMock(), step: 600 * time.Millisecond}
	rrg.Deadline = time.Second

	err := rrg.Solve()
	require.True(t, errors.Is(err, ErrDeadlineExceeded))
	// progress up to the expired iteration is preserved
	require.GreaterOrEqual(t, rrg.TS.NumStates(), 1)
}
