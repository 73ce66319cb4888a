package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/ltl"
)

// reachScenario is the trivial end-to-end case: a unit box with
// regions a and b in opposite corners under <>a && <>b.
func reachScenario(separated bool) *Scenario {
	s := &Scenario{
		Name:     "reach",
		Boundary: RegionSpec{Kind: "box", Ranges: [][2]float64{{0, 1}, {0, 1}}},
		Regions: []RegionSpec{
			{Kind: "box", Ranges: [][2]float64{{0, 0.2}, {0, 0.2}}, Symbols: []string{"a"}},
			{Kind: "box", Ranges: [][2]float64{{0.8, 1}, {0.8, 1}}, Symbols: []string{"b"}},
		},
		Robot: RobotSpec{
			Name:          "unit",
			Init:          []float64{0.5, 0.1},
			StepSize:      0.25,
			Diameter:      0.01,
			SensingRadius: 0.3,
		},
		Mission:    MissionSpec{Kind: "reach", Visit: []string{"a", "b"}},
		LocalSpec:  map[string]int{},
		Iterations: 2000,
		Eta:        [2]float64{0.1, 0.3},
		Seed:       7,
		Cycles:     1,
	}
	if separated {
		s.Regions = append(s.Regions, RegionSpec{
			Kind: "box", Ranges: [][2]float64{{0, 1}, {0.45, 0.55}}, Symbols: []string{"wall"},
		})
		s.Mission.Avoid = []string{"wall"}
	}
	return s
}

func TestRunTrivialReach(t *testing.T) {
	dir := t.TempDir()
	scenario := reachScenario(false)
	scenario.OutputDir = dir

	simulator, err := New(Config{Scenario: scenario, MaxSteps: 3000})
	require.NoError(t, err)
	require.NoError(t, simulator.RunOffline())

	require.NotEmpty(t, simulator.Prefix)
	require.NotEmpty(t, simulator.Suffix)
	require.NotEmpty(t, simulator.Metrics.RunID)
	require.Greater(t, simulator.Metrics.TSStates, 1)

	// persisted TS round-trips
	back, err := ltl.LoadTS(filepath.Join(dir, "ts.yaml"))
	require.NoError(t, err)
	require.Equal(t, simulator.RRG.TS.NumStates(), back.NumStates())
	require.Equal(t, simulator.RRG.TS.NumEdges(), back.NumEdges())

	// solution document exists
	_, err = os.Stat(filepath.Join(dir, "solution.yaml"))
	require.NoError(t, err)

	// the lasso visits both regions
	robot := simulator.World().Robot
	sawA, sawB := false, false
	for _, c := range append(append([]core.Conf{}, simulator.Prefix...), simulator.Suffix...) {
		props := robot.Symbols(c, false)
		sawA = sawA || props.Has("a")
		sawB = sawB || props.Has("b")
	}
	require.True(t, sawA)
	require.True(t, sawB)
}

func TestRunOnlineCompletesCycles(t *testing.T) {
	scenario := reachScenario(false)
	simulator, err := New(Config{Scenario: scenario, MaxSteps: 5000})
	require.NoError(t, err)
	require.NoError(t, simulator.Run())
	require.Equal(t, 1, simulator.Metrics.CyclesCompleted)
	require.Greater(t, simulator.Metrics.Steps, 0)
}

func TestRunSeparatedFails(t *testing.T) {
	scenario := reachScenario(true)
	scenario.Iterations = 300
	simulator, err := New(Config{Scenario: scenario})
	require.NoError(t, err)
	require.Error(t, simulator.RunOffline())
	require.Empty(t, simulator.Prefix)
	require.Empty(t, simulator.Suffix)
	require.Error(t, simulator.RunOnline())
}

func TestIJRRSurveillanceOffline(t *testing.T) {
	if testing.Short() {
		t.Skip("full IJRR solve")
	}
	scenario := IJRRScenario()
	simulator, err := New(Config{Scenario: scenario, Iterations: 5000})
	require.NoError(t, err)
	require.NoError(t, simulator.RunOffline())

	// the suffix must revisit every surveillance region: closing the
	// accepting cycle clears the full obligation set
	robot := simulator.World().Robot
	visited := core.Symbols{}
	for _, c := range simulator.Suffix {
		visited = visited.Union(robot.Symbols(c, false))
	}
	for _, name := range []string{"r1", "r2", "r3", "r4"} {
		require.True(t, visited.Has(name), "suffix misses %s", name)
	}
	for _, name := range []string{"o1", "o2", "o3", "o4"} {
		require.False(t, visited.Has(name), "suffix enters obstacle %s", name)
	}
}

func TestConfigDefaultsFromScenario(t *testing.T) {
	scenario := reachScenario(false)
	scenario.OutputDir = ""
	simulator, err := New(Config{Scenario: scenario})
	require.NoError(t, err)
	require.Equal(t, scenario.Iterations, simulator.cfg.Iterations)
	require.Equal(t, scenario.Eta[0], simulator.cfg.EtaLo)
	require.Equal(t, scenario.Eta[1], simulator.cfg.EtaHi)
	require.Equal(t, scenario.Seed, simulator.cfg.Seed)
	require.Equal(t, scenario.Cycles, simulator.cfg.Cycles)

	_, err = New(Config{})
	require.Error(t, err)
}
