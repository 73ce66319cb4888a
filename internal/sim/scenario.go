// Package sim provides scenario descriptions and the execution loop
// tying the planners to the robot and its sensor: off-line solve,
// potential computation, then the on-line sense → execute → move loop
// with artifact persistence and metrics.
package sim

import (
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/ltl"
)

// RegionSpec describes one region in a scenario document.
type RegionSpec struct {
	Kind    string       `yaml:"kind"` // box, ball or polygon
	Ranges  [][2]float64 `yaml:"ranges,omitempty"`
	Center  []float64    `yaml:"center,omitempty"`
	Radius  float64      `yaml:"radius,omitempty"`
	Points  [][2]float64 `yaml:"points,omitempty"`
	Symbols []string     `yaml:"symbols,omitempty"`
}

// RequestSpec describes a transient service request. Its priority
// comes from the scenario's local specification.
type RequestSpec struct {
	Name   string     `yaml:"name"`
	Region RegionSpec `yaml:"region"`
}

// MissionSpec selects the global specification: a built-in fragment
// (persistent surveillance or co-safe reach) over visit/avoid symbols,
// or an automaton document produced by an external LTL translator.
type MissionSpec struct {
	Kind  string   `yaml:"kind"` // surveillance, reach or file
	Visit []string `yaml:"visit,omitempty"`
	Avoid []string `yaml:"avoid,omitempty"`
	File  string   `yaml:"file,omitempty"`
}

// RobotSpec describes the robot model.
type RobotSpec struct {
	Name          string    `yaml:"name"`
	Init          []float64 `yaml:"init"`
	StepSize      float64   `yaml:"step_size"`
	Diameter      float64   `yaml:"diameter"`
	SensingRadius float64   `yaml:"sensing_radius"`
}

// Scenario is the complete workspace and mission description, loadable
// from YAML. Host flags may override the planning knobs.
type Scenario struct {
	Name      string         `yaml:"name"`
	Boundary  RegionSpec     `yaml:"boundary"`
	Regions   []RegionSpec   `yaml:"regions"`
	Requests  []RequestSpec  `yaml:"requests"`
	Obstacles []RegionSpec   `yaml:"obstacles,omitempty"` // local obstacles
	Robot     RobotSpec      `yaml:"robot"`
	Mission   MissionSpec    `yaml:"mission"`
	LocalSpec map[string]int `yaml:"local_spec"`

	Iterations int        `yaml:"iterations"`
	Eta        [2]float64 `yaml:"eta"`
	Seed       int64      `yaml:"seed"`
	Cycles     int        `yaml:"cycles"`
	OutputDir  string     `yaml:"output_dir,omitempty"`
}

// LoadScenario reads and validates a scenario document.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario: read %s", path)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "scenario: decode")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the scenario document to path.
func (s *Scenario) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "scenario: encode")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "scenario: write %s", path)
}

// Validate checks scenario consistency.
func (s *Scenario) Validate() error {
	if s.Boundary.Kind != "box" {
		return errors.Errorf("scenario: boundary must be a box, got %q", s.Boundary.Kind)
	}
	if len(s.Robot.Init) != 2 {
		return errors.Errorf("scenario: robot init must have 2 coordinates, got %d", len(s.Robot.Init))
	}
	if s.Robot.StepSize <= 0 {
		return errors.Errorf("scenario: robot step size %g", s.Robot.StepSize)
	}
	if s.Eta[0] <= 0 || s.Eta[1] <= s.Eta[0] {
		return errors.Errorf("scenario: eta pair (%g, %g)", s.Eta[0], s.Eta[1])
	}
	for _, req := range s.Requests {
		if _, ok := s.LocalSpec[req.Name]; !ok {
			return errors.Errorf("scenario: request %q has no priority in local_spec", req.Name)
		}
	}
	switch s.Mission.Kind {
	case "surveillance", "reach":
		if len(s.Mission.Visit) == 0 {
			return errors.Errorf("scenario: %s mission with no visit symbols", s.Mission.Kind)
		}
	case "file":
		if s.Mission.File == "" {
			return errors.New("scenario: file mission with no automaton path")
		}
	default:
		return errors.Errorf("scenario: unknown mission kind %q", s.Mission.Kind)
	}
	return nil
}

// buildRegion turns a spec into a region value.
func buildRegion(spec RegionSpec) (core.Region, error) {
	switch spec.Kind {
	case "box":
		if len(spec.Ranges) != 2 {
			return nil, errors.Errorf("scenario: box needs 2 ranges, got %d", len(spec.Ranges))
		}
		return core.NewBoxRegion(spec.Ranges[0][0], spec.Ranges[0][1],
			spec.Ranges[1][0], spec.Ranges[1][1], spec.Symbols...)
	case "ball":
		if len(spec.Center) != 2 {
			return nil, errors.Errorf("scenario: ball center needs 2 coordinates, got %d", len(spec.Center))
		}
		return core.NewBallRegion(core.Conf{X: spec.Center[0], Y: spec.Center[1]},
			spec.Radius, spec.Symbols...)
	case "polygon":
		verts := make([]core.Conf, len(spec.Points))
		for i, p := range spec.Points {
			verts[i] = core.Conf{X: p[0], Y: p[1]}
		}
		return core.NewPolygonRegion(verts, spec.Symbols...)
	default:
		return nil, errors.Errorf("scenario: unknown region kind %q", spec.Kind)
	}
}

// World is a scenario instantiated into live objects. Planning runs in
// the expanded workspace; the nominal workspace is kept for rendering
// hosts.
type World struct {
	Workspace *core.Workspace
	Expanded  *core.Workspace
	Robot     *core.Robot
	Sensor    *core.Sensor
	Requests  []core.Request
}

// Build instantiates the scenario. The RNG seeds every sampling
// operation of the run.
func (s *Scenario) Build(rng *rand.Rand) (*World, error) {
	boundary, err := buildRegion(s.Boundary)
	if err != nil {
		return nil, err
	}
	wspace := core.NewWorkspace(boundary)
	for _, spec := range s.Regions {
		r, err := buildRegion(spec)
		if err != nil {
			return nil, err
		}
		wspace.AddRegion(r, false)
	}

	expanded, err := wspace.Expanded(s.Robot.Diameter / 2)
	if err != nil {
		return nil, err
	}

	robot := core.NewRobot(s.Robot.Name,
		core.Conf{X: s.Robot.Init[0], Y: s.Robot.Init[1]},
		expanded, s.Robot.StepSize, rng)
	robot.Diameter = s.Robot.Diameter
	robot.SensingRadius = s.Robot.SensingRadius

	var requests []core.Request
	for _, spec := range s.Requests {
		r, err := buildRegion(spec.Region)
		if err != nil {
			return nil, err
		}
		expanded.AddRegion(r, true)
		requests = append(requests, core.Request{
			Region:   r,
			Name:     spec.Name,
			Priority: s.LocalSpec[spec.Name],
		})
	}

	var obstacles []core.Region
	for _, spec := range s.Obstacles {
		r, err := buildRegion(spec)
		if err != nil {
			return nil, err
		}
		expanded.AddRegion(r, true)
		obstacles = append(obstacles, r)
	}

	sensor := core.NewSensor(robot, s.Robot.SensingRadius, requests, obstacles)
	return &World{
		Workspace: wspace,
		Expanded:  expanded,
		Robot:     robot,
		Sensor:    sensor,
		Requests:  requests,
	}, nil
}

// IJRRScenario is the persistent-surveillance case study: a 4.8 × 3.6
// workspace with four surveillance regions in the corners, four
// obstacles, and fire/survivor requests sensed on-line.
func IJRRScenario() *Scenario {
	return &Scenario{
		Name:     "ijrr-surveillance",
		Boundary: RegionSpec{Kind: "box", Ranges: [][2]float64{{0, 4.8}, {0, 3.6}}},
		Regions: []RegionSpec{
			{Kind: "box", Ranges: [][2]float64{{1.0, 2.0}, {0.2, 0.8}}, Symbols: []string{"r1"}},
			{Kind: "ball", Center: []float64{4.2, 0.7}, Radius: 0.3, Symbols: []string{"r2"}},
			{Kind: "box", Ranges: [][2]float64{{3.7, 4.5}, {1.5, 2.3}}, Symbols: []string{"r3"}},
			{Kind: "box", Ranges: [][2]float64{{0.7, 1.4}, {1.8, 2.3}}, Symbols: []string{"r4"}},
			{Kind: "polygon", Points: [][2]float64{{0.0, 1.6}, {0.7, 1.34}, {0.7, 1.19}, {0.0, 1.34}}, Symbols: []string{"o1"}},
			{Kind: "polygon", Points: [][2]float64{{1.3, 1.33}, {2.6, 1.2}, {2.19, 1.06}, {1.3, 1.1}}, Symbols: []string{"o2"}},
			{Kind: "polygon", Points: [][2]float64{{3.54, 1.27}, {4.8, 1.52}, {4.8, 1.3}, {3.44, 1.08}}, Symbols: []string{"o3"}},
			{Kind: "box", Ranges: [][2]float64{{0, 4.8}, {2.5, 3.6}}, Symbols: []string{"o4"}},
		},
		Requests: []RequestSpec{
			{Name: "fire", Region: RegionSpec{Kind: "ball", Center: []float64{3.24, 1.98}, Radius: 0.3, Symbols: []string{"fire"}}},
			{Name: "fire", Region: RegionSpec{Kind: "ball", Center: []float64{1.26, 0.48}, Radius: 0.18, Symbols: []string{"fire"}}},
			{Name: "survivor", Region: RegionSpec{Kind: "ball", Center: []float64{4.32, 1.48}, Radius: 0.27, Symbols: []string{"survivor"}}},
		},
		Robot: RobotSpec{
			Name:          "cozmo",
			Init:          []float64{2, 2},
			StepSize:      0.999,
			Diameter:      0.036,
			SensingRadius: 0.5,
		},
		Mission: MissionSpec{
			Kind:  "surveillance",
			Visit: []string{"r1", "r2", "r3", "r4"},
			Avoid: []string{"o1", "o2", "o3", "o4"},
		},
		LocalSpec: map[string]int{"survivor": 0, "fire": 1},
		Iterations: 1000,
		Eta:        [2]float64{0.5, 1.0},
		Seed:       1002,
		Cycles:     4,
	}
}

// BuildBuchi turns the scenario's mission into an automaton, unless
// the mission names an external automaton document to load instead.
func (s *Scenario) BuildBuchi() (*ltl.Buchi, error) {
	switch s.Mission.Kind {
	case "surveillance":
		return ltl.SurveillanceBuchi(s.Mission.Visit, s.Mission.Avoid), nil
	case "reach":
		return ltl.ReachBuchi(s.Mission.Visit, s.Mission.Avoid), nil
	case "file":
		return ltl.LoadBuchi(s.Mission.File)
	default:
		return nil, errors.Errorf("scenario: unknown mission kind %q", s.Mission.Kind)
	}
}
