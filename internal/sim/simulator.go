package sim

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/ltl"
	"github.com/Charlie0257/reactive-ltl/internal/planner"
)

// Config ties a scenario to planner knobs and host hooks. Zero values
// of Iterations, EtaLo, EtaHi, Seed, Cycles and OutputDir fall back to
// the scenario's own settings; a zero LocalEta becomes 0.1 and a zero
// LocalBudget leaves local sampling unbounded.
type Config struct {
	Scenario *Scenario
	Buchi    *ltl.Buchi // nil: built from the scenario mission

	Iterations  int
	EtaLo       float64
	EtaHi       float64
	Seed        int64
	Cycles      int
	OutputDir   string
	LocalEta    float64
	LocalBudget int
	// MaxSteps bounds the on-line loop (0: 500 × cycles).
	MaxSteps int

	Observer planner.Observer
	Clock    clock.Clock
}

// Metrics aggregates one run.
type Metrics struct {
	RunID string `yaml:"run_id"`

	SolveIterations int           `yaml:"solve_iterations"`
	SolveDuration   time.Duration `yaml:"solve_duration"`
	TSStates        int           `yaml:"ts_states"`
	TSEdges         int           `yaml:"ts_edges"`
	PAStates        int           `yaml:"pa_states"`
	PrefixLen       int           `yaml:"prefix_len"`
	SuffixLen       int           `yaml:"suffix_len"`

	Steps             int `yaml:"steps"`
	CyclesCompleted   int `yaml:"cycles_completed"`
	RequestsServiced  int `yaml:"requests_serviced"`
	LocalTreesGrown   int `yaml:"local_trees_grown"`
	LocalTreeMaxNodes int `yaml:"local_tree_max_nodes"`
}

// Simulator owns one full run: off-line solve, potential computation,
// then the on-line loop alternating sense, execute and move, one tick
// per physical step.
type Simulator struct {
	cfg     Config
	world   *World
	buchi   *ltl.Buchi
	rng     *rand.Rand
	clock   clock.Clock
	obs     planner.Observer
	Metrics Metrics

	RRG   *planner.RRG
	Local *planner.LocalPlanner

	Prefix []core.Conf
	Suffix []core.Conf
}

// New builds a simulator from the configuration.
func New(cfg Config) (*Simulator, error) {
	if cfg.Scenario == nil {
		return nil, errors.New("sim: nil scenario")
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = cfg.Scenario.Iterations
	}
	if cfg.EtaLo == 0 {
		cfg.EtaLo = cfg.Scenario.Eta[0]
	}
	if cfg.EtaHi == 0 {
		cfg.EtaHi = cfg.Scenario.Eta[1]
	}
	if cfg.Seed == 0 {
		cfg.Seed = cfg.Scenario.Seed
	}
	if cfg.Cycles == 0 {
		cfg.Cycles = cfg.Scenario.Cycles
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.Scenario.OutputDir
	}
	if cfg.LocalEta == 0 {
		cfg.LocalEta = 0.1
	}
	if cfg.Observer == nil {
		cfg.Observer = planner.NopObserver{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	buchi := cfg.Buchi
	if buchi == nil {
		var err error
		buchi, err = cfg.Scenario.BuildBuchi()
		if err != nil {
			return nil, err
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	world, err := cfg.Scenario.Build(rng)
	if err != nil {
		return nil, err
	}

	return &Simulator{
		cfg:   cfg,
		world: world,
		buchi: buchi,
		rng:   rng,
		clock: cfg.Clock,
		obs:   cfg.Observer,
	}, nil
}

// World returns the instantiated scenario.
func (s *Simulator) World() *World { return s.world }

// RunOffline grows the RRG until a policy exists, computes potentials
// and extracts the lasso. Artifacts are persisted when an output
// directory is configured.
func (s *Simulator) RunOffline() error {
	s.Metrics.RunID = uuid.NewString()

	checker := ltl.NewProduct(s.buchi)
	s.RRG = planner.NewRRG(s.world.Robot, checker, s.cfg.Iterations, s.cfg.EtaLo, s.cfg.EtaHi)
	s.RRG.Observer = s.obs
	s.RRG.Clock = s.clock

	start := s.clock.Now()
	err := s.RRG.Solve()
	s.Metrics.SolveDuration = s.clock.Since(start)
	s.Metrics.SolveIterations = s.RRG.Iteration
	s.Metrics.TSStates = s.RRG.TS.NumStates()
	s.Metrics.TSEdges = s.RRG.TS.NumEdges()
	s.Metrics.PAStates = checker.NumStates()
	if err != nil {
		return err
	}

	if !checker.ComputePotentials() {
		return ltl.ErrNoPotential
	}
	prefix, suffix, err := checker.GlobalPolicy(s.RRG.TS)
	if err != nil {
		return err
	}
	s.Prefix, s.Suffix = prefix, suffix
	s.Metrics.PrefixLen = len(prefix)
	s.Metrics.SuffixLen = len(suffix)

	s.Local = planner.NewLocalPlanner(checker, s.RRG.TS, s.world.Robot, s.cfg.Scenario.LocalSpec)
	s.Local.Eta = s.cfg.LocalEta
	s.Local.MaxSamples = s.cfg.LocalBudget
	s.Local.Observer = s.obs
	s.Local.Clock = s.clock

	return s.persistOffline()
}

// RunOnline executes the sense → execute → move loop until the suffix
// cycle completes the configured number of times.
func (s *Simulator) RunOnline() error {
	if s.Local == nil {
		return errors.New("sim: RunOnline before RunOffline")
	}
	robot := s.world.Robot

	maxSteps := s.cfg.MaxSteps
	if maxSteps == 0 {
		maxSteps = 500 * s.cfg.Cycles
	}

	// lap counting: an "arrival" is a globally-aligned waypoint whose
	// monitored set holds an accepting product vertex of the suffix
	// cycle. The first arrival completes the prefix; each further
	// arrival event completes one suffix lap.
	arrivals := 0
	prevAccepting := false
	var prevVertex core.Conf
	havePrev := false

	for s.Metrics.CyclesCompleted < s.cfg.Cycles && s.Metrics.Steps < maxSteps {
		requests, obstacles := s.world.Sensor.Sense()
		next, err := s.Local.Execute(requests, obstacles)
		if err != nil {
			return err
		}
		robot.Move(next)
		s.Metrics.Steps++

		if size := lastSize(s.Local.Sizes); size > 0 {
			s.Metrics.LocalTreesGrown++
			if size > s.Metrics.LocalTreeMaxNodes {
				s.Metrics.LocalTreeMaxNodes = size
			}
			if err := s.persistLocalTree(); err != nil {
				return err
			}
		}

		if s.RRG.TS.HasState(next) {
			accepting := s.Local.AtAccepting()
			if accepting && (!prevAccepting || (havePrev && prevVertex != next)) {
				arrivals++
				if arrivals > 1 {
					s.Metrics.CyclesCompleted = arrivals - 1
				}
			}
			prevAccepting = accepting
			prevVertex = next
			havePrev = true
		}
	}
	s.Metrics.RequestsServiced = s.world.Sensor.Serviced()
	return s.persistMetrics()
}

// Run performs the complete off-line plus on-line experiment.
func (s *Simulator) Run() error {
	if err := s.RunOffline(); err != nil {
		return err
	}
	return s.RunOnline()
}

func lastSize(sizes []int) int {
	if len(sizes) == 0 {
		return -1
	}
	return sizes[len(sizes)-1]
}

// solutionDoc is the persisted global policy.
type solutionDoc struct {
	RunID  string      `yaml:"run_id"`
	Prefix []core.Conf `yaml:"prefix"`
	Suffix []core.Conf `yaml:"suffix"`
}

func (s *Simulator) persistOffline() error {
	if s.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return errors.Wrap(err, "sim: output dir")
	}
	if err := ltl.SaveTS(s.RRG.TS, filepath.Join(s.cfg.OutputDir, "ts.yaml")); err != nil {
		return err
	}
	doc := solutionDoc{RunID: s.Metrics.RunID, Prefix: s.Prefix, Suffix: s.Suffix}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, "sim: encode solution")
	}
	path := filepath.Join(s.cfg.OutputDir, "solution.yaml")
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "sim: write %s", path)
}

// persistLocalTree dumps the tree grown by the last Execute call,
// numbered by planning step.
func (s *Simulator) persistLocalTree() error {
	if s.cfg.OutputDir == "" || s.Local.LastTree() == nil {
		return nil
	}
	name := fmt.Sprintf("lts_%04d.yaml", len(s.Local.Sizes)-1)
	return ltl.SaveTS(s.Local.LastTree().ToTS(), filepath.Join(s.cfg.OutputDir, name))
}

func (s *Simulator) persistMetrics() error {
	if s.cfg.OutputDir == "" {
		return nil
	}
	data, err := yaml.Marshal(&s.Metrics)
	if err != nil {
		return errors.Wrap(err, "sim: encode metrics")
	}
	path := filepath.Join(s.cfg.OutputDir, "metrics.yaml")
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "sim: write %s", path)
}
