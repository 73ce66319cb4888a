// Command reactiveltl runs a reactive LTL planning experiment: the
// off-line RRG solve followed by the on-line surveillance loop with
// local request servicing. The engine itself has no CLI; this host
// owns argument parsing, logging and event rendering.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Charlie0257/reactive-ltl/internal/bridge"
	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/planner"
	"github.com/Charlie0257/reactive-ltl/internal/sim"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "scenario YAML (default: built-in IJRR case study)")
		iterations   = flag.Int("iterations", 0, "RRG iteration cap (0: scenario value)")
		etaLo        = flag.Float64("eta-lo", 0, "minimum vertex spacing (0: scenario value)")
		etaHi        = flag.Float64("eta-hi", 0, "maximum edge length (0: scenario value)")
		seed         = flag.Int64("seed", 0, "RNG seed (0: scenario value)")
		cycles       = flag.Int("cycles", 0, "surveillance cycles to run (0: scenario value)")
		outputDir    = flag.String("out", "", "artifact directory (default: scenario value)")
		localBudget  = flag.Int("local-budget", 0, "local sampling budget per step (0: unbounded)")
		listen       = flag.String("listen", "", "address for the WebSocket event bridge (empty: disabled)")
		verbose      = flag.Bool("verbose", false, "log every planner event")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	scenario := sim.IJRRScenario()
	if *scenarioPath != "" {
		scenario, err = sim.LoadScenario(*scenarioPath)
		if err != nil {
			sugar.Fatalw("load scenario", "error", err)
		}
	}
	sugar.Infow("scenario", "name", scenario.Name,
		"regions", len(scenario.Regions), "requests", len(scenario.Requests))

	observers := planner.MultiObserver{&logObserver{sugar: sugar, verbose: *verbose}}
	var eventBridge *bridge.Bridge
	if *listen != "" {
		eventBridge = bridge.New(scenario.Name)
		observers = append(observers, eventBridge)
		mux := http.NewServeMux()
		mux.Handle("/events", eventBridge.Handler())
		go func() {
			if err := http.ListenAndServe(*listen, mux); err != nil {
				sugar.Errorw("event bridge", "error", err)
			}
		}()
		sugar.Infow("event bridge listening", "addr", *listen)
	}

	simulator, err := sim.New(sim.Config{
		Scenario:    scenario,
		Iterations:  *iterations,
		EtaLo:       *etaLo,
		EtaHi:       *etaHi,
		Seed:        *seed,
		Cycles:      *cycles,
		OutputDir:   *outputDir,
		LocalBudget: *localBudget,
		Observer:    observers,
	})
	if err != nil {
		sugar.Fatalw("configure", "error", err)
	}

	if err := simulator.RunOffline(); err != nil {
		sugar.Fatalw("offline solve", "error", err,
			"iterations", simulator.Metrics.SolveIterations,
			"ts_states", simulator.Metrics.TSStates)
	}
	sugar.Infow("policy found",
		"iterations", simulator.Metrics.SolveIterations,
		"duration", simulator.Metrics.SolveDuration,
		"ts_states", simulator.Metrics.TSStates,
		"ts_edges", simulator.Metrics.TSEdges,
		"pa_states", simulator.Metrics.PAStates,
		"prefix", simulator.Metrics.PrefixLen,
		"suffix", simulator.Metrics.SuffixLen)

	if err := simulator.RunOnline(); err != nil {
		sugar.Fatalw("online execution", "error", err, "steps", simulator.Metrics.Steps)
	}
	sugar.Infow("run complete",
		"steps", simulator.Metrics.Steps,
		"cycles", simulator.Metrics.CyclesCompleted,
		"requests_serviced", simulator.Metrics.RequestsServiced,
		"local_trees", simulator.Metrics.LocalTreesGrown)

	if eventBridge != nil {
		eventBridge.Close()
	}
}

// logObserver renders planner events through zap. Iteration events are
// sampled unless verbose is set.
type logObserver struct {
	sugar   *zap.SugaredLogger
	verbose bool
}

func (o *logObserver) OnIteration(iteration, tsStates, paStates int) {
	if o.verbose || iteration%100 == 0 {
		o.sugar.Debugw("rrg iteration", "iteration", iteration,
			"ts_states", tsStates, "pa_states", paStates)
	}
}

func (o *logObserver) OnPolicyFound(iteration, tsStates, paStates int) {
	o.sugar.Infow("accepting lasso found", "iteration", iteration,
		"ts_states", tsStates, "pa_states", paStates)
}

func (o *logObserver) OnLocalPlan(step, treeSize int, duration time.Duration) {
	if treeSize > 0 || o.verbose {
		o.sugar.Debugw("local plan", "step", step, "tree_size", treeSize,
			"duration", duration)
	}
}

func (o *logObserver) OnRequestTracked(name string, priority int) {
	o.sugar.Infow("tracking request", "name", name, "priority", priority)
}

func (o *logObserver) OnStep(step int, conf core.Conf, potential int) {
	if o.verbose {
		o.sugar.Debugw("step", "step", step, "x", conf.X, "y", conf.Y,
			"potential", potential)
	}
}
