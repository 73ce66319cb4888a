package planner

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/ltl"
)

// RRG is the off-line global planner: a rapidly-exploring random graph
// over configuration space grown together with the incremental product
// automaton, until the product contains an accepting lasso.
type RRG struct {
	Robot   *core.Robot
	TS      *ltl.TS
	Checker *ltl.Product

	// EtaLo enforces minimum vertex spacing; EtaHi bounds edge length.
	// EtaLo ≈ EtaHi/2 is a safe planar default.
	EtaLo, EtaHi float64

	MaxIterations int
	Iteration     int

	// Deadline, when positive, bounds the wall-clock time of Solve.
	// It is checked between iterations, never mid-iteration.
	Deadline time.Duration

	Observer Observer
	Clock    clock.Clock
}

// NewRRG seeds the transition system and the checker with the robot's
// initial configuration and returns a configured planner.
func NewRRG(robot *core.Robot, checker *ltl.Product, iterations int, etaLo, etaHi float64) *RRG {
	sigma := robot.Symbols(robot.Init, false)
	ts := ltl.NewTS(robot.Init, sigma)
	checker.AddInitialState(robot.Init, sigma)
	return &RRG{
		Robot:         robot,
		TS:            ts,
		Checker:       checker,
		EtaLo:         etaLo,
		EtaHi:         etaHi,
		MaxIterations: iterations,
		Observer:      NopObserver{},
		Clock:         clock.New(),
	}
}

// Solve iterates until the checker holds a policy or the iteration cap
// is reached. On failure the grown TS and product are preserved and
// re-queryable.
func (p *RRG) Solve() error {
	start := p.Clock.Now()
	for p.Iteration = 1; p.Iteration <= p.MaxIterations; p.Iteration++ {
		if p.Deadline > 0 && p.Clock.Since(start) > p.Deadline {
			return ErrDeadlineExceeded
		}
		if p.Iterate() {
			p.Observer.OnPolicyFound(p.Iteration, p.TS.NumStates(), p.Checker.NumStates())
			return nil
		}
		p.Observer.OnIteration(p.Iteration, p.TS.NumStates(), p.Checker.NumStates())
	}
	if p.specMismatch() {
		return ErrSpecMismatch
	}
	return ErrNoSolution
}

// Iterate runs one forward and one backward extension and reports
// whether the checker now holds a policy. Staged TS states, TS edges
// and product edges are flushed together, so the TS-product coherence
// invariant holds at every iteration boundary.
func (p *RRG) Iterate() bool {
	if p.Checker.FoundPolicy() {
		return true
	}

	// forward extension
	q := map[core.Conf]core.Symbols{}
	var delta [][2]core.Conf
	var prodEdges []ltl.ProdEdge

	randConf := p.Robot.Sample(false)
	nearest := p.nearest(randConf)
	newConf := p.Robot.Steer(nearest, randConf)
	newProp := p.Robot.Symbols(newConf, false)

	for _, v := range p.far(newConf) {
		if !p.Robot.IsSimpleSegment(v, newConf) {
			continue
		}
		ep := p.Checker.Check(p.TS, v, newConf, newProp, true)
		if len(ep) == 0 {
			continue
		}
		q[newConf] = newProp
		delta = append(delta, [2]core.Conf{v, newConf})
		prodEdges = append(prodEdges, ep...)
	}

	for c, prop := range q {
		p.TS.AddState(c, prop)
	}
	for _, e := range delta {
		p.TS.AddEdge(e[0], e[1])
	}
	p.Checker.Update(prodEdges)

	// backward extension from the newly added states
	delta = delta[:0]
	prodEdges = prodEdges[:0]
	for newState := range q {
		for _, v := range p.near(newState) {
			if p.Robot.Steer(newState, v) != v {
				continue
			}
			if !p.Robot.IsSimpleSegment(newState, v) {
				continue
			}
			ep := p.Checker.Check(p.TS, newState, v, p.TS.Props(v), false)
			if len(ep) == 0 {
				continue
			}
			delta = append(delta, [2]core.Conf{newState, v})
			prodEdges = append(prodEdges, ep...)
		}
	}
	for _, e := range delta {
		p.TS.AddEdge(e[0], e[1])
	}
	p.Checker.Update(prodEdges)

	return p.Checker.FoundPolicy()
}

// nearest returns the TS vertex closest to c. Insertion order breaks
// ties, keeping seeded runs reproducible.
func (p *RRG) nearest(c core.Conf) core.Conf {
	states := p.TS.States()
	best := states[0]
	bestDist := best.Dist(c)
	for _, v := range states[1:] {
		if d := v.Dist(c); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

// far returns the TS vertices within EtaHi of c, or nothing when some
// vertex lies within EtaLo (dispersion rejection).
func (p *RRG) far(c core.Conf) []core.Conf {
	var out []core.Conf
	for _, v := range p.TS.States() {
		d := v.Dist(c)
		if d <= p.EtaLo {
			return nil
		}
		if d < p.EtaHi {
			out = append(out, v)
		}
	}
	return out
}

// near returns the TS vertices at distance 0 < d < EtaHi of c.
func (p *RRG) near(c core.Conf) []core.Conf {
	var out []core.Conf
	for _, v := range p.TS.States() {
		if d := v.Dist(c); d > 0 && d < p.EtaHi {
			out = append(out, v)
		}
	}
	return out
}

// specMismatch reports whether some TS vertex carries a proposition
// set that no edge of the automaton accepts.
func (p *RRG) specMismatch() bool {
	for _, v := range p.TS.States() {
		if !p.Checker.Buchi().Admits(p.TS.Props(v)) {
			return true
		}
	}
	return false
}
