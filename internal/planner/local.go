package planner

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Charlie0257/reactive-ltl/internal/core"
	"github.com/Charlie0257/reactive-ltl/internal/ltl"
)

// localNode is a vertex of the ephemeral tree grown per planning call.
// hit is the OR along the path of "local proposition contains the
// tracked request".
type localNode struct {
	prop      core.Symbols // global proposition
	buchi     BuchiSet
	hit       bool
	parent    core.Conf
	hasParent bool
}

// LocalTree is the ephemeral local transition system rooted at the
// current configuration. It is rebuilt on every planning call and
// dropped at its end.
type LocalTree struct {
	root  core.Conf
	nodes map[core.Conf]*localNode
	order []core.Conf
	edges [][2]core.Conf
}

func newLocalTree(root core.Conf, prop core.Symbols, buchi BuchiSet, hit bool) *LocalTree {
	t := &LocalTree{root: root, nodes: map[core.Conf]*localNode{}}
	t.nodes[root] = &localNode{prop: prop, buchi: buchi, hit: hit}
	t.order = append(t.order, root)
	return t
}

func (t *LocalTree) add(c core.Conf, prop core.Symbols, buchi BuchiSet, hit bool, parent core.Conf) {
	if _, ok := t.nodes[c]; ok {
		return
	}
	t.nodes[c] = &localNode{prop: prop, buchi: buchi, hit: hit, parent: parent, hasParent: true}
	t.order = append(t.order, c)
	t.edges = append(t.edges, [2]core.Conf{parent, c})
}

func (t *LocalTree) has(c core.Conf) bool {
	_, ok := t.nodes[c]
	return ok
}

// nearest returns the tree vertex closest to c, ties broken by
// insertion order.
func (t *LocalTree) nearest(c core.Conf) core.Conf {
	best := t.order[0]
	bestDist := best.Dist(c)
	for _, v := range t.order[1:] {
		if d := v.Dist(c); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best
}

// pathFromRoot returns the vertices from the root to c, root excluded.
func (t *LocalTree) pathFromRoot(c core.Conf) []core.Conf {
	var rev []core.Conf
	for cur := c; ; {
		n := t.nodes[cur]
		if !n.hasParent {
			break
		}
		rev = append(rev, cur)
		cur = n.parent
	}
	out := make([]core.Conf, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}

// ToTS converts the tree into a transition system for persistence.
func (t *LocalTree) ToTS() *ltl.TS {
	ts := ltl.NewTS(t.root, t.nodes[t.root].prop)
	for _, c := range t.order {
		ts.AddState(c, t.nodes[c].prop)
	}
	for _, e := range t.edges {
		ts.AddEdge(e[0], e[1])
	}
	return ts
}

// LocalPlanner is the on-line planner: each step it either forwards
// the robot along the frozen global policy or grows a short-horizon
// tree inside the sensing disc to service the highest-priority sensed
// request, guarded by the Büchi half-monitor.
type LocalPlanner struct {
	Checker *ltl.Product
	TS      *ltl.TS
	Robot   *core.Robot

	// Priorities maps local symbols to their priority (the local
	// specification); lower values are more important.
	Priorities map[string]int

	// Eta is the spacing of synthesized straight chains.
	Eta float64

	// MaxSamples bounds tree growth per planning call; zero means
	// unbounded. When exceeded while tracking a request the call
	// returns ErrLocalUnreachable.
	MaxSamples int

	Observer Observer
	Clock    clock.Clock

	traj       []core.Conf
	buchi      []BuchiSet
	potentials []int

	globalTarget core.Conf
	tracking     *core.Request
	plan         []core.Conf
	tree         *LocalTree

	requests  []core.Request
	obstacles []core.Region

	step      int
	Durations []time.Duration
	Sizes     []int
}

// NewLocalPlanner creates the on-line planner over a solved product.
// Potentials must already be computed.
func NewLocalPlanner(checker *ltl.Product, ts *ltl.TS, robot *core.Robot, priorities map[string]int) *LocalPlanner {
	initSet := BuchiSet{}
	for _, s := range checker.InitStates() {
		initSet[s.Q] = true
	}
	lp := &LocalPlanner{
		Checker:      checker,
		TS:           ts,
		Robot:        robot,
		Priorities:   priorities,
		Eta:          0.1,
		Observer:     NopObserver{},
		Clock:        clock.New(),
		traj:         []core.Conf{robot.Current},
		buchi:        []BuchiSet{initSet},
		globalTarget: robot.Init,
	}
	lp.potentials = []int{lp.actualPotential(robot.Init, initSet)}
	return lp
}

// Trajectory returns the configurations visited so far.
func (lp *LocalPlanner) Trajectory() []core.Conf { return lp.traj }

// BuchiStates returns the monitored state set at the end of the
// trajectory.
func (lp *LocalPlanner) BuchiStates() BuchiSet { return lp.lastBuchi() }

// GlobalTarget returns the TS vertex currently pursued.
func (lp *LocalPlanner) GlobalTarget() core.Conf { return lp.globalTarget }

// Tracking returns the currently pursued request, if any.
func (lp *LocalPlanner) Tracking() (core.Request, bool) {
	if lp.tracking == nil {
		return core.Request{}, false
	}
	return *lp.tracking, true
}

// LastTree returns the tree grown by the most recent planning call, or
// nil when the pending plan or the fast path was reused.
func (lp *LocalPlanner) LastTree() *LocalTree { return lp.tree }

// Execute consumes one sensing snapshot and returns the next
// configuration to move to. The snapshot is taken at entry; mid-call
// request changes are invisible by design.
func (lp *LocalPlanner) Execute(requests []core.Request, obstacles []core.Region) (core.Conf, error) {
	lp.requests = append([]core.Request(nil), requests...)
	lp.obstacles = append([]core.Region(nil), obstacles...)

	start := lp.Clock.Now()
	lp.tree = nil
	treeSize := -1

	current := lp.Robot.Current
	if lp.TS.HasState(current) {
		if target, ok := lp.minPotentialTarget(current); ok {
			lp.globalTarget = target
		}
	}

	if !lp.checkLocalPlan() {
		plan, size, err := lp.generateLocalPlan()
		if err != nil {
			return core.Conf{}, err
		}
		lp.plan = plan
		treeSize = size
	}

	duration := lp.Clock.Since(start)
	lp.Durations = append(lp.Durations, duration)
	lp.Sizes = append(lp.Sizes, treeSize)
	lp.Observer.OnLocalPlan(lp.step, treeSize, duration)

	lp.advance()
	next := lp.plan[0]
	lp.plan = lp.plan[1:]
	lp.Observer.OnStep(lp.step, next, lp.potentials[len(lp.potentials)-1])
	lp.step++
	return next, nil
}

// advance folds the upcoming configuration into the trajectory state:
// the half-monitor propagates the Büchi set, and the potential is
// recorded at globally-aligned waypoints.
func (lp *LocalPlanner) advance() {
	next := lp.plan[0]
	prop := lp.Robot.Symbols(next, false)
	prev := lp.Robot.Symbols(lp.Robot.Current, false)
	b := Monitor(lp.lastBuchi(), lp.Checker.Buchi(), prev, prop)
	lp.traj = append(lp.traj, next)
	lp.buchi = append(lp.buchi, b)
	if lp.TS.HasState(next) {
		lp.potentials = append(lp.potentials, lp.actualPotential(next, b))
	}
}

func (lp *LocalPlanner) lastBuchi() BuchiSet {
	return lp.buchi[len(lp.buchi)-1]
}

// LastPotential returns the potential recorded at the most recent
// globally-aligned waypoint.
func (lp *LocalPlanner) LastPotential() int {
	return lp.lastPotential()
}

// AtAccepting reports whether the last trajectory waypoint pairs with
// an accepting product vertex on the suffix cycle. Hosts use it to
// count completed surveillance laps.
func (lp *LocalPlanner) AtAccepting() bool {
	x := lp.traj[len(lp.traj)-1]
	if !lp.TS.HasState(x) {
		return false
	}
	for q := range lp.lastBuchi() {
		s := ltl.ProdState{X: x, Q: q}
		if lp.Checker.Has(s) && lp.Checker.IsAccepting(s) && lp.Checker.Potential(s) == 0 {
			return true
		}
	}
	return false
}

func (lp *LocalPlanner) lastPotential() int {
	return lp.potentials[len(lp.potentials)-1]
}

// actualPotential returns the minimum potential over the product
// vertices pairing x with a monitored Büchi state.
func (lp *LocalPlanner) actualPotential(x core.Conf, b BuchiSet) int {
	best := ltl.PotentialInf
	for q := range b {
		s := ltl.ProdState{X: x, Q: q}
		if !lp.Checker.Has(s) {
			continue
		}
		if d := lp.Checker.Potential(s); d < best {
			best = d
		}
	}
	return best
}

// minPotentialTarget picks the next global waypoint: the TS successor
// minimizing product potential over the product edges leaving the
// monitored states at x. When both the current potential and the best
// successor potential are zero, that best successor is excluded and the
// minimum is re-taken over the remaining candidates, which may still be
// zero.
func (lp *LocalPlanner) minPotentialTarget(x core.Conf) (core.Conf, bool) {
	var candidates []ltl.ProdState
	for q := range lp.lastBuchi() {
		s := ltl.ProdState{X: x, Q: q}
		if !lp.Checker.Has(s) {
			continue
		}
		candidates = append(candidates, lp.Checker.Successors(s)...)
	}
	if len(candidates) == 0 {
		return core.Conf{}, false
	}
	best, ok := minPotentialState(lp.Checker, candidates, nil)
	if !ok {
		return core.Conf{}, false
	}
	// on the suffix cycle a zero-potential successor may close no
	// progress; drop it and take the next best to avoid livelock
	if lp.lastPotential() == 0 && lp.Checker.Potential(best) == 0 {
		if next, ok := minPotentialState(lp.Checker, candidates, &best); ok {
			best = next
		}
	}
	return best.X, true
}

// minPotentialState returns the candidate of minimum potential,
// skipping the excluded state. Ties go to the lexicographically
// smaller state.
func minPotentialState(checker *ltl.Product, candidates []ltl.ProdState, exclude *ltl.ProdState) (ltl.ProdState, bool) {
	var best ltl.ProdState
	bestPot := ltl.PotentialInf
	found := false
	for _, s := range candidates {
		if exclude != nil && s == *exclude {
			continue
		}
		pot := checker.Potential(s)
		if !found || pot < bestPot || (pot == bestPot && s.Less(best)) {
			best, bestPot, found = s, pot, true
		}
	}
	return best, found
}

// checkLocalPlan decides whether the pending plan is still valid. It
// also sets or clears the tracked request from the current snapshot.
func (lp *LocalPlanner) checkLocalPlan() bool {
	if len(lp.requests) > 0 {
		best := lp.requests[0]
		for _, r := range lp.requests[1:] {
			if r.Priority < best.Priority {
				best = r
			}
		}
		if lp.tracking == nil || lp.tracking.Name != best.Name {
			lp.Observer.OnRequestTracked(best.Name, best.Priority)
		}
		lp.tracking = &best
		return lp.planHitsTracked()
	}
	lp.tracking = nil
	if len(lp.plan) == 0 {
		return false
	}
	return lp.Robot.CollisionFree(lp.plan, lp.obstacles)
}

// planHitsTracked reports whether the pending plan visits a
// configuration whose local proposition contains the tracked request.
func (lp *LocalPlanner) planHitsTracked() bool {
	if len(lp.plan) == 0 {
		return false
	}
	for _, c := range lp.plan {
		if lp.Robot.Symbols(c, true).Has(lp.tracking.Name) {
			return true
		}
	}
	return false
}

// generateLocalPlan builds the next plan: the straight chain to the
// global target when nothing is sensed, otherwise a monitored tree
// grown inside the sensing disc.
func (lp *LocalPlanner) generateLocalPlan() ([]core.Conf, int, error) {
	current := lp.Robot.Current

	// fast path
	if len(lp.requests) == 0 &&
		lp.Robot.IsSimpleSegment(current, lp.globalTarget) &&
		lp.Robot.CollisionFreeSegment(current, lp.globalTarget, lp.obstacles) {
		if plan := lp.chain(current, lp.globalTarget); len(plan) > 0 {
			return plan, -1, nil
		}
	}

	prop := lp.Robot.Symbols(current, false)
	localProp := lp.Robot.Symbols(current, true)
	hit := lp.tracking != nil && localProp.Has(lp.tracking.Name)
	tree := newLocalTree(current, prop, lp.lastBuchi(), hit)

	dest := current
	samples := 0
	for !lp.accept(tree, dest) {
		if lp.MaxSamples > 0 && samples >= lp.MaxSamples {
			return nil, tree.size(), ErrLocalUnreachable
		}
		samples++

		randConf := lp.Robot.Sample(true)
		src := tree.nearest(randConf)
		dest = lp.Robot.Steer(src, randConf)
		if tree.has(dest) {
			continue
		}
		if !lp.Robot.IsSimpleSegment(src, dest) {
			dest = current
			continue
		}
		srcNode := tree.nodes[src]
		destProp := lp.Robot.Symbols(dest, false)
		b := Monitor(srcNode.buchi, lp.Checker.Buchi(), srcNode.prop, destProp)
		if len(b) == 0 || !lp.Robot.CollisionFreeSegment(src, dest, lp.obstacles) {
			dest = current
			continue
		}
		destHit := srcNode.hit
		if lp.tracking != nil && lp.Robot.Symbols(dest, true).Has(lp.tracking.Name) {
			destHit = true
		}
		tree.add(dest, destProp, b, destHit, src)
	}

	lp.tree = tree
	plan := append(tree.pathFromRoot(dest), lp.chain(dest, lp.globalTarget)...)
	return plan, tree.size(), nil
}

// accept tests whether dest closes a valid local plan: it must not be
// a global TS vertex, must have hit the tracked request if one is
// pursued, and must reconnect to the global target over a simple,
// collision-free segment.
func (lp *LocalPlanner) accept(tree *LocalTree, dest core.Conf) bool {
	if !tree.has(dest) {
		return false
	}
	if lp.TS.HasState(dest) {
		return false
	}
	if lp.tracking != nil && !tree.nodes[dest].hit {
		return false
	}
	return lp.Robot.IsSimpleSegment(dest, lp.globalTarget) &&
		lp.Robot.CollisionFreeSegment(dest, lp.globalTarget, lp.obstacles)
}

// chain synthesizes a straight run of configurations from a to b at
// Eta spacing, excluding a and ending exactly at b.
func (lp *LocalPlanner) chain(a, b core.Conf) []core.Conf {
	dist := a.Dist(b)
	if dist == 0 {
		return nil
	}
	var out []core.Conf
	for t := lp.Eta / dist; t < 1; t += lp.Eta / dist {
		out = append(out, a.Lerp(b, t))
	}
	out = append(out, b)
	return out
}

func (t *LocalTree) size() int { return len(t.order) }
