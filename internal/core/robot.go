package core

import "math/rand"

// Robot is the holonomic point model the planners steer. It operates
// in the expanded workspace, so the footprint is already accounted for
// by region inflation.
type Robot struct {
	Name          string
	Init          Conf
	Current       Conf
	StepSize      float64
	Diameter      float64
	SensingRadius float64

	wspace *Workspace
	rng    *rand.Rand
}

// NewRobot creates a robot at init operating in the expanded
// workspace. The RNG is the planner's single-owner randomness source;
// seeding it once makes runs reproducible.
func NewRobot(name string, init Conf, wspace *Workspace, stepSize float64, rng *rand.Rand) *Robot {
	return &Robot{
		Name:     name,
		Init:     init,
		Current:  init,
		StepSize: stepSize,
		wspace:   wspace,
		rng:      rng,
	}
}

// Workspace returns the expanded workspace the robot plans in.
func (r *Robot) Workspace() *Workspace { return r.wspace }

// RNG exposes the robot's randomness source.
func (r *Robot) RNG() *rand.Rand { return r.rng }

// Sample draws a configuration uniformly: over the workspace boundary
// when local is false, over the part of the sensing disc inside the
// boundary when local is true.
func (r *Robot) Sample(local bool) Conf {
	if !local {
		return r.wspace.Boundary().Sample(r.rng)
	}
	disc := BallRegion{center: r.Current, radius: r.SensingRadius}
	for {
		p := disc.Sample(r.rng)
		if r.wspace.Boundary().Contains(p) {
			return p
		}
	}
}

// Steer returns the point on the segment [from,to] at distance
// min(StepSize, |to-from|) from from. When the target is within reach
// it is returned exactly, so callers can test arrival by equality.
func (r *Robot) Steer(from, to Conf) Conf {
	d := from.Dist(to)
	if d <= r.StepSize {
		return to
	}
	return from.Lerp(to, r.StepSize/d)
}

// IsSimpleSegment reports whether the open segment (a,b) crosses the
// boundary of at most one global labeled region, which makes the label
// of a product edge well-defined by the destination's proposition. A
// segment passing through a region with both endpoints outside crosses
// its boundary twice and is never simple.
func (r *Robot) IsSimpleSegment(a, b Conf) bool {
	crossings := 0
	for _, reg := range r.wspace.Regions(false) {
		ain, bin := reg.Contains(a), reg.Contains(b)
		switch {
		case ain != bin:
			crossings++
		case !ain && !bin && reg.IntersectsSegment(a, b):
			return false
		}
	}
	return crossings <= 1
}

// CollisionFreeSegment reports whether [a,b] avoids every obstacle.
func (r *Robot) CollisionFreeSegment(a, b Conf, obstacles []Region) bool {
	for _, o := range obstacles {
		if o.IntersectsSegment(a, b) {
			return false
		}
	}
	return true
}

// CollisionFree reports whether every consecutive segment of the path
// avoids every obstacle.
func (r *Robot) CollisionFree(path []Conf, obstacles []Region) bool {
	for i := 0; i+1 < len(path); i++ {
		if !r.CollisionFreeSegment(path[i], path[i+1], obstacles) {
			return false
		}
	}
	return true
}

// Symbols returns the propositions holding at c in the selected layer.
func (r *Robot) Symbols(c Conf, local bool) Symbols {
	return r.wspace.Symbols(c, local)
}

// Move places the robot at c.
func (r *Robot) Move(c Conf) {
	r.Current = c
}
