package planner

import (
	"time"

	"github.com/Charlie0257/reactive-ltl/internal/core"
)

// Observer receives structured planner events. The planners never log;
// hosts render the events (a logger, a WebSocket bridge) or ignore
// them with NopObserver.
type Observer interface {
	// OnIteration is called after each completed RRG iteration.
	OnIteration(iteration, tsStates, paStates int)

	// OnPolicyFound is called once the RRG commits an accepting lasso.
	OnPolicyFound(iteration int, tsStates, paStates int)

	// OnLocalPlan is called after each Execute call, with the size of
	// the local tree grown (-1 when the pending plan or the fast path
	// was reused) and the planning duration.
	OnLocalPlan(step, treeSize int, duration time.Duration)

	// OnRequestTracked is called when the local planner starts or
	// switches pursuit of a request.
	OnRequestTracked(name string, priority int)

	// OnStep is called with each configuration handed to the robot and
	// the potential recorded at the last globally-aligned waypoint.
	OnStep(step int, conf core.Conf, potential int)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnIteration(int, int, int)           {}
func (NopObserver) OnPolicyFound(int, int, int)         {}
func (NopObserver) OnLocalPlan(int, int, time.Duration) {}
func (NopObserver) OnRequestTracked(string, int)        {}
func (NopObserver) OnStep(int, core.Conf, int)          {}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnIteration(i, ts, pa int) {
	for _, o := range m {
		o.OnIteration(i, ts, pa)
	}
}

func (m MultiObserver) OnPolicyFound(i, ts, pa int) {
	for _, o := range m {
		o.OnPolicyFound(i, ts, pa)
	}
}

func (m MultiObserver) OnLocalPlan(step, size int, d time.Duration) {
	for _, o := range m {
		o.OnLocalPlan(step, size, d)
	}
}

func (m MultiObserver) OnRequestTracked(name string, priority int) {
	for _, o := range m {
		o.OnRequestTracked(name, priority)
	}
}

func (m MultiObserver) OnStep(step int, c core.Conf, potential int) {
	for _, o := range m {
		o.OnStep(step, c, potential)
	}
}
