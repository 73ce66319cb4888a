package ltl

import "errors"

var (
	// ErrNoPolicy is returned by GlobalPolicy when the product does not
	// yet contain an accepting lasso. Callers gate on FoundPolicy.
	ErrNoPolicy = errors.New("ltl: product contains no accepting lasso")

	// ErrNoPotential signals that ComputePotentials found no accepting
	// cycle. After a successful RRG run this indicates a defect in the
	// input automaton.
	ErrNoPotential = errors.New("ltl: no accepting cycle for potential computation")

	// ErrUnknownState is returned when a transition references a state
	// that was never declared.
	ErrUnknownState = errors.New("ltl: unknown automaton state")
)
