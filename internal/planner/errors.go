package planner

import "errors"

var (
	// ErrNoSolution is returned when the RRG exhausts its iteration
	// budget without a satisfying policy. Partial progress stays in the
	// TS and product and can be re-queried.
	ErrNoSolution = errors.New("planner: no satisfying policy found")

	// ErrSpecMismatch is surfaced at RRG termination when a TS vertex
	// carries a proposition set no Büchi edge accepts, which makes the
	// product disconnected by construction.
	ErrSpecMismatch = errors.New("planner: transition-system labels rejected by specification")

	// ErrLocalUnreachable is returned when the local planner exceeds
	// the caller-imposed sampling budget while tracking a request. The
	// caller may drop the request and resume the fast path.
	ErrLocalUnreachable = errors.New("planner: tracked request unreachable within sampling budget")

	// ErrDeadlineExceeded is returned when the RRG wall-clock deadline
	// expires between iterations.
	ErrDeadlineExceeded = errors.New("planner: deadline exceeded")
)
