package ltl

import (
	"fmt"
	"sort"
)

// SurveillanceBuchi builds the automaton for persistent surveillance:
// [] ( <>v1 && ... && <>vn && !(a1 || ... || am) ). States track the
// subset of visit symbols still pending; reaching the empty subset is
// accepting and resets the obligation, which makes every visit symbol
// recur infinitely often.
func SurveillanceBuchi(visit, avoid []string) *Buchi {
	return pendingSetBuchi(visit, avoid, true)
}

// ReachBuchi builds the automaton for the co-safe conjunction
// <>v1 && ... && <>vn (optionally under a global avoidance set). The
// empty pending subset is accepting and absorbing.
func ReachBuchi(visit, avoid []string) *Buchi {
	return pendingSetBuchi(visit, avoid, false)
}

// pendingSetBuchi enumerates subsets of the visit alphabet as states.
// With recurrent set, the accepting empty subset rearms to the full
// obligation; otherwise it self-loops.
func pendingSetBuchi(visit, avoid []string, recurrent bool) *Buchi {
	visit = append([]string(nil), visit...)
	sort.Strings(visit)
	b := NewBuchi()
	n := len(visit)
	full := (1 << n) - 1

	name := func(mask int) string {
		if mask == 0 {
			return "accept"
		}
		return fmt.Sprintf("pending_%d", mask)
	}
	for mask := 0; mask <= full; mask++ {
		b.AddState(name(mask), mask == full, mask == 0)
	}

	// remaining(mask, seen) clears every pending symbol present in the
	// guard's positive atoms. One edge per (mask, subset-of-mask seen).
	for mask := 0; mask <= full; mask++ {
		src := mask
		if mask == 0 && recurrent {
			src = full // rearmed obligation
		}
		for seen := 0; seen <= full; seen++ {
			if seen&src != seen {
				continue
			}
			next := src &^ seen
			g := Guard{None: append([]string(nil), avoid...)}
			for i := 0; i < n; i++ {
				if seen&(1<<i) != 0 {
					g.All = append(g.All, visit[i])
				}
			}
			_ = b.AddTransition(name(mask), name(next), g)
		}
	}
	return b
}
