package aggregate

import (
	"golang.org/x/exp/constraints"
)

// beats reports whether a candidate with metric m displaces the current best
// with metric best. keyLess says whether the candidate's key sorts first and
// only matters on a tie.
func beats[M constraints.Ordered](m, best M, keyLess bool) bool {
	return m > best || (m == best && keyLess)
}

// argMax returns the index in [0, n) with the largest metric. Among equal
// metrics the index whose key sorts first under keyLess wins, so the result
// does not depend on input order. It returns -1 when n is 0.
func argMax[M constraints.Ordered](n int, metric func(int) M, keyLess func(i, j int) bool) int {
	best := -1
	for i := range n {
		if best < 0 || beats(metric(i), metric(best), keyLess(i, best)) {
			best = i
		}
	}
	return best
}

// compare returns -1, 0 or +1 ordering a before, equal to, or after b.
func compare[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
