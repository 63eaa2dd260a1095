package world

import (
	"cmp"
	"strconv"
)

// CompareIDs orders node IDs for deterministic traversal: IDs that parse as
// integers come first in ascending numeric order, then all other IDs in
// lexicographic order. Numerically equal IDs ("7" and "007") fall back to a
// lexicographic comparison so the order stays total.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
