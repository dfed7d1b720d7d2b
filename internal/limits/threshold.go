package limits

import "strconv"

// Threshold is a warning count bound: either a non-negative number or
// unbounded ("inf" in limit files). The zero value is Bound(0), which is
// also the fallback when no limit applies to an entry.
type Threshold struct {
	unbounded bool
	value     uint64
}

// Bound returns a finite threshold of n warnings.
func Bound(n uint64) Threshold {
	return Threshold{value: n}
}

// Unbounded returns the infinite threshold.
func Unbounded() Threshold {
	return Threshold{unbounded: true}
}

// IsUnbounded reports whether t is infinite.
func (t Threshold) IsUnbounded() bool {
	return t.unbounded
}

// Value returns the finite bound; ok is false for the unbounded threshold.
func (t Threshold) Value() (uint64, bool) {
	return t.value, !t.unbounded
}

// ExceededBy reports whether actual warnings violate the threshold. The
// unbounded threshold is never exceeded.
func (t Threshold) ExceededBy(actual uint64) bool {
	return !t.unbounded && actual > t.value
}

// Compare orders thresholds with unbounded first, then by value.
func (t Threshold) Compare(other Threshold) int {
	switch {
	case t.unbounded && other.unbounded:
		return 0
	case t.unbounded:
		return -1
	case other.unbounded:
		return 1
	case t.value < other.value:
		return -1
	case t.value > other.value:
		return 1
	default:
		return 0
	}
}

// String renders the threshold the way limit files spell it.
func (t Threshold) String() string {
	if t.unbounded {
		return "inf"
	}

	return strconv.FormatUint(t.value, 10)
}
