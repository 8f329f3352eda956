package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Span returns the inclusive count of values in [lo, hi] as a uint32,
// order-insensitive. Span(0, 255) == 256.
func Span[T constraints.Unsigned](lo, hi T) uint32 {
	if hi < lo {
		lo, hi = hi, lo
	}
	return uint32(hi-lo) + 1
}
