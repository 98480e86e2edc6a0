package util

import "math"

// SafeAdd returns a+b and checks for overflow
func SafeAdd(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// SafeInc returns n+1, second return value is false when n is already at max value.
func SafeInc(n uint64) (uint64, bool) {
	return SafeAdd(n, 1)
}
