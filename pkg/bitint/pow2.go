// Package bitint provides the power-of-two helpers the FFT sizing code
// relies on. Both functions are branch-light, allocation-free and O(1),
// so they are safe to call anywhere, including validation on hot
// configuration paths.
package bitint

import "math/bits"

// IsPowerOfTwo reports whether n is a positive power of 2.
// A power of 2 has exactly one bit set, so n & (n-1) clears it to zero;
// any other positive number keeps at least one bit.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo returns the smallest power of 2 >= n. Exact powers of 2
// map to themselves (the size-1 subtraction before bits.Len is what keeps
// 8 from becoming 16). Zero and negative inputs map to 1.
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(n-1))
}
