// SPDX-License-Identifier: MIT
package dsp

// Gate zeroes, in place, every magnitude at or below threshold. Values
// strictly above it pass through unchanged: the gate removes noise floor
// energy without rescaling what remains, so a gated frame contains only
// exact zeros and untouched magnitudes.
func Gate(frame []float64, threshold float64) {
	for i, v := range frame {
		if v <= threshold {
			frame[i] = 0
		}
	}
}
