// SPDX-License-Identifier: MIT

// Package spectrum defines the frame type flowing through the pipeline and
// the bounded queue that carries frames from the audio callback to the
// render loop.
package spectrum

// Frame is one gated magnitude spectrum: index i holds the magnitude of
// FFT bin i. A frame pushed into a Queue is owned by the queue until the
// consumer pops it; the producer must not retain or reuse its backing
// array.
type Frame []float64

// IsZero reports whether every magnitude in the frame is exactly zero.
// Silence and fully gated windows produce zero frames, which the bar
// mapper collapses without rescaling.
func (f Frame) IsZero() bool {
	for _, v := range f {
		if v != 0 {
			return false
		}
	}
	return true
}

// Peak returns the largest magnitude in the frame, 0 for an empty or
// all-zero frame.
func (f Frame) Peak() float64 {
	peak := 0.0
	for _, v := range f {
		if v > peak {
			peak = v
		}
	}
	return peak
}
