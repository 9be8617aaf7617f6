// SPDX-License-Identifier: MIT

// Package dsp converts fixed-size sample windows into gated magnitude
// spectra. A Transform belongs to one producer goroutine (the audio
// callback) and owns preallocated workspaces, so the per-window path is
// allocation-free.
package dsp

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"specviz/pkg/bitint"
)

// workspace holds the preallocated buffers one transform call cycles through.
type workspace struct {
	input     []float64    // ...for windowed, widened input samples
	fftOutput []complex128 // ...for FFT complex output
	window    []float64    // ...for window function coefficients
}

// Transform computes the magnitude spectrum of one sample window: widen and
// taper the samples, run a real FFT, keep the magnitudes of the lowest
// numBins bins in bin order, and gate everything at or below the noise
// threshold to exactly 0. No normalization is applied; values above the
// threshold pass through unchanged. Not safe for concurrent use.
type Transform struct {
	windowSize int
	numBins    int
	sampleRate float64
	threshold  float64
	fft        *fourier.FFT
	workspace  workspace
}

// NewTransform builds a transform for windowSize samples keeping numBins
// output bins. The FFT plan and all buffers are sized here, once.
func NewTransform(windowSize, numBins int, sampleRate, threshold float64, win WindowFunc) (*Transform, error) {
	if !bitint.IsPowerOfTwo(windowSize) {
		return nil, fmt.Errorf("window size must be a power of 2, got %d", windowSize)
	}
	outputSize := windowSize/2 + 1
	if numBins < 1 || numBins > outputSize {
		return nil, fmt.Errorf("bin count %d out of range [1, %d]", numBins, outputSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("noise threshold must be non-negative, got %g", threshold)
	}

	return &Transform{
		windowSize: windowSize,
		numBins:    numBins,
		sampleRate: sampleRate,
		threshold:  threshold,
		fft:        fourier.NewFFT(windowSize),
		workspace: workspace{
			input:     make([]float64, windowSize),
			fftOutput: make([]complex128, outputSize),
			window:    win.Coefficients(windowSize),
		},
	}, nil
}

// SpectrumInto computes the spectrum of samples into dst, which must hold
// exactly NumBins values. Inputs shorter than the window size are zero
// padded; anything past the window size is ignored. Performs no heap
// allocation.
func (t *Transform) SpectrumInto(dst []float64, samples []float32) error {
	if len(dst) != t.numBins {
		return fmt.Errorf("destination length %d does not match bin count %d", len(dst), t.numBins)
	}

	n := len(samples)
	for i := 0; i < t.windowSize; i++ {
		if i < n {
			t.workspace.input[i] = float64(samples[i]) * t.workspace.window[i]
		} else {
			t.workspace.input[i] = 0
		}
	}

	t.fft.Coefficients(t.workspace.fftOutput, t.workspace.input)
	for i := range dst {
		dst[i] = cmplx.Abs(t.workspace.fftOutput[i])
	}
	Gate(dst, t.threshold)
	return nil
}

// Spectrum computes the spectrum of samples into a freshly allocated frame.
// Producers that hand frames to a queue use this form: each frame gets its
// own fixed-size backing array, so ownership transfers cleanly.
func (t *Transform) Spectrum(samples []float32) []float64 {
	dst := make([]float64, t.numBins)
	// Length matches by construction, the error path cannot trigger.
	_ = t.SpectrumInto(dst, samples)
	return dst
}

// WindowSize returns the number of samples consumed per call.
func (t *Transform) WindowSize() int {
	return t.windowSize
}

// NumBins returns the number of magnitude bins produced per call.
func (t *Transform) NumBins() int {
	return t.numBins
}

// BinFrequency returns the center frequency in Hz for an output bin index,
// or 0 for an index outside the output range.
func (t *Transform) BinFrequency(i int) float64 {
	if i < 0 || i >= len(t.workspace.fftOutput) {
		return 0
	}
	return float64(i) * (t.sampleRate / float64(t.windowSize))
}
