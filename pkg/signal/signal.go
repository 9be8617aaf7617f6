// Package signal generates deterministic float32 test and demo waveforms
// in the sample format the capture pipeline consumes.
package signal

import "math"

// Sine returns size samples of a frequency Hz sine at 0.9 amplitude.
func Sine(size int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * 0.9)
	}
	return buffer
}

// Harmonics returns size samples of a 440 Hz fundamental blended with its
// second and third harmonics, a rough stand-in for tonal program material.
func Harmonics(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		s := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		buffer[i] = float32(s * 0.9)
	}
	return buffer
}

// Silence returns size zero samples.
func Silence(size int) []float32 {
	return make([]float32, size)
}

// PeakBin returns the index of the largest magnitude in
// magnitudes[startBin:endBin+1]. Out-of-range bounds are clamped.
func PeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}

// Oscillator produces a sine with phase continuity across successive Fill
// calls, so windowed consumers see one unbroken tone even when the
// frequency moves between windows.
type Oscillator struct {
	sampleRate float64
	frequency  float64
	amplitude  float64
	phase      float64
}

// NewOscillator returns an oscillator at the given frequency and amplitude.
func NewOscillator(sampleRate, frequency, amplitude float64) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		frequency:  frequency,
		amplitude:  amplitude,
	}
}

// SetFrequency retunes the oscillator. The running phase is preserved, so
// retuning never produces a click.
func (o *Oscillator) SetFrequency(hz float64) {
	o.frequency = hz
}

// Frequency returns the current frequency in Hz.
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// Fill writes len(buf) samples, advancing the phase.
func (o *Oscillator) Fill(buf []float32) {
	step := o.phaseStep()
	for i := range buf {
		buf[i] = float32(math.Sin(o.phase) * o.amplitude)
		o.phase += step
	}
	// Keep the accumulator small; a float64 loses precision as it grows.
	o.phase = math.Mod(o.phase, 2*math.Pi)
}

func (o *Oscillator) phaseStep() float64 {
	return 2 * math.Pi * o.frequency / o.sampleRate
}
