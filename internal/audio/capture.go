// SPDX-License-Identifier: MIT
/*
Package audio owns the PortAudio capture session and the alternative
sample sources that feed the analysis pipeline:
- Live capture with a non-blocking real-time callback
- Channel 0 extraction from interleaved input
- WAV file replay at capture cadence
- Synthesized demo signal for hardware-free runs

Thread safety:
- An atomic session flag gates the callback once Stop has been called
- Callback buffers are preallocated; the hot path never allocates
  proportional to its input
- A recover guard keeps panics from crossing the C callback boundary
*/
package audio

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"specviz/internal/config"
	"specviz/internal/log"
)

// Processor consumes one window of channel 0 samples per callback. The
// slice is only valid for the duration of the call; implementations that
// keep samples must copy them. Process runs on the real-time audio
// thread and must not block.
type Processor interface {
	Process(samples []float32)
}

// paStream is the slice of *portaudio.Stream the capture session uses,
// split out so tests can substitute a fake stream.
type paStream interface {
	Start() error
	Stop() error
	Close() error
}

var paOpenStream = func(params portaudio.StreamParameters, callback func([]float32)) (paStream, error) {
	return portaudio.OpenStream(params, callback)
}

// Capture owns one live input stream session. A Capture runs at most one
// session; construct a new one to capture again.
type Capture struct {
	inputID         int
	outputID        int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool

	processor Processor
	log       *logrus.Entry

	stream   paStream
	mono     []float32
	running  atomic.Bool
	stopOnce sync.Once
}

// NewCapture builds a capture session from the config without touching
// the audio hardware. PortAudio is first used in Start.
func NewCapture(cfg *config.Config, processor Processor, logger *logrus.Logger) *Capture {
	return &Capture{
		inputID:         cfg.InputDevice,
		outputID:        cfg.OutputDevice,
		channels:        cfg.Channels,
		sampleRate:      cfg.SampleRate,
		framesPerBuffer: cfg.WindowSize,
		lowLatency:      cfg.LowLatency,
		processor:       processor,
		log:             log.WithComponent(logger, "capture"),
		mono:            make([]float32, cfg.WindowSize),
	}
}

// Start resolves the configured input and output devices, opens the
// input stream and starts it. Any failure maps to ErrDeviceUnavailable.
func (c *Capture) Start() error {
	inputDevice, err := InputDevice(c.inputID)
	if err != nil {
		return err
	}
	outputDevice, err := OutputDevice(c.outputID)
	if err != nil {
		return err
	}

	latency := inputDevice.DefaultHighInputLatency
	if c.lowLatency {
		latency = inputDevice.DefaultLowInputLatency
	}

	c.log.WithFields(logrus.Fields{
		"input":  inputDevice.Name,
		"output": outputDevice.Name,
		"rate":   c.sampleRate,
		"window": c.framesPerBuffer,
	}).Debug("opening input stream")

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inputDevice,
			Channels: c.channels,
			Latency:  latency,
		},
		// The stream is input only. Both device halves of the
		// configuration are resolved above so a bad output index fails
		// here rather than being silently ignored.
		Output: portaudio.StreamDeviceParameters{
			Device:   nil,
			Channels: 0,
		},
		SampleRate:      c.sampleRate,
		FramesPerBuffer: c.framesPerBuffer,
	}

	stream, err := paOpenStream(params, c.process)
	if err != nil {
		return fmt.Errorf("open input stream: %w: %w", err, ErrDeviceUnavailable)
	}

	c.stream = stream
	c.running.Store(true)

	if err := stream.Start(); err != nil {
		c.running.Store(false)
		_ = stream.Close()
		c.stream = nil
		return fmt.Errorf("start input stream: %w: %w", err, ErrDeviceUnavailable)
	}

	c.log.WithField("device", inputDevice.Name).Info("capture started")
	return nil
}

// process is the PortAudio callback.
// Performance critical:
// - Runs on the real-time audio thread
// - Uses the preallocated mono buffer only
// - Returns immediately once the session flag is down, even while stream
//   teardown is still in flight
func (c *Capture) process(in []float32) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Error("audio callback panic recovered")
		}
	}()

	if !c.running.Load() {
		return
	}

	if c.channels == 1 {
		c.processor.Process(in)
		return
	}

	frames := len(in) / c.channels
	if frames > len(c.mono) {
		frames = len(c.mono)
	}
	mono := c.mono[:frames]
	for i := range mono {
		mono[i] = in[i*c.channels]
	}
	c.processor.Process(mono)
}

// Stop ends the session: the first call lowers the session flag, then
// synchronously stops and closes the stream. Later calls are no-ops.
// Teardown failures are logged as warnings and never propagated.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() {
		c.running.Store(false)

		if c.stream == nil {
			return
		}
		if err := c.stream.Stop(); err != nil && !isInvalidStreamState(err) {
			c.log.WithError(err).Warn("error stopping input stream")
		}
		if err := c.stream.Close(); err != nil {
			c.log.WithError(err).Warn("error closing input stream")
		}
		c.stream = nil
		c.log.Info("capture stopped")
	})
}

// isInvalidStreamState reports whether err stems from stopping a stream
// that is already stopped.
func isInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}
