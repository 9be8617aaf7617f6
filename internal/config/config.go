package config

import (
	"fmt"
	"time"

	"specviz/pkg/bitint"
)

// Core configuration constants that define the boundaries and defaults
// for the spectrum visualizer pipeline.
const (
	// Default values for the capture and analysis configuration
	DefaultSampleRate     = 44100                 // CD-quality audio
	DefaultChannels       = 2                     // Stereo stream, channel 0 analyzed
	DefaultWindowSize     = 1024                  // Samples per analysis window
	DefaultNumBars        = 60                    // Spectrum bins kept = bars drawn
	DefaultNoiseThreshold = 0.05                  // Magnitudes at or below become 0
	DefaultWindowFunc     = "none"                // FFT taper; none = raw bin magnitudes
	DefaultDeviceID       = MinDeviceID           // System default device
	DefaultQueueCapacity  = 100                   // Bounded frame queue slots
	DefaultTickInterval   = 16 * time.Millisecond // Render loop period (~60 fps)

	// Default values for the display surface
	DefaultSurface      = SurfaceTerm
	DefaultCanvasWidth  = 800
	DefaultCanvasHeight = 400
	DefaultBarGap       = 2 // Horizontal pixels between bars
	DefaultListenAddr   = ":8777"

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxWindowSize = 8192   // Maximum samples per window (power of 2)
)

// Display surface backends.
const (
	SurfaceTerm = "term" // ANSI terminal bars (default)
	SurfaceSDL  = "sdl"  // SDL window, requires -tags sdl
	SurfaceWeb  = "web"  // Headless websocket broadcast
)

// Config holds all runtime configuration options for the visualizer.
// It is assembled once from defaults, an optional YAML file, environment
// overrides and command line flags, then treated as immutable: components
// receive it at construction and never write to it.
type Config struct {
	// Audio Device Settings
	InputDevice  int     // Input device index (-1 = system default)
	OutputDevice int     // Output device index; required by the stream API, never read from
	SampleRate   float64 // Sample rate in Hz
	Channels     int     // Stream channel count; channel 0 is analyzed
	WindowSize   int     // Samples per analysis window (frames per buffer)
	LowLatency   bool    // Request low latency settings from the device

	// Spectrum Settings
	NumBars        int     // Number of FFT bins kept, lowest first
	NoiseThreshold float64 // Gate: magnitudes <= threshold become exactly 0
	WindowFunc     string  // FFT window function name

	// Pipeline Settings
	QueueCapacity int           // Bounded spectrum queue capacity
	TickInterval  time.Duration // Render loop period

	// Display Settings
	Surface      string // Surface backend: term, sdl or web
	CanvasWidth  int    // Surface width in pixels
	CanvasHeight int    // Surface height in pixels
	BarGap       int    // Horizontal gap between bars in pixels
	ListenAddr   string // Bind address for the web surface

	// Alternative Sample Sources
	WavPath string // Replay a WAV file instead of capturing
	Demo    bool   // Synthesize a sine sweep instead of capturing

	// Debug Options
	Verbose bool // Enable verbose logging
}

// NewConfig creates a new Config instance with default values.
// This is typically used as the base configuration before
// applying config file settings or command line arguments.
func NewConfig() *Config {
	return &Config{
		InputDevice:    DefaultDeviceID,
		OutputDevice:   DefaultDeviceID,
		SampleRate:     DefaultSampleRate,
		Channels:       DefaultChannels,
		WindowSize:     DefaultWindowSize,
		NumBars:        DefaultNumBars,
		NoiseThreshold: DefaultNoiseThreshold,
		WindowFunc:     DefaultWindowFunc,
		QueueCapacity:  DefaultQueueCapacity,
		TickInterval:   DefaultTickInterval,
		Surface:        DefaultSurface,
		CanvasWidth:    DefaultCanvasWidth,
		CanvasHeight:   DefaultCanvasHeight,
		BarGap:         DefaultBarGap,
		ListenAddr:     DefaultListenAddr,
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
// It is called once after all configuration layers have been applied.
func (c *Config) Validate() error {
	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("sample rate %.0f Hz out of range [%d, %d]", c.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Channels < 1 {
		return fmt.Errorf("channel count must be at least 1, got %d", c.Channels)
	}
	if c.InputDevice < MinDeviceID {
		return fmt.Errorf("invalid input device index: %d", c.InputDevice)
	}
	if c.OutputDevice < MinDeviceID {
		return fmt.Errorf("invalid output device index: %d", c.OutputDevice)
	}
	if !bitint.IsPowerOfTwo(c.WindowSize) {
		return fmt.Errorf("window size must be a power of two, got %d (next is %d)",
			c.WindowSize, bitint.NextPowerOfTwo(c.WindowSize))
	}
	if c.WindowSize > MaxWindowSize {
		return fmt.Errorf("window size %d exceeds maximum %d", c.WindowSize, MaxWindowSize)
	}
	if c.NumBars < 1 || c.NumBars > c.WindowSize/2+1 {
		return fmt.Errorf("bar count %d out of range [1, %d] for window size %d",
			c.NumBars, c.WindowSize/2+1, c.WindowSize)
	}
	if c.NoiseThreshold < 0 {
		return fmt.Errorf("noise threshold must be non-negative, got %g", c.NoiseThreshold)
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("queue capacity must be at least 1, got %d", c.QueueCapacity)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	switch c.Surface {
	case SurfaceTerm, SurfaceSDL, SurfaceWeb:
	default:
		return fmt.Errorf("unknown surface %q (want %s, %s or %s)", c.Surface, SurfaceTerm, SurfaceSDL, SurfaceWeb)
	}
	if c.CanvasWidth < 1 || c.CanvasHeight < 1 {
		return fmt.Errorf("canvas dimensions must be positive, got %dx%d", c.CanvasWidth, c.CanvasHeight)
	}
	if c.BarGap < 0 || c.BarGap >= c.CanvasWidth/c.NumBars {
		return fmt.Errorf("bar gap %d does not fit a %d px wide bar", c.BarGap, c.CanvasWidth/c.NumBars)
	}
	if c.WavPath != "" && c.Demo {
		return fmt.Errorf("wav replay and demo mode are mutually exclusive")
	}
	return nil
}
