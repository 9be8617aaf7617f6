// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "specviz.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

// isolateConfigDirs keeps the default-location search away from any real
// user configuration.
func isolateConfigDirs(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("failed to change working directory: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadDefaults(t *testing.T) {
	isolateConfigDirs(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, float64(DefaultSampleRate), cfg.SampleRate)
	assert.Equal(t, DefaultWindowSize, cfg.WindowSize)
	assert.Equal(t, DefaultNumBars, cfg.NumBars)
	assert.Equal(t, DefaultNoiseThreshold, cfg.NoiseThreshold)
	assert.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
	assert.Equal(t, DefaultTickInterval, cfg.TickInterval)
	assert.Equal(t, SurfaceTerm, cfg.Surface)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeTempConfig(t, `
verbose: true
audio:
  input_device: 3
  output_device: 5
  sample_rate: 48000
spectrum:
  bars: 32
  noise_threshold: 0.1
display:
  surface: web
  tick_ms: 20
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, 3, cfg.InputDevice)
	assert.Equal(t, 5, cfg.OutputDevice)
	assert.Equal(t, 48000.0, cfg.SampleRate)
	assert.Equal(t, 32, cfg.NumBars)
	assert.Equal(t, 0.1, cfg.NoiseThreshold)
	assert.Equal(t, SurfaceWeb, cfg.Surface)
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, DefaultWindowSize, cfg.WindowSize)
	assert.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
	assert.Equal(t, DefaultCanvasWidth, cfg.CanvasWidth)
}

func TestLoadBadYAML(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestEnvOverrides(t *testing.T) {
	isolateConfigDirs(t)
	t.Setenv("SPECVIZ_VERBOSE", "true")
	t.Setenv("SPECVIZ_INPUT_DEVICE", "7")
	t.Setenv("SPECVIZ_SURFACE", "web")
	t.Setenv("SPECVIZ_TICK", "33ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Verbose)
	assert.Equal(t, 7, cfg.InputDevice)
	assert.Equal(t, SurfaceWeb, cfg.Surface)
	assert.Equal(t, 33*time.Millisecond, cfg.TickInterval)
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	isolateConfigDirs(t)
	t.Setenv("SPECVIZ_INPUT_DEVICE", "not-a-number")
	t.Setenv("SPECVIZ_TICK", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDeviceID, cfg.InputDevice)
	assert.Equal(t, DefaultTickInterval, cfg.TickInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"sample rate too low", func(c *Config) { c.SampleRate = 4000 }, "sample rate"},
		{"sample rate too high", func(c *Config) { c.SampleRate = 500000 }, "sample rate"},
		{"zero channels", func(c *Config) { c.Channels = 0 }, "channel count"},
		{"bad input device", func(c *Config) { c.InputDevice = -2 }, "input device"},
		{"bad output device", func(c *Config) { c.OutputDevice = -5 }, "output device"},
		{"window not power of two", func(c *Config) { c.WindowSize = 1000 }, "power of two"},
		{"window too large", func(c *Config) { c.WindowSize = 16384 }, "exceeds maximum"},
		{"zero bars", func(c *Config) { c.NumBars = 0 }, "bar count"},
		{"too many bars", func(c *Config) { c.NumBars = 1024 }, "bar count"},
		{"negative threshold", func(c *Config) { c.NoiseThreshold = -0.01 }, "noise threshold"},
		{"zero queue", func(c *Config) { c.QueueCapacity = 0 }, "queue capacity"},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, "tick interval"},
		{"unknown surface", func(c *Config) { c.Surface = "hologram" }, "unknown surface"},
		{"zero canvas", func(c *Config) { c.CanvasWidth = 0 }, "canvas dimensions"},
		{"gap swallows bar", func(c *Config) { c.BarGap = 13 }, "bar gap"},
		{"wav and demo", func(c *Config) { c.WavPath = "x.wav"; c.Demo = true }, "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestWindowSizeErrorSuggestsNextPowerOfTwo(t *testing.T) {
	cfg := NewConfig()
	cfg.WindowSize = 1000
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1024")
}
