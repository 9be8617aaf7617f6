// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with the nested section layout used by
// specviz.yaml. Durations are expressed in milliseconds so a config file
// can say `tick_ms: 16` without knowing about Go duration syntax.
type fileConfig struct {
	Verbose bool `yaml:"verbose"`

	Audio struct {
		InputDevice  int     `yaml:"input_device"`  // -1 for the system default
		OutputDevice int     `yaml:"output_device"` // -1 for the system default
		SampleRate   float64 `yaml:"sample_rate"`
		Channels     int     `yaml:"channels"`
		WindowSize   int     `yaml:"window_size"`
		LowLatency   bool    `yaml:"low_latency"`
	} `yaml:"audio"`

	Spectrum struct {
		Bars           int     `yaml:"bars"`
		NoiseThreshold float64 `yaml:"noise_threshold"`
		WindowFunc     string  `yaml:"window"`
		QueueCapacity  int     `yaml:"queue_capacity"`
	} `yaml:"spectrum"`

	Display struct {
		Surface string `yaml:"surface"`
		TickMs  int    `yaml:"tick_ms"`
		Width   int    `yaml:"width"`
		Height  int    `yaml:"height"`
		BarGap  int    `yaml:"bar_gap"`
		Listen  string `yaml:"listen"`
	} `yaml:"display"`
}

// Load builds a Config from defaults, an optional YAML file and SPECVIZ_*
// environment overrides, in that order. If path is empty the default
// locations are searched; a missing default file is not an error. Load does
// not validate: command line flags are applied after it, and Validate runs
// once on the final result.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		fc := fromConfig(cfg)
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		fc.into(cfg)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// findConfigFile returns the first existing default config location, or ""
// when none exists.
func findConfigFile() string {
	candidates := []string{"specviz.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "specviz", "config.yaml"))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// fromConfig seeds a fileConfig with the current values so that keys absent
// from the YAML document keep their defaults.
func fromConfig(c *Config) fileConfig {
	var fc fileConfig
	fc.Verbose = c.Verbose
	fc.Audio.InputDevice = c.InputDevice
	fc.Audio.OutputDevice = c.OutputDevice
	fc.Audio.SampleRate = c.SampleRate
	fc.Audio.Channels = c.Channels
	fc.Audio.WindowSize = c.WindowSize
	fc.Audio.LowLatency = c.LowLatency
	fc.Spectrum.Bars = c.NumBars
	fc.Spectrum.NoiseThreshold = c.NoiseThreshold
	fc.Spectrum.WindowFunc = c.WindowFunc
	fc.Spectrum.QueueCapacity = c.QueueCapacity
	fc.Display.Surface = c.Surface
	fc.Display.TickMs = int(c.TickInterval / time.Millisecond)
	fc.Display.Width = c.CanvasWidth
	fc.Display.Height = c.CanvasHeight
	fc.Display.BarGap = c.BarGap
	fc.Display.Listen = c.ListenAddr
	return fc
}

func (fc *fileConfig) into(c *Config) {
	c.Verbose = fc.Verbose
	c.InputDevice = fc.Audio.InputDevice
	c.OutputDevice = fc.Audio.OutputDevice
	c.SampleRate = fc.Audio.SampleRate
	c.Channels = fc.Audio.Channels
	c.WindowSize = fc.Audio.WindowSize
	c.LowLatency = fc.Audio.LowLatency
	c.NumBars = fc.Spectrum.Bars
	c.NoiseThreshold = fc.Spectrum.NoiseThreshold
	c.WindowFunc = fc.Spectrum.WindowFunc
	c.QueueCapacity = fc.Spectrum.QueueCapacity
	c.Surface = fc.Display.Surface
	c.TickInterval = time.Duration(fc.Display.TickMs) * time.Millisecond
	c.CanvasWidth = fc.Display.Width
	c.CanvasHeight = fc.Display.Height
	c.BarGap = fc.Display.BarGap
	c.ListenAddr = fc.Display.Listen
}

// applyEnvOverrides layers SPECVIZ_* environment variables over the current
// values. Unparseable values are ignored rather than fatal: the environment
// is the least explicit configuration source.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SPECVIZ_VERBOSE"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Verbose = b
		}
	}
	if val, ok := os.LookupEnv("SPECVIZ_INPUT_DEVICE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.InputDevice = n
		}
	}
	if val, ok := os.LookupEnv("SPECVIZ_SAMPLE_RATE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.SampleRate = f
		}
	}
	if val, ok := os.LookupEnv("SPECVIZ_SURFACE"); ok {
		c.Surface = val
	}
	if val, ok := os.LookupEnv("SPECVIZ_LISTEN"); ok {
		c.ListenAddr = val
	}
	if val, ok := os.LookupEnv("SPECVIZ_TICK"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.TickInterval = d
		}
	}
}
