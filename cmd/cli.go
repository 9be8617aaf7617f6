// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"specviz/internal/audio"
	"specviz/internal/config"
	"specviz/internal/tui"
	"specviz/pkg/build"
)

// Execute parses the command line over the layered configuration
// (defaults, optional YAML file, SPECVIZ_* environment, flags last) and
// runs one-off subcommands in place. It reports the final configuration
// and whether the caller should start the visualizer.
func Execute(args []string, out io.Writer) (*config.Config, bool, error) {
	var (
		configPath string
		runViz     bool
		cfg        *config.Config
	)

	// flagCfg receives flag values; only flags the user actually set
	// are copied over the loaded configuration.
	flagCfg := config.NewConfig()
	info := build.Current()

	rootCmd := &cobra.Command{
		Use:           "specviz",
		Short:         "Real-time audio spectrum visualizer",
		Version:       info.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, loaded, flagCfg)
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			runViz = true
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a specviz.yaml config file")

	// Audio device configuration
	pf.IntVarP(&flagCfg.InputDevice, "device", "d", flagCfg.InputDevice,
		"Input device ID. Use 'list' to see available devices (-1 = system default)")
	pf.IntVar(&flagCfg.OutputDevice, "output-device", flagCfg.OutputDevice,
		"Output device ID (-1 = system default)")
	pf.Float64VarP(&flagCfg.SampleRate, "sample-rate", "s", flagCfg.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.IntVarP(&flagCfg.Channels, "channels", "c", flagCfg.Channels,
		"Number of channels to capture; channel 0 is analyzed")
	pf.IntVarP(&flagCfg.WindowSize, "window-size", "b", flagCfg.WindowSize,
		"Samples per analysis window, a power of 2 (affects latency)")
	pf.BoolVarP(&flagCfg.LowLatency, "low-latency", "l", flagCfg.LowLatency,
		"Use low latency mode for real-time processing")

	// Spectrum configuration
	pf.StringVar(&flagCfg.WindowFunc, "window", flagCfg.WindowFunc,
		"FFT window function (none, hann, hamming, blackman, ...)")
	pf.IntVar(&flagCfg.NumBars, "bars", flagCfg.NumBars,
		"Number of spectrum bars to draw")
	pf.Float64Var(&flagCfg.NoiseThreshold, "noise-threshold", flagCfg.NoiseThreshold,
		"Gate magnitudes at or below this value to zero")
	pf.IntVar(&flagCfg.QueueCapacity, "queue", flagCfg.QueueCapacity,
		"Spectrum frame queue capacity")

	// Display configuration
	pf.DurationVar(&flagCfg.TickInterval, "tick", flagCfg.TickInterval,
		"Render tick interval")
	pf.StringVar(&flagCfg.Surface, "surface", flagCfg.Surface,
		"Display surface: term, sdl or web")
	pf.StringVar(&flagCfg.ListenAddr, "listen", flagCfg.ListenAddr,
		"Bind address for the web surface")

	// Alternative sample sources
	pf.StringVar(&flagCfg.WavPath, "wav", flagCfg.WavPath,
		"Replay a WAV file instead of capturing")
	pf.BoolVar(&flagCfg.Demo, "demo", flagCfg.Demo,
		"Visualize a synthesized sweep instead of capturing")

	// Debug configuration
	pf.BoolVarP(&flagCfg.Verbose, "verbose", "v", flagCfg.Verbose,
		"Show verbose output")

	rootCmd.AddCommand(newListCmd(out), newDevicesCmd(out), newVersionCmd(out, info))

	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	if err := rootCmd.Execute(); err != nil {
		return nil, false, err
	}
	return cfg, runViz, nil
}

// applyFlagOverrides copies every flag the user set from src onto dst,
// so flags win over the config file and environment.
func applyFlagOverrides(cmd *cobra.Command, dst, src *config.Config) {
	overrides := map[string]func(){
		"device":          func() { dst.InputDevice = src.InputDevice },
		"output-device":   func() { dst.OutputDevice = src.OutputDevice },
		"sample-rate":     func() { dst.SampleRate = src.SampleRate },
		"channels":        func() { dst.Channels = src.Channels },
		"window-size":     func() { dst.WindowSize = src.WindowSize },
		"low-latency":     func() { dst.LowLatency = src.LowLatency },
		"window":          func() { dst.WindowFunc = src.WindowFunc },
		"bars":            func() { dst.NumBars = src.NumBars },
		"noise-threshold": func() { dst.NoiseThreshold = src.NoiseThreshold },
		"queue":           func() { dst.QueueCapacity = src.QueueCapacity },
		"tick":            func() { dst.TickInterval = src.TickInterval },
		"surface":         func() { dst.Surface = src.Surface },
		"listen":          func() { dst.ListenAddr = src.ListenAddr },
		"wav":             func() { dst.WavPath = src.WavPath },
		"demo":            func() { dst.Demo = src.Demo },
		"verbose":         func() { dst.Verbose = src.Verbose },
	}

	flags := cmd.Flags()
	for name, apply := range overrides {
		if flags.Changed(name) {
			apply()
		}
	}
}

func newListCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return audio.ListDevices(out)
		},
	}
}

func newDevicesCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Pick an input device interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := tui.PickDevice()
			if err != nil {
				return err
			}
			if !sel.Confirmed {
				return nil
			}
			fmt.Fprintf(out, "Selected [%d] %s at %.0f Hz\n", sel.Device.ID, sel.Device.Name, sel.SampleRate)
			fmt.Fprintf(out, "Run: specviz --device %d --sample-rate %.0f\n", sel.Device.ID, sel.SampleRate)
			return nil
		},
	}
}

func newVersionCmd(out io.Writer, info build.Info) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Shadows the root hook: version works even when the config
		// file is broken.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(out, info)
		},
	}
}
