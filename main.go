// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"specviz/cmd"
	"specviz/internal/app"
	"specviz/internal/audio"
	"specviz/internal/log"
)

func init() {
	// SDL video must run on the main OS thread.
	runtime.LockOSThread()
}

// main wires the process in three phases: PortAudio and CLI parsing
// (which may run a one-off command and stop there), the visualizer
// pipeline driven on the main goroutine until a signal or quit key,
// then teardown. Failures on any path are logged and the process
// exits with status 0.
func main() {
	logger := log.New(os.Stderr, false)

	if err := audio.Initialize(); err != nil {
		logger.WithError(err).Error("audio subsystem failed to start")
		return
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			logger.WithError(err).Warn("audio subsystem shutdown failed")
		}
	}()

	cfg, runViz, err := cmd.Execute(os.Args[1:], os.Stdout)
	if err != nil {
		logger.WithError(err).Error("command failed")
		return
	}
	if !runViz {
		return
	}

	// Rebuild the logger now that the configuration settled the level.
	// It writes to stderr; the visualizer owns stdout.
	logger = log.New(os.Stderr, cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	viz, err := app.New(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to build pipeline")
		return
	}

	if err := viz.Run(ctx); err != nil {
		logger.WithError(err).Error("visualizer stopped")
	}
}
