// SPDX-License-Identifier: MIT

// Package app is the composition root. It wires a sample source, the
// spectrum transform, the frame queue, and a display surface into one
// pipeline and owns its lifecycle: running, stopping, stopped, one way,
// once.
//
// The render loop runs on the goroutine that calls Run; SDL surfaces
// require that to be the main goroutine. Everything else (capture
// callbacks, WAV replay, the quit-key listener, the websocket server)
// lives on goroutines the wired components manage themselves.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/eiannone/keyboard"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"specviz/internal/audio"
	"specviz/internal/config"
	"specviz/internal/dsp"
	"specviz/internal/log"
	"specviz/internal/render"
	"specviz/internal/spectrum"
	"specviz/internal/web"
)

// keyboardOpen is swapped in tests; opening the real keyboard flips the
// terminal into raw mode.
var keyboardOpen = keyboard.Open

// Source produces sample windows into a Processor. Capture, WavSource
// and DemoSource all satisfy it.
type Source interface {
	Start() error
	Stop()
}

// App ties the pipeline together.
type App struct {
	cfg *config.Config
	log *logrus.Entry

	queue   *spectrum.Queue
	source  Source
	surface render.Surface
	loop    *render.Loop

	running  atomic.Bool
	stopOnce sync.Once
}

// New builds the pipeline for cfg: transform, queue, producer sink,
// sample source, surface, render loop. Nothing starts until Run; in
// particular no audio device is touched here.
func New(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	win, err := dsp.ParseWindowFunc(cfg.WindowFunc)
	if err != nil {
		return nil, err
	}
	transform, err := dsp.NewTransform(cfg.WindowSize, cfg.NumBars, cfg.SampleRate, cfg.NoiseThreshold, win)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:   cfg,
		log:   log.WithComponent(logger, "app"),
		queue: spectrum.NewQueue(cfg.QueueCapacity),
	}

	sink := newProducer(transform, a.queue, &a.running)
	a.source = newSource(cfg, sink, logger)

	surface, err := newSurface(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.surface = surface
	a.loop = render.NewLoop(cfg, a.queue, surface, logger)

	return a, nil
}

// newSource picks the sample source for the configuration. WAV replay
// and the demo sweep take priority over live capture.
func newSource(cfg *config.Config, sink audio.Processor, logger *logrus.Logger) Source {
	switch {
	case cfg.WavPath != "":
		return audio.NewWavSource(cfg, sink, logger)
	case cfg.Demo:
		return audio.NewDemoSource(cfg, sink, logger)
	default:
		return audio.NewCapture(cfg, sink, logger)
	}
}

func newSurface(cfg *config.Config, logger *logrus.Logger) (render.Surface, error) {
	switch cfg.Surface {
	case config.SurfaceTerm:
		return render.NewTermSurface(os.Stdout, logger), nil
	case config.SurfaceSDL:
		return render.NewSDLSurface(), nil
	case config.SurfaceWeb:
		return web.NewServer(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown surface %q", cfg.Surface)
	}
}

// Run starts the source, opens the surface, and drives the render loop
// on the calling goroutine until the context is cancelled, a quit key
// arrives, or the surface goes away. It returns nil on every normal
// shutdown path.
func (a *App) Run(ctx context.Context) error {
	a.running.Store(true)

	if err := a.source.Start(); err != nil {
		a.running.Store(false)
		return err
	}

	if err := a.surface.Open(render.NewLayout(a.cfg)); err != nil {
		a.source.Stop()
		a.running.Store(false)
		return err
	}

	a.log.WithField("surface", a.cfg.Surface).Info("visualizer running")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return a.watchKeys(gctx, cancel)
	})

	err := a.loop.Run(gctx)

	cancel()
	if werr := g.Wait(); werr != nil {
		a.log.WithError(werr).Warn("input listener failed")
	}
	a.Stop()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop tears the pipeline down in order: the source first so sample
// callbacks cease, then the render loop, then the surface. Safe to call
// from any path any number of times; shutdown errors are logged, never
// returned.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		a.log.Info("stopping")
		a.running.Store(false)
		a.source.Stop()
		a.loop.Stop()
		if err := a.surface.Close(); err != nil {
			a.log.WithError(err).Warn("surface close failed")
		}
		a.log.WithField("dropped_frames", a.queue.Dropped()).Info("stopped")
	})
}

// watchKeys turns q, Esc and Ctrl-C into a cancel. When no keyboard is
// available (headless or non-interactive runs) it degrades to waiting
// for the context.
func (a *App) watchKeys(ctx context.Context, quit context.CancelFunc) error {
	if err := keyboardOpen(); err != nil {
		a.log.WithError(err).Debug("keyboard input disabled")
		<-ctx.Done()
		return nil
	}

	// GetKey blocks on the terminal; closing the keyboard is the only
	// way to release it. Both the watcher and the reader may get there
	// first.
	var closeOnce sync.Once
	closeKeyboard := func() {
		closeOnce.Do(func() { _ = keyboard.Close() })
	}

	go func() {
		<-ctx.Done()
		closeKeyboard()
	}()

	defer closeKeyboard()
	for {
		char, key, err := keyboard.GetKey()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("keyboard: %w", err)
			}
		}

		switch {
		case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC:
			a.log.Debug("quit key pressed")
			quit()
			return nil
		case char == 'q' || char == 'Q':
			a.log.Debug("quit key pressed")
			quit()
			return nil
		}
	}
}
