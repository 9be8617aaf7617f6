// SPDX-License-Identifier: MIT
package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"specviz/internal/config"
	"specviz/internal/log"
	"specviz/internal/spectrum"
)

// Loop consumes the frame queue at a fixed interval and applies every
// drained frame, in arrival order, to the surface. Run executes on the
// goroutine that calls it; SDL surfaces must be driven from the main
// goroutine, so the application runs the loop there.
type Loop struct {
	queue    *spectrum.Queue
	surface  Surface
	layout   Layout
	interval time.Duration
	log      *logrus.Entry

	stopped  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}

	// Scratch reused across ticks to keep the loop allocation-steady.
	frames  []spectrum.Frame
	heights []float64
	rects   []Rect
}

func NewLoop(cfg *config.Config, queue *spectrum.Queue, surface Surface, logger *logrus.Logger) *Loop {
	return &Loop{
		queue:    queue,
		surface:  surface,
		layout:   NewLayout(cfg),
		interval: cfg.TickInterval,
		log:      log.WithComponent(logger, "render"),
		done:     make(chan struct{}),
		frames:   make([]spectrum.Frame, 0, cfg.QueueCapacity),
		heights:  make([]float64, 0, cfg.NumBars),
		rects:    make([]Rect, 0, cfg.NumBars),
	}
}

// Run ticks until the context is cancelled, Stop is called, or the
// surface goes away. A vanished surface is logged once and treated as a
// normal stop; the rest of the application shuts down on its own path.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.WithField("interval", l.interval).Debug("render loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-ticker.C:
			if l.stopped.Load() {
				return nil
			}
			if err := l.tick(); err != nil {
				if errors.Is(err, ErrSurfaceGone) {
					l.log.Warn("display surface gone, halting visualizer")
					l.Stop()
					return nil
				}
				return err
			}
		}
	}
}

// tick drains everything queued since the last tick and applies each
// frame in FIFO order, so a backlog plays out rather than being skipped.
func (l *Loop) tick() error {
	l.frames = l.queue.TryPopAll(l.frames[:0])
	for _, frame := range l.frames {
		l.heights = MapHeights(frame, float64(l.layout.Height), l.heights)
		l.rects = BarRects(l.heights, l.layout, l.rects)
		if err := l.surface.Update(l.rects); err != nil {
			return err
		}
	}
	return nil
}

// Stop makes the loop exit on its next scheduling point. Idempotent and
// safe from any goroutine.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.done)
	})
}
