// SPDX-License-Identifier: MIT
/*
Package render turns spectrum frames into bar geometry and drives a
display surface at a fixed tick rate:
- Pure mapping from one frame to bar heights and pixel rectangles
- A render loop that drains the frame queue every tick and applies each
  frame in arrival order
- Surface implementations for the terminal, SDL (build tag) and a
  websocket hub
*/
package render

import (
	"errors"

	"specviz/internal/config"
)

// ErrSurfaceGone reports that the display surface disappeared mid
// session (window closed, terminal detached). The loop treats it as a
// local stop condition, not a process failure.
var ErrSurfaceGone = errors.New("display surface gone")

// Rect is one bar's geometry in canvas pixel space. Y grows downward;
// a zero-height bar is an empty rect on the baseline (Y0 == Y1 ==
// canvas height).
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Height returns the bar height in pixels.
func (r Rect) Height() int { return r.Y1 - r.Y0 }

// Layout fixes the geometry of the bar row for one session.
type Layout struct {
	Width  int // canvas width, px
	Height int // canvas height, px
	Bars   int
	Gap    int // horizontal space between bars, px
}

func NewLayout(cfg *config.Config) Layout {
	return Layout{
		Width:  cfg.CanvasWidth,
		Height: cfg.CanvasHeight,
		Bars:   cfg.NumBars,
		Gap:    cfg.BarGap,
	}
}

// Stride is the horizontal space owned by one bar, gap included.
func (l Layout) Stride() int { return l.Width / l.Bars }

// Surface is a display that can show the bar row. Open creates the
// canvas, Update repositions all bars, Close releases the display.
// Implementations are driven from a single goroutine.
type Surface interface {
	Open(layout Layout) error
	Update(rects []Rect) error
	Close() error
}
