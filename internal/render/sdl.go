//go:build sdl

package render

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// SDLSurface draws the bar row in a native window: black background,
// purple bars, like the canvas this program descends from. Requires
// building with -tags sdl and must be driven from the main goroutine.
type SDLSurface struct {
	layout   Layout
	window   *sdl.Window
	renderer *sdl.Renderer
	sdlRects []sdl.Rect
}

func NewSDLSurface() *SDLSurface {
	return &SDLSurface{}
}

func (s *SDLSurface) Open(layout Layout) error {
	s.layout = layout

	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("init SDL video: %w", err)
	}

	window, err := sdl.CreateWindow(
		"specviz",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(layout.Width), int32(layout.Height),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return fmt.Errorf("create window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return fmt.Errorf("create renderer: %w", err)
	}
	s.renderer = renderer
	s.sdlRects = make([]sdl.Rect, 0, layout.Bars)

	return nil
}

func (s *SDLSurface) Update(rects []Rect) error {
	// A closed window ends the visualizer half only.
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			return ErrSurfaceGone
		}
	}

	if err := s.renderer.SetDrawColor(0, 0, 0, 255); err != nil {
		return fmt.Errorf("set background color: %w", err)
	}
	if err := s.renderer.Clear(); err != nil {
		return fmt.Errorf("clear renderer: %w", err)
	}

	s.sdlRects = s.sdlRects[:0]
	for _, r := range rects {
		if r.Height() <= 0 {
			continue
		}
		s.sdlRects = append(s.sdlRects, sdl.Rect{
			X: int32(r.X0),
			Y: int32(r.Y0),
			W: int32(r.X1 - r.X0),
			H: int32(r.Height()),
		})
	}

	if err := s.renderer.SetDrawColor(128, 0, 128, 255); err != nil {
		return fmt.Errorf("set bar color: %w", err)
	}
	if err := s.renderer.FillRects(s.sdlRects); err != nil {
		return fmt.Errorf("fill bars: %w", err)
	}

	s.renderer.Present()
	return nil
}

func (s *SDLSurface) Close() error {
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

// SupportsSDL reports whether this binary was built with the SDL surface.
func SupportsSDL() bool { return true }
