//go:build !sdl

package render

import "errors"

// SDLSurface without the sdl build tag: construction succeeds so flag
// parsing stays uniform, Open explains how to get the real one.
type SDLSurface struct{}

func NewSDLSurface() *SDLSurface { return &SDLSurface{} }

func (s *SDLSurface) Open(Layout) error {
	return errors.New("SDL surface not enabled; rebuild with -tags sdl")
}

func (s *SDLSurface) Update([]Rect) error { return nil }

func (s *SDLSurface) Close() error { return nil }

// SupportsSDL reports whether this binary was built with the SDL surface.
func SupportsSDL() bool { return false }
