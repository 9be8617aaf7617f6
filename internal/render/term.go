package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"specviz/internal/log"
)

const (
	enterAltScreen = "\x1b[?1049h"
	exitAltScreen  = "\x1b[?1049l\x1b[0m"
	clearScreen    = "\x1b[2J"
	cursorHome     = "\x1b[H"
	hideCursor     = "\x1b[?25l"
	showCursor     = "\x1b[?25h"

	fallbackCols = 80
	fallbackRows = 24
)

// barGlyphs maps a 0..8 fill level to a block glyph.
var barGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// TermSurface draws the bar row as block glyph columns on the terminal's
// alternate screen, scaling canvas pixel space down to the cell grid.
type TermSurface struct {
	out    io.Writer
	log    *logrus.Entry
	layout Layout
	style  lipgloss.Style

	cols int
	rows int

	buf  bytes.Buffer
	line strings.Builder
}

func NewTermSurface(out io.Writer, logger *logrus.Logger) *TermSurface {
	return &TermSurface{
		out:   out,
		log:   log.WithComponent(logger, "term"),
		style: lipgloss.NewStyle().Foreground(lipgloss.Color("#800080")),
	}
}

// Open switches to the alternate screen and hides the cursor, keeping
// whatever was on the terminal restorable by Close.
func (s *TermSurface) Open(layout Layout) error {
	s.layout = layout
	s.ensureSize()
	s.log.WithFields(logrus.Fields{"cols": s.cols, "rows": s.rows}).Debug("terminal surface opened")

	if _, err := io.WriteString(s.out, enterAltScreen+clearScreen+hideCursor); err != nil {
		return fmt.Errorf("terminal write: %w: %w", err, ErrSurfaceGone)
	}
	return nil
}

// Update repaints the whole grid from the home position. One write per
// frame keeps the redraw flicker-free without raw terminal handling.
func (s *TermSurface) Update(rects []Rect) error {
	resized := s.ensureSize()

	s.buf.Reset()
	if resized {
		s.buf.WriteString(clearScreen)
	}
	s.buf.WriteString(cursorHome)

	bars := len(rects)
	if bars > s.cols {
		bars = s.cols
	}
	gap := 0
	if s.layout.Gap > 0 && bars*2-1 <= s.cols {
		gap = 1
	}

	for row := 0; row < s.rows; row++ {
		s.line.Reset()
		cellFromBottom := s.rows - 1 - row
		for i := 0; i < bars; i++ {
			if i > 0 && gap == 1 {
				s.line.WriteByte(' ')
			}
			s.line.WriteRune(barGlyphs[s.glyphLevel(rects[i], cellFromBottom)])
		}
		s.buf.WriteString(s.style.Render(s.line.String()))
		if row < s.rows-1 {
			s.buf.WriteByte('\n')
		}
	}

	if _, err := s.out.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("terminal write: %w: %w", err, ErrSurfaceGone)
	}
	return nil
}

// Close restores the primary screen and the cursor.
func (s *TermSurface) Close() error {
	if _, err := io.WriteString(s.out, showCursor+exitAltScreen); err != nil {
		return fmt.Errorf("terminal write: %w", err)
	}
	return nil
}

// glyphLevel converts one bar's pixel height into the fill level of the
// cell cellFromBottom rows above the baseline.
func (s *TermSurface) glyphLevel(rect Rect, cellFromBottom int) int {
	eighths := rect.Height() * s.rows * 8 / s.layout.Height
	level := eighths - cellFromBottom*8
	if level < 0 {
		return 0
	}
	if level > 8 {
		return 8
	}
	return level
}

// ensureSize refreshes the cell grid dimensions and reports whether they
// changed. Off-terminal writers (tests, pipes) get a fixed 80x24 grid.
func (s *TermSurface) ensureSize() bool {
	cols, rows := s.cols, s.rows
	if f, ok := s.out.(interface{ Fd() uintptr }); ok {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && h > 0 {
			s.cols, s.rows = w, h
		}
	}
	if s.cols <= 0 || s.rows <= 0 {
		s.cols, s.rows = fallbackCols, fallbackRows
	}
	return s.cols != cols || s.rows != rows
}
