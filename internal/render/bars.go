package render

import "specviz/internal/spectrum"

// MapHeights rescales one spectrum frame onto pixel heights in
// [0, maxHeight]. Each frame is normalized independently: the frame's
// peak maps to exactly maxHeight, an all-zero frame maps to all zeros.
// Bar i always shows bin i. The result is appended to dst so the caller
// can reuse one scratch slice across ticks.
func MapHeights(frame spectrum.Frame, maxHeight float64, dst []float64) []float64 {
	dst = dst[:0]

	peak := frame.Peak()
	if peak == 0 {
		for range frame {
			dst = append(dst, 0)
		}
		return dst
	}

	scale := maxHeight / peak
	for _, v := range frame {
		h := v * scale
		if h < 0 {
			h = 0
		}
		if h > maxHeight {
			h = maxHeight
		}
		dst = append(dst, h)
	}
	return dst
}

// BarRects lays the bars out across the canvas: bar i starts at
// i*stride and leaves the layout gap to its right neighbor, anchored to
// the bottom edge. Appended to dst for scratch reuse.
func BarRects(heights []float64, layout Layout, dst []Rect) []Rect {
	dst = dst[:0]

	stride := layout.Stride()
	for i, h := range heights {
		hpx := int(h + 0.5)
		if hpx > layout.Height {
			hpx = layout.Height
		}
		x0 := i * stride
		dst = append(dst, Rect{
			X0: x0,
			Y0: layout.Height - hpx,
			X1: x0 + stride - layout.Gap,
			Y1: layout.Height,
		})
	}
	return dst
}
