package render

import (
	"image/color"

	"gonum.org/v1/plot/vg"
)

// ramp is the shared violet scale, lightest first.
var ramp = [15]color.NRGBA{
	hex(0xF5F3FF), hex(0xEEE7FE), hex(0xE5DEFE), hex(0xE0D4FD), hex(0xDDD6FE),
	hex(0xC4B5FD), hex(0xB2A0FC), hex(0xA78BFA), hex(0x925CFA), hex(0x8B5CF6),
	hex(0x7C3AED), hex(0x6D28D9), hex(0x5B21B6), hex(0x4C1D95), hex(0x3C1A6E),
}

// Theme is the visual style of one output channel. Values are copied per
// call and never mutated.
type Theme struct {
	Name        string
	Background  color.NRGBA
	Foreground  color.NRGBA
	Accent      color.NRGBA
	Histogram   color.NRGBA
	SliceText   color.NRGBA
	DPI         int
	Transparent bool

	// pieShades indexes ramp for pie slices, cycled when there are more slices.
	pieShades [15]int
	pieCount  int
}

var darkTheme = Theme{
	Name:        "dark",
	Background:  hex(0x09090B),
	Foreground:  hex(0xFFFFFF),
	Accent:      ramp[10],
	Histogram:   ramp[9],
	SliceText:   hex(0x000000),
	DPI:         100,
	Transparent: true,
	pieShades:   [15]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
	pieCount:    15,
}

var lightTheme = Theme{
	Name:       "light",
	Background: hex(0xFFFFFF),
	Foreground: hex(0x333333),
	Accent:     ramp[10],
	Histogram:  ramp[9],
	SliceText:  hex(0x000000),
	DPI:        200,
	pieShades:  [15]int{5, 7, 9, 10, 11, 12, 13, 14},
	pieCount:   8,
}

// DarkTheme is used for zip exports: white text on a transparent canvas.
func DarkTheme() Theme { return darkTheme }

// LightTheme is used for the PDF report.
func LightTheme() Theme { return lightTheme }

// canvas sizes
const (
	chartWidth    = 12 * vg.Inch
	chartHeight   = 6 * vg.Inch
	heatmapHeight = 8 * vg.Inch
)

// PieColors returns n slice colors from the theme's shades, repeating them
// when n exceeds the palette.
func (t Theme) PieColors(n int) []color.NRGBA {
	count := t.pieCount
	if count == 0 {
		count = len(ramp)
		for i := range t.pieShades {
			t.pieShades[i] = i
		}
	}
	out := make([]color.NRGBA, n)
	for i := range out {
		out[i] = ramp[t.pieShades[i%count]]
	}
	return out
}

// canvasColor is what the empty canvas is filled with
func (t Theme) canvasColor() color.Color {
	if t.Transparent {
		return color.Transparent
	}
	return t.Background
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

func hex(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}
