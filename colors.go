package nvimui

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a 24-bit RGB value as sent by the editor (0xRRGGBB).
// Negative values mean "use the default color".
type Color int32

// ColorDefault marks an unset color that falls back to the table defaults.
const ColorDefault Color = -1

// RGB packs three 8-bit components into a Color.
func RGB(r, g, b uint8) Color {
	return Color(int32(r)<<16 | int32(g)<<8 | int32(b))
}

// IsDefault returns true if the color is unset.
func (c Color) IsDefault() bool {
	return c < 0
}

// RGBA converts the color to an opaque color.RGBA.
// A default color converts to opaque black; resolve it against a Style first.
func (c Color) RGBA() color.RGBA {
	if c < 0 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
		A: 255,
	}
}

// Hex returns the color as "#rrggbb", or "" for the default color.
func (c Color) Hex() string {
	if c < 0 {
		return ""
	}
	return toColorful(c).Hex()
}

// Or returns c unless it is the default color, in which case fallback is returned.
func (c Color) Or(fallback Color) Color {
	if c < 0 {
		return fallback
	}
	return c
}

// Blend mixes c towards other. t=0 keeps c, t=1 yields other.
func (c Color) Blend(other Color, t float64) Color {
	if c < 0 || other < 0 {
		return c
	}
	r, g, b := toColorful(c).BlendRgb(toColorful(other), t).Clamped().RGB255()
	return RGB(r, g, b)
}

func toColorful(c Color) colorful.Color {
	rgba := c.RGBA()
	return colorful.Color{
		R: float64(rgba.R) / 255,
		G: float64(rgba.G) / 255,
		B: float64(rgba.B) / 255,
	}
}

// DefaultForeground is the text color used before the editor sends default_colors_set (white).
var DefaultForeground = RGB(255, 255, 255)

// DefaultBackground is the background used before the editor sends default_colors_set (black).
var DefaultBackground = RGB(0, 0, 0)

// DefaultSpecial is the undercurl/underline color used before the editor sends default_colors_set (red).
var DefaultSpecial = RGB(255, 0, 0)
