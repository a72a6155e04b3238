package engine

import (
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Color is an RGBA color in 8-bit channels.
type Color struct {
	R, G, B, A uint8
}

func RGB(r, g, b uint8) Color     { return Color{R: r, G: g, B: b, A: 0xFF} }
func RGBA(r, g, b, a uint8) Color { return Color{R: r, G: g, B: b, A: a} }

// Hex returns the opaque color encoded as 0xRRGGBB.
func Hex(v uint32) Color {
	return RGB(uint8(v>>16), uint8(v>>8), uint8(v))
}

// Vec returns the color channels scaled to [0, 1].
func (c Color) Vec() Vec3 {
	return Vec3{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}

// Shade returns c modulated by a linear light factor per channel.
func (c Color) Shade(light Vec3) Color {
	ch := func(v uint8, f float32) uint8 {
		return uint8(Clamp01(float32(v)/255*f)*255 + 0.5)
	}
	return Color{R: ch(c.R, light.X), G: ch(c.G, light.Y), B: ch(c.B, light.Z), A: c.A}
}

// RGBA implements color.Color. c is treated as non-premultiplied.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// String formats c as #rrggbb.
func (c Color) String() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// ParseColor parses "#rgb", "#rrggbb" or a CSS color name.
func ParseColor(s string) (Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, false
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return Color{}, false
		}
		r, g, b := c.RGB255()
		return RGB(r, g, b), true
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return RGBA(c.R, c.G, c.B, c.A), true
	}
	return Color{}, false
}

// ParseColorOr parses s and returns fallback when s is empty or invalid.
func ParseColorOr(s string, fallback Color) Color {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return fallback
}
