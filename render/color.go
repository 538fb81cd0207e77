package render

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// HueColor converts a hue in degrees to the fully saturated RGB color used
// for clusters. The hue wraps modulo 360.
func HueColor(hue float64) colorful.Color {
	return colorful.Hsl(wrapHue(hue), 1, .5)
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// ParseColor reads a CSS color in hsl(h,s%,l%) or hex form. It reports false
// for colors that cannot be drawn, including hsl(NaN,...).
func ParseColor(css string) (colorful.Color, bool) {
	css = strings.TrimSpace(css)
	if strings.HasPrefix(css, "#") {
		c, err := colorful.Hex(css)
		return c, err == nil
	}
	if !strings.HasPrefix(css, "hsl(") || !strings.HasSuffix(css, ")") {
		return colorful.Color{}, false
	}

	parts := strings.Split(css[len("hsl("):len(css)-1], ",")
	if len(parts) != 3 {
		return colorful.Color{}, false
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
		return colorful.Color{}, false
	}
	s, ok := percent(parts[1])
	if !ok {
		return colorful.Color{}, false
	}
	l, ok := percent(parts[2])
	if !ok {
		return colorful.Color{}, false
	}

	return colorful.Hsl(wrapHue(h), s, l), true
}

func percent(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return 0, false
	}
	return v / 100, true
}

// nodeColor resolves a node color, falling back when it cannot be drawn
func nodeColor(css, fallback string) color.Color {
	if c, ok := ParseColor(css); ok {
		return c
	}
	if c, ok := ParseColor(fallback); ok {
		return c
	}
	return color.Gray{Y: 0x80}
}

// cssColor is like nodeColor but returns a hex string for vector formats
func cssColor(css, fallback string) string {
	if c, ok := ParseColor(css); ok {
		return c.Hex()
	}
	if _, ok := ParseColor(fallback); ok {
		return fallback
	}
	return "#808080"
}
