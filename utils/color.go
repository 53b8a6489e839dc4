package utils

import (
	"hash/fnv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ParseColor reads a "#RRGGBB" colour.
func ParseColor(hex string) (colorful.Color, error) {
	return colorful.Hex(hex)
}

// ScaleColor returns the DMX red, green and blue values of c at the given level.
func ScaleColor(c colorful.Color, level float64) (r, g, b byte) {
	level = Clamp(level, 0, 1)
	c = c.Clamped()
	return ToDMX(c.R * level), ToDMX(c.G * level), ToDMX(c.B * level)
}

// SectionColor picks a stable colour for a rehearsal section. Sections listed in
// overrides use that colour; the rest get a hue derived from their name.
func SectionColor(section string, overrides map[string]string) colorful.Color {
	if hex, ok := overrides[section]; ok {
		if c, err := colorful.Hex(hex); err == nil {
			return c
		}
	}
	h := fnv.New32a()
	h.Write([]byte(section))
	hue := float64(h.Sum32() % 360)
	return colorful.Hcl(hue, 0.45, 0.7).Clamped()
}
