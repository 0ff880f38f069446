// Package palette implements the ColorPalette: a bounded, order-stable set
// of colors shared by one or more shapes, plus the v6 wire format for
// serializing it (including the two historical default-palette tables used
// to substitute colors for legacy, non-custom-palette shapes).
package palette

// RGBAColor is the four-channel 8-bit color every palette entry and the
// wire format both store.
type RGBAColor struct {
	R, G, B, A uint8
}

// pack folds the color into a single uint32 key, used as the reverse
// lookup key in Find and as the input to the lighting hash.
func (c RGBAColor) pack() uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// Transparent reports whether the color's alpha channel is less than fully
// opaque.
func (c RGBAColor) Transparent() bool {
	return c.A < 255
}
