package palette

import "github.com/sirupsen/logrus"

// PaletteID identifies which (if any) fixed default color table a shape's
// on-disk voxel indices are expressed against, read from the PALETTE_ID
// chunk. A shape with a custom (non-legacy) palette doesn't use either
// table; its indices already refer directly to its own serialized palette.
type PaletteID uint8

const (
	// PaletteIDLegacyPico8p is the original item-editor launch palette.
	PaletteIDLegacyPico8p PaletteID = 0
	// PaletteID2021 is the palette introduced in the 2021 redesign.
	PaletteID2021 PaletteID = 1
	// PaletteIDCustom marks a shape carrying its own serialized palette,
	// with no default-table substitution in play.
	PaletteIDCustom PaletteID = 255
)

// defaultColorsPico8p is the 32-color PICO-8 palette with its index 0
// (black) replaced by a fully-transparent slot, so that voxel index 0 of a
// legacy shape resolves to a transparent color rather than to black. The
// table is this module's own reconstruction and is not guaranteed to match
// any previously shipped table byte for byte.
var defaultColorsPico8p = []RGBAColor{
	{0, 0, 0, 0},       // 0: transparent / air
	{29, 43, 83, 255},  // 1: dark blue
	{126, 37, 83, 255}, // 2: dark purple
	{0, 135, 81, 255},  // 3: dark green
	{171, 82, 54, 255}, // 4: brown
	{95, 87, 79, 255},  // 5: dark grey
	{194, 195, 199, 255}, // 6: light grey
	{255, 241, 232, 255}, // 7: white
	{255, 0, 77, 255},    // 8: red
	{255, 163, 0, 255},   // 9: orange
	{255, 236, 39, 255},  // 10: yellow
	{0, 228, 54, 255},    // 11: green
	{41, 173, 255, 255},  // 12: blue
	{131, 118, 156, 255}, // 13: lavender
	{255, 119, 168, 255}, // 14: pink
	{255, 204, 170, 255}, // 15: light peach
	{41, 24, 20, 255},    // 16: brownish black
	{17, 29, 53, 255},    // 17: darker blue
	{66, 33, 54, 255},    // 18: darker purple
	{18, 83, 89, 255},    // 19: blue green
	{116, 47, 41, 255},   // 20: dark brown
	{73, 51, 59, 255},    // 21: darker grey
	{162, 136, 121, 255}, // 22: medium grey
	{243, 239, 125, 255}, // 23: light yellow
	{190, 18, 80, 255},   // 24: dark red
	{255, 108, 36, 255},  // 25: dark orange
	{168, 231, 46, 255},  // 26: lime green
	{0, 181, 67, 255},    // 27: medium green
	{6, 90, 181, 255},    // 28: medium blue
	{117, 70, 101, 255},  // 29: medium lavender
	{255, 110, 89, 255},  // 30: medium red
	{255, 157, 129, 255}, // 31: salmon
}

// defaultColors2021 is the table used for PaletteID2021: pico8p's colors
// followed by a second ramp of 16 muted earthy tones, again with a
// transparent slot at index 0. Like the pico8p table it is this module's own
// reconstruction, not a byte-identical copy of a shipped 2021 palette.
var defaultColors2021 = append(append([]RGBAColor{}, defaultColorsPico8p...), []RGBAColor{
	{143, 86, 59, 255},
	{165, 118, 78, 255},
	{196, 158, 110, 255},
	{224, 195, 153, 255},
	{110, 99, 86, 255},
	{148, 136, 120, 255},
	{189, 177, 158, 255},
	{222, 213, 196, 255},
	{74, 84, 54, 255},
	{103, 115, 75, 255},
	{140, 150, 103, 255},
	{178, 186, 140, 255},
	{56, 68, 84, 255},
	{82, 97, 115, 255},
	{121, 136, 153, 255},
	{165, 178, 191, 255},
}...)

// GetDefaultColorsPico8p returns the fixed legacy item-editor palette.
func GetDefaultColorsPico8p() []RGBAColor {
	return append([]RGBAColor(nil), defaultColorsPico8p...)
}

// GetDefaultColors2021 returns the fixed 2021-redesign palette.
func GetDefaultColors2021() []RGBAColor {
	return append([]RGBAColor(nil), defaultColors2021...)
}

// checkAndAddDefaultColor substitutes table[tableIndex] into p via
// CheckAndAddColor, falling back to entry index 0 (never erroring) if
// tableIndex is out of range or the palette is full — the same
// "substitution failure isn't fatal" behavior the original reader applies
// to every voxel it can't place in the live palette.
func (p *ColorPalette) checkAndAddDefaultColor(table []RGBAColor, tableIndex uint8, tableName string) uint8 {
	if int(tableIndex) >= len(table) {
		p.logWarn("default palette index out of range, falling back to 0", logrus.Fields{
			"table": tableName,
			"index": tableIndex,
		})
		return 0
	}
	idx, err := p.CheckAndAddColor(table[tableIndex], false)
	if err != nil {
		p.logWarn("default palette substitution failed, falling back to 0", logrus.Fields{
			"table": tableName,
			"index": tableIndex,
			"error": err.Error(),
		})
		return 0
	}
	return idx
}

// CheckAndAddDefaultColorPico8p substitutes defaultColorsPico8p[tableIndex]
// into p, used while reading a legacy shape whose voxel indices are
// expressed against that fixed table rather than a serialized palette.
func (p *ColorPalette) CheckAndAddDefaultColorPico8p(tableIndex uint8) uint8 {
	return p.checkAndAddDefaultColor(defaultColorsPico8p, tableIndex, "pico8p")
}

// CheckAndAddDefaultColor2021 substitutes defaultColors2021[tableIndex]
// into p, used while reading a shape tagged with PaletteID2021.
func (p *ColorPalette) CheckAndAddDefaultColor2021(tableIndex uint8) uint8 {
	return p.checkAndAddDefaultColor(defaultColors2021, tableIndex, "2021")
}
