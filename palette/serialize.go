package palette

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// legacyCountMax is the widest count the legacy header's uint16 count field
// is ever trusted for: entries beyond this are never read. It is MaxEntries,
// the most entries a palette can hold.
const legacyCountMax = MaxEntries

// EncodePayload builds the non-legacial PALETTE chunk payload:
// count:u8 | colors[count]:RGBA | emissive[count]:u8 (as a byte, 0 or 1).
// Colors and emissive flags are taken from GetColorsAsArray, i.e. in
// ordered (dense) order.
func (p *ColorPalette) EncodePayload() ([]byte, error) {
	colors, emissive := p.GetColorsAsArray()
	if len(colors) > MaxEntries {
		return nil, errors.Wrapf(ErrCapacity, "%d ordered colors exceeds max of %d", len(colors), MaxEntries)
	}
	out := make([]byte, 0, 1+len(colors)*4+len(emissive))
	out = append(out, uint8(len(colors)))
	for _, c := range colors {
		out = append(out, c.R, c.G, c.B, c.A)
	}
	for _, e := range emissive {
		if e {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}
	return out, nil
}

// DecodePayload parses a non-legacy PALETTE chunk payload into a fresh
// palette.
func DecodePayload(payload []byte) (*ColorPalette, error) {
	if len(payload) < 1 {
		return nil, errors.New("palette: payload too short for count")
	}
	count := int(payload[0])
	colors, emissive, err := decodeColorsAndEmissive(payload[1:], count)
	if err != nil {
		return nil, err
	}
	return NewFromData(colors, emissive)
}

// EncodeLegacyPayload builds a PALETTE_LEGACY chunk payload: the six-byte
// legacy header (rows, cols, count as a uint16, defaultColor,
// defaultBackground) followed by the same colors/emissive arrays as the
// non-legacy form. rows/cols/defaultColor/defaultBackground are carried only
// for round-trip fidelity with legacy files; this codec doesn't interpret
// them.
func (p *ColorPalette) EncodeLegacyPayload(rows, cols, defaultColor, defaultBackground uint8) ([]byte, error) {
	colors, emissive := p.GetColorsAsArray()
	if len(colors) > MaxEntries {
		return nil, errors.Wrapf(ErrCapacity, "%d ordered colors exceeds max of %d", len(colors), MaxEntries)
	}
	out := make([]byte, 0, 6+len(colors)*4+len(emissive))
	out = append(out, rows, cols)
	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(colors)))
	out = append(out, countBuf[:]...)
	out = append(out, defaultColor, defaultBackground)
	for _, c := range colors {
		out = append(out, c.R, c.G, c.B, c.A)
	}
	for _, e := range emissive {
		if e {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}
	return out, nil
}

// DecodeLegacyPayload parses a PALETTE_LEGACY chunk payload into a fresh
// palette. The count field is a little-endian uint16, clamped to
// legacyCountMax.
func DecodeLegacyPayload(payload []byte) (*ColorPalette, error) {
	if len(payload) < 6 {
		return nil, errors.New("palette: legacy payload too short for header")
	}
	count := int(binary.LittleEndian.Uint16(payload[2:4]))
	if count > legacyCountMax {
		count = legacyCountMax
	}
	colors, emissive, err := decodeColorsAndEmissive(payload[6:], count)
	if err != nil {
		return nil, err
	}
	return NewFromData(colors, emissive)
}

func decodeColorsAndEmissive(buf []byte, count int) ([]RGBAColor, []bool, error) {
	need := count*4 + count
	if len(buf) < need {
		return nil, nil, errors.Errorf("palette: payload too short for %d entries: need %d bytes, have %d", count, need, len(buf))
	}
	colors := make([]RGBAColor, count)
	for i := 0; i < count; i++ {
		o := i * 4
		colors[i] = RGBAColor{R: buf[o], G: buf[o+1], B: buf[o+2], A: buf[o+3]}
	}
	emissiveBuf := buf[count*4 : count*4+count]
	emissive := make([]bool, count)
	for i, b := range emissiveBuf {
		emissive[i] = b != 0
	}
	return colors, emissive, nil
}

// GetLightingHash returns a 32-bit digest over every live entry's (alpha,
// emissive) pair, in entry-index order, used as a cheap cache key by
// anything that bakes lighting from this palette's colors: two palettes
// with identical alpha/emissive data hash identically regardless of their
// RGB values or ordered view.
func (p *ColorPalette) GetLightingHash() uint32 {
	h := xxhash.New()
	for i := 0; i < MaxEntries; i++ {
		idx := uint8(i)
		if !p.live[idx] {
			continue
		}
		e := p.entries[idx]
		var buf [2]byte
		buf[0] = e.Color.A
		if e.Emissive {
			buf[1] = 1
		}
		_, _ = h.Write(buf[:])
	}
	return uint32(h.Sum64())
}
