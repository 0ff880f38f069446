package palette_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kamikoluna/cubzh/palette"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	p := palette.New()
	_, err := p.CheckAndAddColor(red(), false)
	require.NoError(t, err)
	idxBlue, err := p.CheckAndAddColor(blue(), false)
	require.NoError(t, err)
	require.NoError(t, p.SetEmissive(idxBlue, true))

	payload, err := p.EncodePayload()
	require.NoError(t, err)

	decoded, err := palette.DecodePayload(payload)
	require.NoError(t, err)

	colors, emissive := decoded.GetColorsAsArray()
	require.Equal(t, []palette.RGBAColor{red(), blue()}, colors)
	require.Equal(t, []bool{false, true}, emissive)
}

func TestEncodeDecodeLegacyPayloadRoundTrip(t *testing.T) {
	p := palette.New()
	_, err := p.CheckAndAddColor(red(), false)
	require.NoError(t, err)

	payload, err := p.EncodeLegacyPayload(0, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, payload, 6+4+1)

	decoded, err := palette.DecodeLegacyPayload(payload)
	require.NoError(t, err)

	colors, _ := decoded.GetColorsAsArray()
	require.Equal(t, []palette.RGBAColor{red()}, colors)
}

func TestDecodeLegacyPayloadClampsCount(t *testing.T) {
	header := []byte{0, 0, 1, 1, 0, 0} // count = 257, little-endian u16
	payload := append(header, make([]byte, 256*4+256)...) // room for 256 entries only

	p, err := palette.DecodeLegacyPayload(payload)
	require.NoError(t, err)
	require.Equal(t, palette.MaxEntries, p.Count())
}
