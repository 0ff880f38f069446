package shape_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kamikoluna/cubzh/palette"
	"github.com/kamikoluna/cubzh/shape"
)

func buildSimpleShape(t *testing.T) *shape.DenseShape {
	t.Helper()
	s := shape.NewFixedSize(2, 2, 2, false)
	idx, err := s.Palette().CheckAndAddColor(palette.RGBAColor{R: 255, A: 255}, false)
	require.NoError(t, err)
	s.SetBlock(0, 0, 0, idx)
	s.SetBlock(1, 1, 1, idx)
	s.SetPointOfInterest("spawn", 1, 1, 1)
	s.SetPointRotation("spawn", 0, 90, 0)
	return s
}

func TestEncodeDecodeShapePayloadRoundTrip(t *testing.T) {
	s := buildSimpleShape(t)

	payload, err := shape.EncodeShapePayload(s, shape.EncodeOptions{Mapping: map[uint8]uint8{0: 0}})
	require.NoError(t, err)

	decoded, err := shape.DecodeShapePayload(payload, shape.DecodeOptions{
		Kind:              shape.KindFixedSize,
		PaletteID:         palette.PaletteIDCustom,
		SerializedPalette: s.Palette(),
	})
	require.NoError(t, err)

	w, h, d := decoded.Size()
	require.Equal(t, 2, w)
	require.Equal(t, 2, h)
	require.Equal(t, 2, d)
	require.Equal(t, uint8(0), decoded.GetBlock(0, 0, 0))
	require.Equal(t, shape.Air, decoded.GetBlock(0, 0, 1))

	pois := decoded.PointsOfInterest()
	require.Len(t, pois, 1)
	require.Equal(t, "spawn", pois[0].Name)
	require.InDelta(t, 1, pois[0].X, 0.0001)

	rotations := decoded.PointRotations()
	require.Len(t, rotations, 1)
	require.InDelta(t, 90, rotations[0].Y, 0.0001)
}

func TestDecodeShapePayloadToleratesBlocksBeforeSize(t *testing.T) {
	s := buildSimpleShape(t)

	sizePayload, err := shape.EncodeShapePayload(s, shape.EncodeOptions{Mapping: map[uint8]uint8{0: 0}})
	require.NoError(t, err)

	reordered := reorderBlocksBeforeSize(t, sizePayload)

	decoded, err := shape.DecodeShapePayload(reordered, shape.DecodeOptions{
		Kind:              shape.KindFixedSize,
		PaletteID:         palette.PaletteIDCustom,
		SerializedPalette: s.Palette(),
	})
	require.NoError(t, err)
	require.Equal(t, uint8(0), decoded.GetBlock(0, 0, 0))
}

func TestDecodeShapePayloadBakedLightingFlagSurvivesMismatch(t *testing.T) {
	s := shape.NewFixedSize(2, 2, 2, true)
	idx, err := s.Palette().CheckAndAddColor(palette.RGBAColor{R: 255, A: 255}, false)
	require.NoError(t, err)
	s.SetBlock(0, 0, 0, idx)
	s.SetLight(0, 0, 0, shape.Light{R: 1, G: 2, B: 3, Ambient: 4})

	payload, err := shape.EncodeShapePayload(s, shape.EncodeOptions{Mapping: map[uint8]uint8{0: 0}})
	require.NoError(t, err)

	truncated := truncateBakedLighting(t, payload)

	decoded, err := shape.DecodeShapePayload(truncated, shape.DecodeOptions{
		Kind:               shape.KindFixedSize,
		PaletteID:          palette.PaletteIDCustom,
		SerializedPalette:  s.Palette(),
		WantsBakedLighting: true,
	})
	require.NoError(t, err)
	require.True(t, decoded.UsesBakedLighting())
	require.Equal(t, shape.Light{}, decoded.GetLight(0, 0, 0))
}

func TestDecodeShapePayloadWithoutWantsBakedLightingDiscardsData(t *testing.T) {
	s := shape.NewFixedSize(2, 2, 2, true)
	idx, err := s.Palette().CheckAndAddColor(palette.RGBAColor{R: 255, A: 255}, false)
	require.NoError(t, err)
	s.SetBlock(0, 0, 0, idx)
	s.SetLight(0, 0, 0, shape.Light{R: 1, G: 2, B: 3, Ambient: 4})

	payload, err := shape.EncodeShapePayload(s, shape.EncodeOptions{Mapping: map[uint8]uint8{0: 0}})
	require.NoError(t, err)

	decoded, err := shape.DecodeShapePayload(payload, shape.DecodeOptions{
		Kind:              shape.KindFixedSize,
		PaletteID:         palette.PaletteIDCustom,
		SerializedPalette: s.Palette(),
	})
	require.NoError(t, err)
	require.False(t, decoded.UsesBakedLighting())
	require.Equal(t, shape.Light{}, decoded.GetLight(0, 0, 0))
}

// truncateBakedLighting re-splits a shape payload's sub-chunks and shrinks
// the SHAPE_BAKED_LIGHTING sub-chunk's payload by one byte, producing a
// malformed size the decoder must tolerate by discarding the data.
func truncateBakedLighting(t *testing.T, payload []byte) []byte {
	t.Helper()

	type sub struct {
		id   byte
		data []byte
	}
	var subs []sub
	i := 0
	for i < len(payload) {
		id := payload[i]
		size := int(payload[i+1]) | int(payload[i+2])<<8 | int(payload[i+3])<<16 | int(payload[i+4])<<24
		data := payload[i+5 : i+5+size]
		if id == 7 { // SHAPE_BAKED_LIGHTING
			data = data[:len(data)-1]
		}
		subs = append(subs, sub{id: id, data: data})
		i += 5 + size
	}

	out := make([]byte, 0, len(payload))
	for _, sc := range subs {
		out = append(out, sc.id)
		n := len(sc.data)
		out = append(out, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
		out = append(out, sc.data...)
	}
	return out
}

// reorderBlocksBeforeSize re-splits a shape payload's sub-chunks and
// rewrites it with the SHAPE_BLOCKS sub-chunk placed before SHAPE_SIZE,
// exercising the decoder's documented tolerance for out-of-order arrival.
func reorderBlocksBeforeSize(t *testing.T, payload []byte) []byte {
	t.Helper()

	type sub struct {
		id   byte
		data []byte
	}
	var subs []sub
	i := 0
	for i < len(payload) {
		id := payload[i]
		size := int(payload[i+1]) | int(payload[i+2])<<8 | int(payload[i+3])<<16 | int(payload[i+4])<<24
		data := payload[i+5 : i+5+size]
		subs = append(subs, sub{id: id, data: data})
		i += 5 + size
	}

	var sizeSub, blocksSub sub
	var rest []sub
	for _, sc := range subs {
		switch sc.id {
		case 4: // SHAPE_SIZE
			sizeSub = sc
		case 5: // SHAPE_BLOCKS
			blocksSub = sc
		default:
			rest = append(rest, sc)
		}
	}

	out := make([]byte, 0, len(payload))
	writeSub := func(sc sub) {
		out = append(out, sc.id)
		n := len(sc.data)
		out = append(out, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
		out = append(out, sc.data...)
	}
	writeSub(blocksSub)
	writeSub(sizeSub)
	for _, sc := range rest {
		writeSub(sc)
	}
	return out
}
