package palette_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kamikoluna/cubzh/palette"
)

func red() palette.RGBAColor { return palette.RGBAColor{R: 255, A: 255} }
func blue() palette.RGBAColor { return palette.RGBAColor{B: 255, A: 255} }

func TestCheckAndAddColorDeduplicates(t *testing.T) {
	p := palette.New()
	idx1, err := p.CheckAndAddColor(red(), false)
	require.NoError(t, err)
	idx2, err := p.CheckAndAddColor(red(), false)
	require.NoError(t, err)
	require.Equal(t, idx1, idx2)

	count, err := p.GetColorUseCount(idx1)
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)
}

func TestCheckAndAddColorAllowDuplicates(t *testing.T) {
	p := palette.New()
	idx1, err := p.CheckAndAddColor(red(), true)
	require.NoError(t, err)
	idx2, err := p.CheckAndAddColor(red(), true)
	require.NoError(t, err)
	require.NotEqual(t, idx1, idx2)
	require.Equal(t, 2, p.Count())
}

func TestRemoveUnusedColorFreesSlotForReuse(t *testing.T) {
	p := palette.New()
	idx1, err := p.CheckAndAddColor(red(), false)
	require.NoError(t, err)
	require.NoError(t, p.DecrementColor(idx1))

	removed, err := p.RemoveUnusedColor(idx1)
	require.NoError(t, err)
	require.True(t, removed)
	require.Equal(t, 0, p.Count())

	idx2, err := p.CheckAndAddColor(blue(), false)
	require.NoError(t, err)
	require.Equal(t, idx1, idx2)
}

func TestCapacityExceeded(t *testing.T) {
	p := palette.New()
	for i := 0; i < palette.MaxEntries; i++ {
		c := palette.RGBAColor{R: uint8(i), A: 255}
		_, err := p.CheckAndAddColor(c, false)
		require.NoError(t, err)
	}
	_, err := p.CheckAndAddColor(palette.RGBAColor{R: 1, G: 1, A: 255}, false)
	require.ErrorIs(t, err, palette.ErrCapacity)
}

func TestGetColorsAsArrayOrdersOnlyLiveEntries(t *testing.T) {
	p := palette.New()
	idxRed, err := p.CheckAndAddColor(red(), false)
	require.NoError(t, err)
	_, err = p.CheckAndAddColor(blue(), false)
	require.NoError(t, err)

	require.NoError(t, p.DecrementColor(idxRed))
	_, err = p.RemoveUnusedColor(idxRed)
	require.NoError(t, err)

	colors, emissive := p.GetColorsAsArray()
	require.Len(t, colors, 1)
	require.Equal(t, blue(), colors[0])
	require.Len(t, emissive, 1)
	require.False(t, emissive[0])
}

func TestMergeRemapsEntries(t *testing.T) {
	a := palette.New()
	_, err := a.CheckAndAddColor(red(), false)
	require.NoError(t, err)

	b := palette.New()
	blueIdx, err := b.CheckAndAddColor(blue(), false)
	require.NoError(t, err)

	remap, err := a.Merge(b, false)
	require.NoError(t, err)
	require.Contains(t, remap, blueIdx)

	colors, _ := a.GetColorsAsArray()
	require.Len(t, colors, 2)
}

func TestLightingHashStableAcrossColorOnlyChange(t *testing.T) {
	p := palette.New()
	idx, err := p.CheckAndAddColor(red(), false)
	require.NoError(t, err)

	before := p.GetLightingHash()
	require.NoError(t, p.SetColor(idx, blue()))
	after := p.GetLightingHash()
	require.Equal(t, before, after, "hash depends only on alpha/emissive, not RGB")

	require.NoError(t, p.SetEmissive(idx, true))
	afterEmissive := p.GetLightingHash()
	require.NotEqual(t, after, afterEmissive)
}

func TestDefaultColorSubstitutionFallsBackOnOutOfRange(t *testing.T) {
	p := palette.New()
	idx := p.CheckAndAddDefaultColorPico8p(255)
	require.Equal(t, uint8(0), idx)
}

func TestDefaultColorSubstitutionAddsRealColor(t *testing.T) {
	p := palette.New()
	idx := p.CheckAndAddDefaultColorPico8p(8)
	c, err := p.GetColor(idx)
	require.NoError(t, err)
	require.Equal(t, palette.GetDefaultColorsPico8p()[8], c)
}
