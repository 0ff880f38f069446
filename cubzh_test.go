package cubzh_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kamikoluna/cubzh"
	"github.com/kamikoluna/cubzh/container"
	"github.com/kamikoluna/cubzh/palette"
	"github.com/kamikoluna/cubzh/shape"
)

// seekBuffer is an in-memory container.WriteSeeker: a growable byte slice
// under an explicit cursor.
type seekBuffer struct {
	buf []byte
	pos int64
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		s.pos = offset
	case io.SeekCurrent:
		s.pos += offset
	case io.SeekEnd:
		s.pos = int64(len(s.buf)) + offset
	}
	return s.pos, nil
}

func singleRedVoxelShape(t *testing.T) *shape.DenseShape {
	t.Helper()
	s := shape.NewFixedSize(1, 1, 1, false)
	idx, err := s.Palette().CheckAndAddColor(palette.RGBAColor{R: 255, A: 255}, false)
	require.NoError(t, err)
	s.SetBlock(0, 0, 0, idx)
	return s
}

func TestSaveLoadRoundTripSingleVoxel(t *testing.T) {
	s := singleRedVoxelShape(t)

	sb := &seekBuffer{}
	require.NoError(t, cubzh.Save(sb, s, cubzh.SaveOptions{Compress: true, PreviewImage: []byte("thumb")}))

	loaded, preview, err := cubzh.Load(bytes.NewReader(sb.buf), cubzh.LoadOptions{Kind: shape.KindFixedSize})
	require.NoError(t, err)
	require.Equal(t, []byte("thumb"), preview)

	w, h, d := loaded.Size()
	require.Equal(t, 1, w)
	require.Equal(t, 1, h)
	require.Equal(t, 1, d)

	blockIdx := loaded.GetBlock(0, 0, 0)
	require.NotEqual(t, shape.Air, blockIdx)
	c, err := loaded.Palette().GetColor(blockIdx)
	require.NoError(t, err)
	require.Equal(t, palette.RGBAColor{R: 255, A: 255}, c)
}

func TestSaveAsBufferRoundTrip(t *testing.T) {
	s := singleRedVoxelShape(t)

	buf, err := cubzh.SaveAsBuffer(s, cubzh.SaveOptions{Compress: false})
	require.NoError(t, err)

	loaded, _, err := cubzh.Load(bytes.NewReader(buf), cubzh.LoadOptions{Kind: shape.KindFixedSize})
	require.NoError(t, err)
	blockIdx := loaded.GetBlock(0, 0, 0)
	c, err := loaded.Palette().GetColor(blockIdx)
	require.NoError(t, err)
	require.Equal(t, palette.RGBAColor{R: 255, A: 255}, c)
}

func TestGetPreviewDataWithoutFullDecode(t *testing.T) {
	s := singleRedVoxelShape(t)
	buf, err := cubzh.SaveAsBuffer(s, cubzh.SaveOptions{PreviewImage: []byte("thumbnail-data")})
	require.NoError(t, err)

	data, found, err := cubzh.GetPreviewData(bytes.NewReader(buf))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("thumbnail-data"), data)
}

func TestGetPreviewDataReportsAbsence(t *testing.T) {
	s := singleRedVoxelShape(t)
	buf, err := cubzh.SaveAsBuffer(s, cubzh.SaveOptions{})
	require.NoError(t, err)

	_, found, err := cubzh.GetPreviewData(bytes.NewReader(buf))
	require.NoError(t, err)
	require.False(t, found)
}

func TestLoadRejectsStreamWithoutShape(t *testing.T) {
	bw := container.NewBufferWriter(container.AlgoNone)
	require.NoError(t, bw.AddChunk(container.ChunkPreview, []byte("thumb")))
	buf, err := bw.Build()
	require.NoError(t, err)

	_, _, err = cubzh.Load(bytes.NewReader(buf), cubzh.LoadOptions{})
	require.Error(t, err)
}

func TestLoadToleratesExtraPaletteAfterShape(t *testing.T) {
	s := singleRedVoxelShape(t)
	mapping := map[uint8]uint8{0: 0}

	palettePayload, err := s.Palette().EncodePayload()
	require.NoError(t, err)
	shapePayload, err := shape.EncodeShapePayload(s, shape.EncodeOptions{Mapping: mapping})
	require.NoError(t, err)

	bw := container.NewBufferWriter(container.AlgoNone)
	require.NoError(t, bw.AddChunk(container.ChunkShape, shapePayload))
	require.NoError(t, bw.AddChunk(container.ChunkPalette, palettePayload)) // stray, must be discarded
	buf, err := bw.Build()
	require.NoError(t, err)

	loaded, _, err := cubzh.Load(bytes.NewReader(buf), cubzh.LoadOptions{Kind: shape.KindFixedSize})
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Palette().Count())
}
