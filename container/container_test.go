package container_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kamikoluna/cubzh/container"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("voxel-shape-payload"), 64)

	compressed, err := container.Compress(container.AlgoZIP, payload)
	require.NoError(t, err)
	require.NotEqual(t, payload, compressed)

	decompressed, err := container.Decompress(container.AlgoZIP, compressed, len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, decompressed)
}

func TestDecompressNoneRequiresExactSize(t *testing.T) {
	_, err := container.Decompress(container.AlgoNone, []byte{1, 2, 3}, 4)
	require.ErrorIs(t, err, container.ErrConsistency)
}

func TestWriteChunkThenReadChunkRoundTrip(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03}

	var buf bytes.Buffer
	require.NoError(t, container.WriteChunk(&buf, container.ChunkShape, payload, true))

	r := container.NewStreamReader(&buf)
	id, err := container.ReadIdentifier(r)
	require.NoError(t, err)
	require.Equal(t, container.ChunkShape, id)

	chunk, err := container.ReadChunk(r, id)
	require.NoError(t, err)
	require.Equal(t, payload, chunk.Payload)
}

func TestWriteChunkPreviewUsesV5Header(t *testing.T) {
	payload := []byte("thumbnail-bytes")

	var buf bytes.Buffer
	require.NoError(t, container.WriteChunk(&buf, container.ChunkPreview, payload, true))

	r := container.NewStreamReader(&buf)
	id, err := container.ReadIdentifier(r)
	require.NoError(t, err)
	require.Equal(t, container.ChunkPreview, id)

	chunk, err := container.ReadChunkV5(r, id)
	require.NoError(t, err)
	require.Equal(t, payload, chunk.Payload)
}

func TestBufferWriterRoundTripsThroughWalkChunks(t *testing.T) {
	bw := container.NewBufferWriter(container.AlgoZIP)
	require.NoError(t, bw.AddChunk(container.ChunkPreview, []byte("preview-bytes")))
	require.NoError(t, bw.AddChunk(container.ChunkPalette, []byte{3, 255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255, 0, 0, 0}))
	require.NoError(t, bw.AddChunk(container.ChunkShape, bytes.Repeat([]byte{1, 2, 3, 4}, 10)))

	out, err := bw.Build()
	require.NoError(t, err)

	var seen []container.ChunkID
	r := container.NewSliceReader(out)
	header, err := container.WalkChunks(r, func(c container.Chunk) error {
		seen = append(seen, c.ID)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, container.FormatVersion, header.Format)
	require.Equal(t, []container.ChunkID{container.ChunkPreview, container.ChunkPalette, container.ChunkShape}, seen)
}

func TestScanForPreviewSkipsOtherChunks(t *testing.T) {
	bw := container.NewBufferWriter(container.AlgoNone)
	require.NoError(t, bw.AddChunk(container.ChunkPaletteID, []byte{1}))
	require.NoError(t, bw.AddChunk(container.ChunkPreview, []byte("thumb")))
	require.NoError(t, bw.AddChunk(container.ChunkShape, bytes.Repeat([]byte{9}, 8)))

	out, err := bw.Build()
	require.NoError(t, err)

	data, found, err := container.ScanForPreview(container.NewSliceReader(out))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("thumb"), data)
}

func TestScanForPreviewReportsAbsence(t *testing.T) {
	bw := container.NewBufferWriter(container.AlgoNone)
	require.NoError(t, bw.AddChunk(container.ChunkPaletteID, []byte{1}))

	out, err := bw.Build()
	require.NoError(t, err)

	_, found, err := container.ScanForPreview(container.NewSliceReader(out))
	require.NoError(t, err)
	require.False(t, found)
}

func TestReadHeaderRejectsBadMagic(t *testing.T) {
	buf := []byte{'X', 'X', 'X', 'X', 6, 0, 0, 0, 0, 0, 0, 0, 0}
	_, err := container.ReadHeader(container.NewSliceReader(buf))
	require.ErrorIs(t, err, container.ErrFormat)
}
