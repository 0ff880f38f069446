package cubzh

import (
	"github.com/pkg/errors"

	"github.com/kamikoluna/cubzh/container"
	"github.com/kamikoluna/cubzh/palette"
	"github.com/kamikoluna/cubzh/shape"
)

// SaveOptions controls how Save and SaveAsBuffer encode a shape.
type SaveOptions struct {
	// Compress, when true, zlib-compresses the PALETTE and SHAPE chunk
	// payloads. PREVIEW is never compressed regardless.
	Compress bool
	// PreviewImage, if non-empty, is written as a PREVIEW chunk carrying an
	// opaque thumbnail blob this package does not interpret.
	PreviewImage []byte
}

func algoFor(compress bool) container.Algo {
	if compress {
		return container.AlgoZIP
	}
	return container.AlgoNone
}

// buildOrderedMapping returns, for every live entry in pal, the on-disk
// ordered index a shape's voxel data should use to reference it.
func buildOrderedMapping(pal *palette.ColorPalette) map[uint8]uint8 {
	mapping := make(map[uint8]uint8)
	pal.RefreshOrdering()
	for i := 0; i < palette.MaxEntries; i++ {
		idx := uint8(i)
		ordered, err := pal.EntryToOrdered(idx)
		if err != nil || ordered == palette.InvalidIndex {
			continue
		}
		mapping[idx] = uint8(ordered)
	}
	return mapping
}

// Save writes s to w using the in-place/file writer form: the total size
// field is written as a placeholder, patched once every chunk has been
// written, per the original's seek-and-patch save routine. Chunk order is
// PALETTE, SHAPE, then PREVIEW (if present).
func Save(w container.WriteSeeker, s shape.Shape, opts SaveOptions) error {
	fw, err := container.NewFileWriter(w, algoFor(opts.Compress))
	if err != nil {
		return err
	}

	pal := s.Palette()
	mapping := buildOrderedMapping(pal)

	palettePayload, err := pal.EncodePayload()
	if err != nil {
		return errors.Wrap(err, "encode palette chunk")
	}
	if err := fw.WriteChunk(container.ChunkPalette, palettePayload); err != nil {
		return errors.Wrap(err, "write palette chunk")
	}

	shapePayload, err := shape.EncodeShapePayload(s, shape.EncodeOptions{Mapping: mapping})
	if err != nil {
		return errors.Wrap(err, "encode shape chunk")
	}
	if err := fw.WriteChunk(container.ChunkShape, shapePayload); err != nil {
		return errors.Wrap(err, "write shape chunk")
	}

	if len(opts.PreviewImage) > 0 {
		if err := fw.WriteChunk(container.ChunkPreview, opts.PreviewImage); err != nil {
			return errors.Wrap(err, "write preview chunk")
		}
	}

	return fw.Close()
}

// SaveAsBuffer encodes s into a single exact-size in-memory buffer: every
// chunk's final (possibly compressed) bytes are computed before anything is
// allocated, per the original's buffer-writer save routine. Chunk order is
// PREVIEW (if present), then PALETTE, then SHAPE.
func SaveAsBuffer(s shape.Shape, opts SaveOptions) ([]byte, error) {
	bw := container.NewBufferWriter(algoFor(opts.Compress))

	if len(opts.PreviewImage) > 0 {
		if err := bw.AddChunk(container.ChunkPreview, opts.PreviewImage); err != nil {
			return nil, errors.Wrap(err, "queue preview chunk")
		}
	}

	pal := s.Palette()
	mapping := buildOrderedMapping(pal)

	palettePayload, err := pal.EncodePayload()
	if err != nil {
		return nil, errors.Wrap(err, "encode palette chunk")
	}
	if err := bw.AddChunk(container.ChunkPalette, palettePayload); err != nil {
		return nil, errors.Wrap(err, "queue palette chunk")
	}

	shapePayload, err := shape.EncodeShapePayload(s, shape.EncodeOptions{Mapping: mapping})
	if err != nil {
		return nil, errors.Wrap(err, "encode shape chunk")
	}
	if err := bw.AddChunk(container.ChunkShape, shapePayload); err != nil {
		return nil, errors.Wrap(err, "queue shape chunk")
	}

	return bw.Build()
}
