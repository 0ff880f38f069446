package shape

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kamikoluna/cubzh/container"
	"github.com/kamikoluna/cubzh/palette"
)

// DecodeOptions carries everything the caller's reader state machine has
// already resolved before handing the SHAPE chunk's payload to this
// package: which default-palette substitution (if any) applies, the
// palette the file itself carried (if a custom one was already read), an
// optional shrink-source palette consulted during a shrunk-custom-palette
// read, and the shape flavor to construct.
type DecodeOptions struct {
	Kind              Kind
	PaletteID         palette.PaletteID
	SerializedPalette *palette.ColorPalette
	ShrinkPalette     *palette.ColorPalette
	Logger            logrus.FieldLogger
	// WantsBakedLighting mirrors the caller-supplied lighting flag the
	// original reader threads into its shape constructors: it decides
	// UsesBakedLighting on the returned shape regardless of whether a
	// SHAPE_BAKED_LIGHTING sub-chunk is present or well-formed. It is
	// ignored for KindGrowable, which never uses baked lighting.
	WantsBakedLighting bool
}

// DecodeShapePayload parses an already-decompressed SHAPE chunk payload.
// The payload is a sequence of v5-header sub-chunks that may arrive in any
// order; this function scans the whole payload once to find every
// sub-chunk before processing any of them, so SHAPE_SIZE is always applied
// before SHAPE_BLOCKS regardless of which one the writer emitted first.
func DecodeShapePayload(payload []byte, opts DecodeOptions) (*DenseShape, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	subs, err := scanSubChunks(payload)
	if err != nil {
		return nil, errors.Wrap(err, "scan shape sub-chunks")
	}

	sizePayload, ok := findSubChunk(subs, container.ChunkShapeSize)
	if !ok {
		return nil, errors.New("shape: payload has no SHAPE_SIZE sub-chunk")
	}
	w, h, d, err := decodeSize(sizePayload)
	if err != nil {
		return nil, err
	}
	if err := validateSize(w, h, d); err != nil {
		return nil, err
	}

	s := newDenseShape(opts.Kind, w, h, d)
	// A growable shape never uses baked lighting, whatever the caller asks.
	wantsLighting := opts.WantsBakedLighting && opts.Kind != KindGrowable
	s.SetUsesBakedLighting(wantsLighting)
	if opts.PaletteID == palette.PaletteIDCustom && opts.ShrinkPalette == nil && opts.SerializedPalette != nil {
		s.SetPalette(opts.SerializedPalette)
	}

	if blocksPayload, ok := findSubChunk(subs, container.ChunkShapeBlocks); ok {
		s.Palette().SetLogger(logger)
		sub := blockSubstitution{
			paletteID:     opts.PaletteID,
			targetPalette: s.Palette(),
			shrinkPalette: opts.ShrinkPalette,
			log:           logger,
		}
		if err := decodeBlocks(s, blocksPayload, sub); err != nil {
			return nil, errors.Wrap(err, "decode shape blocks")
		}
	}

	minX, minY, minZ := s.BoundingBoxMin()
	for _, p := range findAllSubChunks(subs, container.ChunkShapePoint) {
		poi, err := decodePoint(p)
		if err != nil {
			return nil, errors.Wrap(err, "decode point of interest")
		}
		s.SetPointOfInterest(poi.Name, poi.X+float32(minX), poi.Y+float32(minY), poi.Z+float32(minZ))
	}
	for _, p := range findAllSubChunks(subs, container.ChunkShapePointRotation) {
		poi, err := decodePoint(p)
		if err != nil {
			return nil, errors.Wrap(err, "decode point rotation")
		}
		s.SetPointRotation(poi.Name, poi.X, poi.Y, poi.Z)
	}

	if lightingPayload, ok := findSubChunk(subs, container.ChunkShapeBakedLighting); ok {
		if !wantsLighting {
			logger.Warn("baked lighting data present but shape does not want lighting, discarding")
		} else {
			want := w * h * d * 2
			if len(lightingPayload) != want {
				logger.WithFields(logrus.Fields{
					"got":  len(lightingPayload),
					"want": want,
				}).Warn("shape uses lighting but baked lighting payload size mismatch, discarding")
			} else if err := decodeBakedLighting(s, lightingPayload); err != nil {
				return nil, errors.Wrap(err, "decode baked lighting")
			}
		}
	} else if wantsLighting {
		logger.Warn("shape uses lighting but no baked lighting found")
	}

	return s, nil
}

// EncodeOptions controls what EncodeShapePayload emits beyond the block
// grid itself.
type EncodeOptions struct {
	// Mapping translates live palette entry indices to the on-disk voxel
	// indices this SHAPE chunk should use (identity when the shape's own
	// palette is serialized alongside it unshrunk).
	Mapping map[uint8]uint8
}

// EncodeShapePayload assembles a SHAPE chunk payload: SHAPE_SIZE, then
// SHAPE_BLOCKS, then one SHAPE_POINT sub-chunk per point of interest
// (positions offset by BoundingBoxMin), then one SHAPE_POINT_ROTATION
// sub-chunk per rotation point (written without that offset), then
// SHAPE_BAKED_LIGHTING if the shape uses it.
func EncodeShapePayload(s Shape, opts EncodeOptions) ([]byte, error) {
	w, h, d := s.Size()
	if err := validateSize(w, h, d); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := container.WriteChunk(&buf, container.ChunkShapeSize, encodeSize(w, h, d), false); err != nil {
		return nil, err
	}
	if err := container.WriteChunk(&buf, container.ChunkShapeBlocks, encodeBlocks(s, opts.Mapping), false); err != nil {
		return nil, err
	}

	minX, minY, minZ := s.BoundingBoxMin()
	for _, poi := range s.PointsOfInterest() {
		offset := PointOfInterest{
			Name: poi.Name,
			X:    poi.X - float32(minX),
			Y:    poi.Y - float32(minY),
			Z:    poi.Z - float32(minZ),
		}
		if err := container.WriteChunk(&buf, container.ChunkShapePoint, encodePoint(offset), false); err != nil {
			return nil, err
		}
	}
	for _, poi := range s.PointRotations() {
		if err := container.WriteChunk(&buf, container.ChunkShapePointRotation, encodePoint(poi), false); err != nil {
			return nil, err
		}
	}

	if s.UsesBakedLighting() {
		if err := container.WriteChunk(&buf, container.ChunkShapeBakedLighting, encodeBakedLighting(s), false); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
