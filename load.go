package cubzh

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kamikoluna/cubzh/container"
	"github.com/kamikoluna/cubzh/palette"
	"github.com/kamikoluna/cubzh/shape"
)

// LoadOptions controls how Load constructs the shape it decodes.
type LoadOptions struct {
	// Kind selects which of the three shape flavors to construct. Zero
	// value is shape.KindGrowable.
	Kind shape.Kind
	// WantsBakedLighting mirrors the caller-supplied lighting flag the
	// original reader takes as a load parameter: it decides the decoded
	// shape's UsesBakedLighting flag regardless of whether a
	// SHAPE_BAKED_LIGHTING sub-chunk turns out to be present or
	// well-formed. It has no effect when Kind is shape.KindGrowable.
	WantsBakedLighting bool
}

// Load reads a full v6 stream, decoding its palette and shape chunks. It
// returns the decoded shape and any PREVIEW payload found along the way
// (nil if none was present).
//
// A second PALETTE/PALETTE_LEGACY chunk arriving after SHAPE has already
// consumed one is discarded with a warning rather than treated as an error,
// matching the original reader's tolerance for that malformed-but-common
// case.
func Load(r io.Reader, opts LoadOptions) (*shape.DenseShape, []byte, error) {
	sr := container.NewStreamReader(r)

	var previewData []byte
	var serializedPalette *palette.ColorPalette
	paletteLocked := false
	paletteID := palette.PaletteIDLegacyPico8p
	var result *shape.DenseShape

	_, err := container.WalkChunks(sr, func(c container.Chunk) error {
		switch c.ID {
		case container.ChunkPreview:
			previewData = c.Payload

		case container.ChunkPaletteLegacy:
			if paletteLocked {
				logger.WithFields(logrus.Fields{"chunk": "PALETTE_LEGACY"}).
					Warn("discarding palette chunk received after shape")
				return nil
			}
			p, err := palette.DecodeLegacyPayload(c.Payload)
			if err != nil {
				return errors.Wrap(err, "decode legacy palette chunk")
			}
			serializedPalette = p
			paletteID = palette.PaletteIDCustom

		case container.ChunkPalette:
			if paletteLocked {
				logger.WithFields(logrus.Fields{"chunk": "PALETTE"}).
					Warn("discarding palette chunk received after shape")
				return nil
			}
			p, err := palette.DecodePayload(c.Payload)
			if err != nil {
				return errors.Wrap(err, "decode palette chunk")
			}
			serializedPalette = p
			paletteID = palette.PaletteIDCustom

		case container.ChunkPaletteID:
			if len(c.Payload) < 1 {
				return errors.New("cubzh: PALETTE_ID payload is empty")
			}
			paletteID = palette.PaletteID(c.Payload[0])

		case container.ChunkShape:
			paletteLocked = true
			s, err := shape.DecodeShapePayload(c.Payload, shape.DecodeOptions{
				Kind:               opts.Kind,
				PaletteID:          paletteID,
				SerializedPalette:  serializedPalette,
				Logger:             logger,
				WantsBakedLighting: opts.WantsBakedLighting,
			})
			if err != nil {
				return errors.Wrap(err, "decode shape chunk")
			}
			result = s
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if result == nil {
		return nil, previewData, errors.New("cubzh: stream has no SHAPE chunk")
	}
	return result, previewData, nil
}

// GetPreviewData scans r for a PREVIEW chunk without decoding the shape or
// palette at all, for callers that only want a thumbnail. It reports
// whether a PREVIEW chunk was present.
func GetPreviewData(r io.Reader) ([]byte, bool, error) {
	return container.ScanForPreview(container.NewStreamReader(r))
}
