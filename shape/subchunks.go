package shape

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kamikoluna/cubzh/container"
	"github.com/kamikoluna/cubzh/palette"
)

// rawSubChunk is one sub-chunk of the SHAPE payload before interpretation:
// just an id and its v5-header-delimited bytes. Sub-chunks are never
// compressed individually; the whole SHAPE payload is compressed once, at
// the container level.
type rawSubChunk struct {
	id      container.ChunkID
	payload []byte
}

// scanSubChunks performs the first pass over an already-decompressed SHAPE
// payload: a single left-to-right walk that records every sub-chunk's id
// and payload without interpreting any of them. This is what lets the
// second pass process SHAPE_SIZE before SHAPE_BLOCKS regardless of which
// one the writer put first.
func scanSubChunks(payload []byte) ([]rawSubChunk, error) {
	r := container.NewSliceReader(payload)
	var out []rawSubChunk
	for len(r.Remaining()) > 0 {
		id, err := container.ReadIdentifier(r)
		if err != nil {
			return nil, err
		}
		chunk, err := container.ReadChunkV5(r, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rawSubChunk{id: chunk.ID, payload: chunk.Payload})
	}
	return out, nil
}

func findSubChunk(chunks []rawSubChunk, id container.ChunkID) ([]byte, bool) {
	for _, c := range chunks {
		if c.id == id {
			return c.payload, true
		}
	}
	return nil, false
}

func findAllSubChunks(chunks []rawSubChunk, id container.ChunkID) [][]byte {
	var out [][]byte
	for _, c := range chunks {
		if c.id == id {
			out = append(out, c.payload)
		}
	}
	return out
}

func decodeSize(payload []byte) (w, h, d int, err error) {
	if len(payload) != 6 {
		return 0, 0, 0, errors.Errorf("shape: SHAPE_SIZE payload must be 6 bytes, got %d", len(payload))
	}
	w = int(binary.LittleEndian.Uint16(payload[0:2]))
	h = int(binary.LittleEndian.Uint16(payload[2:4]))
	d = int(binary.LittleEndian.Uint16(payload[4:6]))
	return w, h, d, nil
}

func encodeSize(w, h, d int) []byte {
	buf := make([]byte, 6)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(w))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(d))
	return buf
}

// blockSubstitution resolves one on-disk voxel color index into a live
// palette entry index. It never fails outright: any lookup failure (an
// out-of-range shrink-palette index, a full palette) falls back to entry
// index 0, matching the original reader's tolerance for malformed legacy
// data.
type blockSubstitution struct {
	paletteID     palette.PaletteID
	targetPalette *palette.ColorPalette
	shrinkPalette *palette.ColorPalette // non-nil only when substituting from a shrunk custom palette
	log           logrus.FieldLogger
}

func (b blockSubstitution) resolve(raw uint8) uint8 {
	switch b.paletteID {
	case palette.PaletteIDLegacyPico8p:
		return b.targetPalette.CheckAndAddDefaultColorPico8p(raw)
	case palette.PaletteID2021:
		return b.targetPalette.CheckAndAddDefaultColor2021(raw)
	default:
		if b.shrinkPalette == nil {
			// Custom, non-shrunk palette: the on-disk index already refers
			// directly to the live palette.
			return raw
		}
		c, err := b.shrinkPalette.GetColor(raw)
		if err != nil {
			b.log.WithFields(logrus.Fields{"index": raw, "error": err.Error()}).
				Warn("shrink palette lookup failed, falling back to entry 0")
			return 0
		}
		idx, err := b.targetPalette.CheckAndAddColor(c, false)
		if err != nil {
			b.log.WithFields(logrus.Fields{"index": raw, "error": err.Error()}).
				Warn("palette full during shrink-palette substitution, falling back to entry 0")
			return 0
		}
		return idx
	}
}

// decodeBlocks fills s's grid from a SHAPE_BLOCKS payload (w*h*d bytes,
// x-major/y/z iteration order), translating every non-Air voxel through
// sub.
func decodeBlocks(s *DenseShape, payload []byte, sub blockSubstitution) error {
	w, h, d := s.Size()
	want := w * h * d
	if len(payload) != want {
		return errors.Errorf("shape: SHAPE_BLOCKS payload is %d bytes, expected %d for %dx%dx%d", len(payload), want, w, h, d)
	}
	i := 0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			for z := 0; z < d; z++ {
				raw := payload[i]
				i++
				if raw == Air {
					continue
				}
				s.SetBlock(x, y, z, sub.resolve(raw))
			}
		}
	}
	return nil
}

// encodeBlocks serializes s's grid to a SHAPE_BLOCKS payload, translating
// every voxel's live entry index through mapping (entry index -> on-disk
// index), substituting Air for any block mapping does not cover.
func encodeBlocks(s Shape, mapping map[uint8]uint8) []byte {
	w, h, d := s.Size()
	out := make([]byte, w*h*d)
	i := 0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			for z := 0; z < d; z++ {
				v := s.GetBlock(x, y, z)
				if v == Air {
					out[i] = Air
				} else if mapped, ok := mapping[v]; ok {
					out[i] = mapped
				} else {
					out[i] = Air
				}
				i++
			}
		}
	}
	return out
}

func decodePoint(payload []byte) (PointOfInterest, error) {
	if len(payload) < 1 {
		return PointOfInterest{}, errors.New("shape: point payload too short for name length")
	}
	nameLen := int(payload[0])
	if len(payload) != 1+nameLen+12 {
		return PointOfInterest{}, errors.Errorf("shape: point payload is %d bytes, expected %d", len(payload), 1+nameLen+12)
	}
	name := string(payload[1 : 1+nameLen])
	o := 1 + nameLen
	x := math.Float32frombits(binary.LittleEndian.Uint32(payload[o : o+4]))
	y := math.Float32frombits(binary.LittleEndian.Uint32(payload[o+4 : o+8]))
	z := math.Float32frombits(binary.LittleEndian.Uint32(payload[o+8 : o+12]))
	return PointOfInterest{Name: name, X: x, Y: y, Z: z}, nil
}

func encodePoint(p PointOfInterest) []byte {
	nameBytes := []byte(p.Name)
	out := make([]byte, 1+len(nameBytes)+12)
	out[0] = uint8(len(nameBytes))
	copy(out[1:], nameBytes)
	o := 1 + len(nameBytes)
	binary.LittleEndian.PutUint32(out[o:o+4], math.Float32bits(p.X))
	binary.LittleEndian.PutUint32(out[o+4:o+8], math.Float32bits(p.Y))
	binary.LittleEndian.PutUint32(out[o+8:o+12], math.Float32bits(p.Z))
	return out
}

// decodeBakedLighting unpacks a SHAPE_BAKED_LIGHTING payload into s's light
// buffer. Each voxel is packed into two bytes: byte1 = (red<<4 | ambient),
// byte2 = (blue<<4 | green). It does not touch s's UsesBakedLighting flag:
// that is decided by the caller's lighting intent, independent of whether
// this particular payload turns out to be present or well-formed.
func decodeBakedLighting(s *DenseShape, payload []byte) error {
	w, h, d := s.Size()
	want := w * h * d * 2
	if len(payload) != want {
		return errors.Errorf("shape: baked lighting payload is %d bytes, expected %d for %dx%dx%d", len(payload), want, w, h, d)
	}
	i := 0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			for z := 0; z < d; z++ {
				b1, b2 := payload[i], payload[i+1]
				i += 2
				red := b1 >> 4
				ambient := b1 - (red << 4)
				blue := b2 >> 4
				green := b2 - (blue << 4)
				s.SetLight(x, y, z, Light{R: red, G: green, B: blue, Ambient: ambient})
			}
		}
	}
	return nil
}

// encodeBakedLighting packs s's light buffer to a SHAPE_BAKED_LIGHTING
// payload.
func encodeBakedLighting(s Shape) []byte {
	w, h, d := s.Size()
	out := make([]byte, w*h*d*2)
	i := 0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			for z := 0; z < d; z++ {
				l := s.GetLight(x, y, z)
				out[i] = (l.R << 4) | l.Ambient
				out[i+1] = (l.B << 4) | l.G
				i += 2
			}
		}
	}
	return out
}
