// Package container implements the v6 chunk codec: the byte-cursor stream
// primitives, the NONE/ZIP compression layer, the two chunk-header dialects,
// and the top-level file header (magic, format version, algorithm, total
// size). It knows nothing about palettes or shapes — those are dispatched
// by id to the packages that do.
package container

import (
	"io"

	"github.com/pkg/errors"
)

// ChunkID identifies a chunk or sub-chunk within a v6 stream.
type ChunkID uint8

// Known chunk ids. The reserved range is 1..=16; a loader must tolerate any
// other value by skipping it with the v5-header dialect.
const (
	ChunkPreview            ChunkID = 1
	ChunkPaletteLegacy      ChunkID = 2
	ChunkShape              ChunkID = 3
	ChunkShapeSize          ChunkID = 4
	ChunkShapeBlocks        ChunkID = 5
	ChunkShapePoint         ChunkID = 6
	ChunkShapeBakedLighting ChunkID = 7
	ChunkShapePointRotation ChunkID = 8
	ChunkPaletteID          ChunkID = 15
	ChunkPalette            ChunkID = 16

	chunkIDMax = 17 // exclusive upper bound of the reserved range
)

// v6HeaderSizeNoID is the size of a v6 chunk header once the id byte (read
// separately by the dispatcher) is accounted for: chunkSize + isCompressed +
// uncompressedSize.
const v6HeaderSizeNoID = 4 + 1 + 4

// usesV6Header reports whether id's on-disk header carries the
// isCompressed/uncompressedSize fields (the "v6-header" dialect). Every
// other id, known or not, uses the older v5-header dialect: id already
// consumed, chunkSize:u32, raw payload.
func usesV6Header(id ChunkID) bool {
	switch id {
	case ChunkPaletteLegacy, ChunkPalette, ChunkPaletteID, ChunkShape:
		return true
	default:
		return false
	}
}

// ReadIdentifier reads a single chunk id byte. A value outside the reserved
// range, or a read failure, yields id 0 (no chunk id is ever legitimately
// zero).
func ReadIdentifier(r Reader) (ChunkID, error) {
	b, err := r.ReadUint8()
	if err != nil {
		return 0, errors.Wrap(ErrIO, err.Error())
	}
	if b == 0 || b >= chunkIDMax {
		return 0, nil
	}
	return ChunkID(b), nil
}

// Chunk is a fully-read, already-decompressed chunk: an id and its raw
// payload bytes.
type Chunk struct {
	ID      ChunkID
	Payload []byte
}

// ReadChunk reads one v6-header chunk body (the id must already have been
// consumed via ReadIdentifier): size, isCompressed, uncompressedSize, then
// the payload, decompressing it if isCompressed != 0. Both chunkSize and
// uncompressedSize must be strictly positive.
func ReadChunk(r Reader, id ChunkID) (Chunk, error) {
	size, err := r.ReadUint32()
	if err != nil {
		return Chunk{}, errors.Wrap(ErrIO, err.Error())
	}
	isCompressed, err := r.ReadUint8()
	if err != nil {
		return Chunk{}, errors.Wrap(ErrIO, err.Error())
	}
	uncompressedSize, err := r.ReadUint32()
	if err != nil {
		return Chunk{}, errors.Wrap(ErrIO, err.Error())
	}
	if size == 0 || uncompressedSize == 0 {
		return Chunk{}, errors.Wrapf(ErrFormat, "chunk %d: zero-size header (chunkSize=%d uncompressedSize=%d)", id, size, uncompressedSize)
	}

	raw, err := r.ReadExact(int(size))
	if err != nil {
		return Chunk{}, errors.Wrap(ErrIO, err.Error())
	}

	if isCompressed == 0 {
		if uint32(len(raw)) != uncompressedSize {
			return Chunk{}, errors.Wrapf(ErrConsistency, "chunk %d: declared uncompressed size %d but payload is %d bytes", id, uncompressedSize, len(raw))
		}
		return Chunk{ID: id, Payload: raw}, nil
	}
	payload, err := Decompress(AlgoZIP, raw, int(uncompressedSize))
	if err != nil {
		return Chunk{}, err
	}
	return Chunk{ID: id, Payload: payload}, nil
}

// ReadChunkV5 reads a v5-header chunk body (id already consumed): a bare
// u32 size followed by the raw, never-compressed payload.
func ReadChunkV5(r Reader, id ChunkID) (Chunk, error) {
	size, err := r.ReadUint32()
	if err != nil {
		return Chunk{}, errors.Wrap(ErrIO, err.Error())
	}
	raw, err := r.ReadExact(int(size))
	if err != nil {
		return Chunk{}, errors.Wrap(ErrIO, err.Error())
	}
	return Chunk{ID: id, Payload: raw}, nil
}

// SkipV6 advances past a v6-header chunk's size/isCompressed/uncompressedSize
// fields and payload (id already consumed), returning the number of bytes
// consumed including the id byte.
func SkipV6(r Reader, id ChunkID) (int, error) {
	size, err := r.ReadUint32()
	if err != nil {
		return 0, errors.Wrap(ErrIO, err.Error())
	}
	if err := r.Skip(1 + 4 + int(size)); err != nil { // isCompressed byte + uncompressedSize u32 + payload
		return 0, err
	}
	_ = id
	return 1 + v6HeaderSizeNoID + int(size), nil
}

// SkipV5 advances past a v5-header chunk's size field and payload (id
// already consumed), returning the number of bytes consumed including the
// id byte.
func SkipV5(r Reader) (int, error) {
	size, err := r.ReadUint32()
	if err != nil {
		return 0, errors.Wrap(ErrIO, err.Error())
	}
	if err := r.Skip(int(size)); err != nil {
		return 0, err
	}
	return 1 + 4 + int(size), nil
}

// WriteChunk emits one chunk using whichever header dialect id calls for.
// PREVIEW, every SHAPE sub-chunk id, and any unknown id are written with
// the v5-header dialect and are never compressed, regardless of compress.
// PALETTE_LEGACY/PALETTE/PALETTE_ID/SHAPE use the v6-header dialect.
func WriteChunk(w io.Writer, id ChunkID, payload []byte, compress bool) error {
	if !usesV6Header(id) {
		return writeChunkV5(w, id, payload)
	}

	uncompressedSize := len(payload)
	data := payload
	isCompressed := uint8(0)
	if compress {
		compressed, err := Compress(AlgoZIP, payload)
		if err != nil {
			return err
		}
		data = compressed
		isCompressed = 1
	}
	return writeChunkV6(w, id, data, isCompressed, uint32(uncompressedSize))
}

// WriteChunkPrecompressed emits a chunk whose payload has already been
// compressed by the caller (used when the writer needs to know the
// compressed size before sizing an enclosing buffer).
func WriteChunkPrecompressed(w io.Writer, id ChunkID, compressed []byte, uncompressedSize uint32) error {
	if !usesV6Header(id) {
		return errors.Errorf("container: chunk %d uses the v5 header dialect and is never compressed", id)
	}
	return writeChunkV6(w, id, compressed, 1, uncompressedSize)
}

func writeChunkV6(w io.Writer, id ChunkID, data []byte, isCompressed uint8, uncompressedSize uint32) error {
	if err := writeUint8(w, uint8(id)); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(data))); err != nil {
		return err
	}
	if err := writeUint8(w, isCompressed); err != nil {
		return err
	}
	if err := writeUint32(w, uncompressedSize); err != nil {
		return err
	}
	_, err := w.Write(data)
	return errors.Wrap(err, "write chunk payload")
}

func writeChunkV5(w io.Writer, id ChunkID, data []byte) error {
	if err := writeUint8(w, uint8(id)); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return errors.Wrap(err, "write chunk payload")
}

// SizeV6 returns the on-disk size of a v6-header chunk given its payload size.
func SizeV6(payloadSize int) int {
	return 1 + v6HeaderSizeNoID + payloadSize
}

// SizeV5 returns the on-disk size of a v5-header chunk given its payload size.
func SizeV5(payloadSize int) int {
	return 1 + 4 + payloadSize
}
