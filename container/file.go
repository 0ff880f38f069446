package container

import (
	"io"

	"github.com/pkg/errors"
)

// MagicBytes opens every v6 stream. Its value is this project's own choice
// of identifier bytes for the format family the original C sources refer to
// by their P3S_CHUNK_ID_* constant prefix.
var MagicBytes = []byte{'P', '3', 'S', 0}

// FormatVersion is the only format number this codec reads or writes.
const FormatVersion uint32 = 6

// headerSize is magic + format(u32) + algo(u8) + totalSize(u32).
var headerSize = len(MagicBytes) + 4 + 1 + 4

// Header is the parsed fixed portion of a v6 stream, preceding the chunk
// sequence.
type Header struct {
	Format    uint32
	Algo      Algo
	TotalSize uint32
}

// ReadHeader reads and validates the magic bytes, format version, algorithm
// id and total size field that open every v6 stream.
func ReadHeader(r Reader) (Header, error) {
	magic, err := r.ReadExact(len(MagicBytes))
	if err != nil {
		return Header{}, errors.Wrap(ErrIO, err.Error())
	}
	for i, b := range MagicBytes {
		if magic[i] != b {
			return Header{}, errors.Wrapf(ErrFormat, "bad magic bytes %x", magic)
		}
	}
	format, err := r.ReadUint32()
	if err != nil {
		return Header{}, errors.Wrap(ErrIO, err.Error())
	}
	if format != FormatVersion {
		return Header{}, errors.Wrapf(ErrFormat, "unsupported format version %d", format)
	}
	algoByte, err := r.ReadUint8()
	if err != nil {
		return Header{}, errors.Wrap(ErrIO, err.Error())
	}
	algo := Algo(algoByte)
	if !algo.Valid() {
		return Header{}, errors.Wrapf(ErrFormat, "unknown algorithm id %d", algoByte)
	}
	totalSize, err := r.ReadUint32()
	if err != nil {
		return Header{}, errors.Wrap(ErrIO, err.Error())
	}
	return Header{Format: format, Algo: algo, TotalSize: totalSize}, nil
}

// ChunkHandler is invoked once per top-level chunk found while walking a v6
// stream. Returning an error aborts the walk.
type ChunkHandler func(Chunk) error

// WalkChunks reads the file header and then dispatches every top-level
// chunk to handle, selecting the v5 or v6 header dialect by id, until
// header.TotalSize bytes following the header have been consumed.
func WalkChunks(r Reader, handle ChunkHandler) (Header, error) {
	header, err := ReadHeader(r)
	if err != nil {
		return Header{}, err
	}
	start := r.Position()
	for r.Position()-start < int64(header.TotalSize) {
		id, err := ReadIdentifier(r)
		if err != nil {
			return header, err
		}
		var chunk Chunk
		if usesV6Header(id) {
			chunk, err = ReadChunk(r, id)
		} else {
			chunk, err = ReadChunkV5(r, id)
		}
		if err != nil {
			return header, err
		}
		if err := handle(chunk); err != nil {
			return header, err
		}
	}
	return header, nil
}

// ScanForPreview walks a v6 stream looking only for the PREVIEW chunk,
// skipping every other chunk's payload unread. It stops as soon as PREVIEW
// is found, so it never pays for a full shape decode. It reports whether a
// PREVIEW chunk was present.
func ScanForPreview(r Reader) (data []byte, found bool, err error) {
	header, err := ReadHeader(r)
	if err != nil {
		return nil, false, err
	}
	start := r.Position()
	for r.Position()-start < int64(header.TotalSize) {
		id, err := ReadIdentifier(r)
		if err != nil {
			return nil, false, err
		}
		if id == ChunkPreview {
			chunk, err := ReadChunkV5(r, id)
			if err != nil {
				return nil, false, err
			}
			return chunk.Payload, true, nil
		}
		if usesV6Header(id) {
			if _, err := SkipV6(r, id); err != nil {
				return nil, false, err
			}
		} else {
			if _, err := SkipV5(r); err != nil {
				return nil, false, err
			}
		}
	}
	return nil, false, nil
}

// WriteSeeker is the minimal contract FileWriter needs from its
// destination: sequential writes plus the ability to patch the total-size
// field after the fact.
type WriteSeeker interface {
	io.Writer
	io.Seeker
}

// FileWriter implements the in-place/file writer form: it writes the magic,
// format, algorithm and a placeholder total size, lets the caller stream
// chunks through Write, then seeks back and patches the total size once the
// caller is done.
type FileWriter struct {
	w                     WriteSeeker
	algo                  Algo
	positionBeforeChunks  int64
	bytesWrittenAfterSize int64
}

// NewFileWriter writes the fixed header (with a placeholder total size) to w
// and returns a FileWriter ready to stream chunks.
func NewFileWriter(w WriteSeeker, algo Algo) (*FileWriter, error) {
	if _, err := w.Write(MagicBytes); err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	if err := writeUint32(w, FormatVersion); err != nil {
		return nil, err
	}
	if err := writeUint8(w, uint8(algo)); err != nil {
		return nil, err
	}
	if err := writeUint32(w, 0); err != nil { // placeholder, patched by Close
		return nil, err
	}
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	return &FileWriter{w: w, algo: algo, positionBeforeChunks: pos}, nil
}

// WriteChunk appends one chunk to the stream, compressing its payload with
// the writer's algorithm unless id is PREVIEW.
func (fw *FileWriter) WriteChunk(id ChunkID, payload []byte) error {
	compress := fw.algo != AlgoNone && id != ChunkPreview
	return WriteChunk(fw.w, id, payload, compress)
}

// Close patches the total-size field with the number of bytes written since
// the header, by seeking back to the placeholder and forward again.
func (fw *FileWriter) Close() error {
	end, err := fw.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	totalSize := uint32(end - fw.positionBeforeChunks)
	if _, err := fw.w.Seek(fw.positionBeforeChunks-4, io.SeekStart); err != nil {
		return errors.Wrap(ErrIO, err.Error())
	}
	if err := writeUint32(fw.w, totalSize); err != nil {
		return err
	}
	_, err = fw.w.Seek(end, io.SeekStart)
	return errors.Wrap(err, "seek back to end of stream")
}

// PrecomputedChunk is one chunk to be written by BufferWriter, already
// carrying its exact on-disk payload (compressed if applicable) so the
// buffer size can be computed before any bytes are written.
type PrecomputedChunk struct {
	ID               ChunkID
	Data             []byte // on-disk payload: compressed bytes for v6-header chunks, raw bytes for PREVIEW
	UncompressedSize uint32 // ignored for PREVIEW
	Compressed       bool   // ignored for PREVIEW
}

// size returns this chunk's total on-disk footprint, including its header.
func (c PrecomputedChunk) size() int {
	if c.ID == ChunkPreview {
		return SizeV5(len(c.Data))
	}
	return SizeV6(len(c.Data))
}

// BufferWriter implements the buffered/memory writer form: every chunk's
// final on-disk bytes are computed up front so the whole stream fits in one
// exact-size allocation, with the total-size field patched by index instead
// of a seek.
type BufferWriter struct {
	algo   Algo
	chunks []PrecomputedChunk
}

// NewBufferWriter starts a buffered write using algo as the file-level
// compression algorithm.
func NewBufferWriter(algo Algo) *BufferWriter {
	return &BufferWriter{algo: algo}
}

// AddChunk queues a chunk for the final buffer. Payload is compressed here
// (unless id is PREVIEW or the writer's algorithm is AlgoNone) so its
// compressed size is known before Build allocates.
func (bw *BufferWriter) AddChunk(id ChunkID, payload []byte) error {
	if id == ChunkPreview || bw.algo == AlgoNone {
		bw.chunks = append(bw.chunks, PrecomputedChunk{ID: id, Data: payload, UncompressedSize: uint32(len(payload))})
		return nil
	}
	compressed, err := Compress(bw.algo, payload)
	if err != nil {
		return err
	}
	bw.chunks = append(bw.chunks, PrecomputedChunk{
		ID:               id,
		Data:             compressed,
		UncompressedSize: uint32(len(payload)),
		Compressed:       true,
	})
	return nil
}

// Build assembles the final buffer: header with an exact total size,
// followed by every queued chunk in order.
func (bw *BufferWriter) Build() ([]byte, error) {
	total := 0
	for _, c := range bw.chunks {
		total += c.size()
	}
	out := make([]byte, 0, headerSize+total)
	out = append(out, MagicBytes...)

	var formatBuf [4]byte
	putUint32(formatBuf[:], FormatVersion)
	out = append(out, formatBuf[:]...)
	out = append(out, uint8(bw.algo))

	var sizeBuf [4]byte
	putUint32(sizeBuf[:], uint32(total))
	out = append(out, sizeBuf[:]...)

	for _, c := range bw.chunks {
		if c.ID == ChunkPreview {
			out = append(out, uint8(c.ID))
			var n [4]byte
			putUint32(n[:], uint32(len(c.Data)))
			out = append(out, n[:]...)
			out = append(out, c.Data...)
			continue
		}
		out = append(out, uint8(c.ID))
		var n [4]byte
		putUint32(n[:], uint32(len(c.Data)))
		out = append(out, n[:]...)
		isCompressed := uint8(0)
		if c.Compressed {
			isCompressed = 1
		}
		out = append(out, isCompressed)
		var u [4]byte
		putUint32(u[:], c.UncompressedSize)
		out = append(out, u[:]...)
		out = append(out, c.Data...)
	}
	return out, nil
}
