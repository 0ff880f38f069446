package container

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Reader is the primitive contract the v6 codec needs from an input source:
// fixed-width little-endian integer reads, raw byte reads, and bounded
// skipping. Both a sequential stream (bufio.Reader over a file or socket)
// and a fully-buffered in-memory slice satisfy it.
type Reader interface {
	ReadUint8() (uint8, error)
	ReadUint16() (uint16, error)
	ReadUint32() (uint32, error)
	ReadExact(n int) ([]byte, error)
	Skip(n int) error
	Position() int64
}

// Seeker is implemented by readers that can reposition to an absolute offset:
// SliceReader implements it, StreamReader does not. The file writer patches
// its total-size field through io.Seeker (see WriteSeeker), not through this
// interface.
type Seeker interface {
	Seek(abs int64) error
}

// StreamReader adapts any io.Reader to Reader. Reads are sequential; there is
// no rewinding, matching the single-threaded, forward-only decode model of
// spec §5.
type StreamReader struct {
	r   *bufio.Reader
	pos int64
}

// NewStreamReader wraps r for sequential little-endian reads.
func NewStreamReader(r io.Reader) *StreamReader {
	if br, ok := r.(*bufio.Reader); ok {
		return &StreamReader{r: br}
	}
	return &StreamReader{r: bufio.NewReader(r)}
}

func (s *StreamReader) ReadUint8() (uint8, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(err, "read u8")
	}
	s.pos++
	return b, nil
}

func (s *StreamReader) ReadUint16() (uint16, error) {
	buf, err := s.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (s *StreamReader) ReadUint32() (uint32, error) {
	buf, err := s.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (s *StreamReader) ReadExact(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		return nil, errors.Wrapf(err, "read %d bytes", n)
	}
	s.pos += int64(n)
	return buf, nil
}

func (s *StreamReader) Skip(n int) error {
	if n <= 0 {
		return nil
	}
	discarded, err := s.r.Discard(n)
	s.pos += int64(discarded)
	if err != nil {
		return errors.Wrapf(err, "skip %d bytes", n)
	}
	return nil
}

func (s *StreamReader) Position() int64 { return s.pos }

// SliceReader is a zero-copy Reader over an in-memory buffer, used for the
// SHAPE chunk's decompressed sub-chunk payload and for any fully-buffered
// decode path. It additionally supports Seek since random access within a
// buffer is free.
type SliceReader struct {
	buf []byte
	pos int
}

// NewSliceReader wraps buf for sequential or random-access little-endian reads.
func NewSliceReader(buf []byte) *SliceReader {
	return &SliceReader{buf: buf}
}

func (s *SliceReader) ReadUint8() (uint8, error) {
	buf, err := s.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (s *SliceReader) ReadUint16() (uint16, error) {
	buf, err := s.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

func (s *SliceReader) ReadUint32() (uint32, error) {
	buf, err := s.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (s *SliceReader) ReadExact(n int) ([]byte, error) {
	if n < 0 || s.pos+n > len(s.buf) {
		return nil, errors.Wrapf(ErrIO, "read %d bytes at offset %d: out of range (len %d)", n, s.pos, len(s.buf))
	}
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

func (s *SliceReader) Skip(n int) error {
	if n < 0 || s.pos+n > len(s.buf) {
		return errors.Wrapf(ErrIO, "skip %d bytes at offset %d: out of range", n, s.pos)
	}
	s.pos += n
	return nil
}

func (s *SliceReader) Position() int64 { return int64(s.pos) }

// Seek repositions the cursor to an absolute offset within the buffer.
func (s *SliceReader) Seek(abs int64) error {
	if abs < 0 || abs > int64(len(s.buf)) {
		return errors.Wrapf(ErrIO, "seek to %d: out of range (len %d)", abs, len(s.buf))
	}
	s.pos = int(abs)
	return nil
}

// Remaining returns the unread tail of the buffer without advancing the cursor.
func (s *SliceReader) Remaining() []byte {
	return s.buf[s.pos:]
}

func writeUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return errors.Wrap(err, "write u8")
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return errors.Wrap(err, "write u32")
}

func putUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}
