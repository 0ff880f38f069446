package container

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// Algo is the one-byte compression algorithm identifier carried in the file
// header and (for v6-header chunks) the isCompressed byte.
type Algo uint8

const (
	// AlgoNone stores chunk payloads verbatim.
	AlgoNone Algo = 0
	// AlgoZIP is zlib-wrapped DEFLATE, the only algorithm current writers emit.
	AlgoZIP Algo = 1

	algoCount = 2
)

// Valid reports whether a is a recognized algorithm id.
func (a Algo) Valid() bool { return a < algoCount }

// Compress returns buf compressed with a. The compressed size is an output
// of this call; callers needing to size an enclosing buffer must compress
// before allocating.
func Compress(a Algo, buf []byte) ([]byte, error) {
	switch a {
	case AlgoNone:
		return buf, nil
	case AlgoZIP:
		var out bytes.Buffer
		zw := zlib.NewWriter(&out)
		if _, err := zw.Write(buf); err != nil {
			return nil, errors.Wrap(ErrCompression, err.Error())
		}
		if err := zw.Close(); err != nil {
			return nil, errors.Wrap(ErrCompression, err.Error())
		}
		return out.Bytes(), nil
	default:
		return nil, errors.Wrapf(ErrFormat, "unknown compression algo %d", a)
	}
}

// Decompress inflates buf with a, expecting exactly uncompressedSize bytes
// of output. uncompressedSize is authoritative: it comes from the chunk
// header, not from the compressed stream.
func Decompress(a Algo, buf []byte, uncompressedSize int) ([]byte, error) {
	switch a {
	case AlgoNone:
		if len(buf) != uncompressedSize {
			return nil, errors.Wrapf(ErrConsistency, "uncompressed size mismatch: got %d want %d", len(buf), uncompressedSize)
		}
		return buf, nil
	case AlgoZIP:
		zr, err := zlib.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, errors.Wrap(ErrCompression, err.Error())
		}
		defer zr.Close()
		out := make([]byte, uncompressedSize)
		if _, err := io.ReadFull(zr, out); err != nil {
			return nil, errors.Wrap(ErrCompression, err.Error())
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrFormat, "unknown compression algo %d", a)
	}
}
