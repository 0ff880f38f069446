package container

import "errors"

// Error kinds returned by the chunk codec and file-level reader/writer, per
// the five-way classification of the container's error handling design:
// IO, Format, Compression, Capacity, Consistency. They are sentinels so
// callers can classify a wrapped error with errors.Is after unwrapping the
// github.com/pkg/errors stack added at the point of failure.
var (
	// ErrIO covers short reads/writes and any failure of the underlying
	// stream.
	ErrIO = errors.New("container: io error")

	// ErrFormat covers malformed headers, bad magic, unknown algorithm ids,
	// and zero-size chunks where the codec requires a positive size.
	ErrFormat = errors.New("container: malformed format")

	// ErrCompression covers zlib failures on either side of the pipe.
	ErrCompression = errors.New("container: compression error")

	// ErrConsistency covers cross-field mismatches such as an uncompressed
	// chunk whose declared uncompressed size doesn't match its payload length.
	ErrConsistency = errors.New("container: inconsistent data")
)
