package palette

import "errors"

var (
	// ErrCapacity is returned when an operation would grow the palette past
	// MaxEntries live entries.
	ErrCapacity = errors.New("palette: capacity exceeded")

	// ErrInvalidIndex is returned when an entry index refers to a slot that
	// is out of range or currently a tombstone (on the free list).
	ErrInvalidIndex = errors.New("palette: invalid entry index")
)
