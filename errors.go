// Package cubzh ties the container, palette and shape packages together
// into the top-level v6 voxel asset codec: Save, Load and GetPreviewData.
package cubzh

import (
	"github.com/kamikoluna/cubzh/container"
	"github.com/kamikoluna/cubzh/palette"
)

// The five error kinds a caller of this package's top-level functions may
// see, re-exported from the packages that actually detect them so a caller
// only importing cubzh doesn't also need to import container or palette to
// classify a failure with errors.Is.
var (
	ErrIO          = container.ErrIO
	ErrFormat      = container.ErrFormat
	ErrCompression = container.ErrCompression
	ErrConsistency = container.ErrConsistency
	ErrCapacity    = palette.ErrCapacity
)
