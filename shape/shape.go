// Package shape implements the SHAPE chunk's sub-chunk codec and a
// reference Shape implementation the codec can be exercised against. The
// block grid's internal storage strategy (flat array, octree, or a growable
// structure) is a collaborator of this module, not something it decodes —
// DenseShape exists only to give the three constructor flavors a concrete,
// testable backing.
package shape

import (
	"github.com/pkg/errors"

	"github.com/kamikoluna/cubzh/palette"
)

// Air is the sentinel palette index meaning "no block here".
const Air uint8 = 255

// Light is a baked vertex light sample: three 4-bit color channels plus a
// 4-bit ambient term, as packed by the two-byte SHAPE_BAKED_LIGHTING wire
// record.
type Light struct {
	R, G, B, Ambient uint8
}

// PointOfInterest is a named float position attached to a shape, used both
// for points of interest (stored relative to the shape's bounding box
// minimum) and point rotations (stored in absolute block coordinates).
type PointOfInterest struct {
	Name       string
	X, Y, Z    float32
}

// Kind distinguishes the three constructor flavors for diagnostic purposes.
// It does not change DenseShape's behavior: the underlying grid algorithm
// (octree vs. flat array vs. growable) is out of this module's scope, and
// every Kind is backed by the same dense storage here.
type Kind uint8

const (
	KindGrowable  Kind = iota // shape_make
	KindFixedSize             // shape_make_with_fixed_size
	KindOctree                // shape_make_with_octree
)

// Shape is the external contract the SHAPE chunk codec needs from a block
// grid: size, per-voxel palette index access, the palette it renders
// against, named points of interest (two flavors), and optional baked
// lighting.
type Shape interface {
	Kind() Kind
	Size() (w, h, d int)

	GetBlock(x, y, z int) uint8
	SetBlock(x, y, z int, paletteIndex uint8)

	Palette() *palette.ColorPalette
	SetPalette(p *palette.ColorPalette)

	SetPointOfInterest(name string, x, y, z float32)
	PointsOfInterest() []PointOfInterest

	SetPointRotation(name string, x, y, z float32)
	PointRotations() []PointOfInterest

	UsesBakedLighting() bool
	SetUsesBakedLighting(bool)
	GetLight(x, y, z int) Light
	SetLight(x, y, z int, l Light)

	// BoundingBoxMin is the offset subtracted from a point of interest's
	// position before it is written to a SHAPE_POINT sub-chunk. Point
	// rotations are written without this subtraction.
	BoundingBoxMin() (x, y, z int)
}

// DenseShape is a flat-array Shape implementation backing all three
// constructor flavors.
type DenseShape struct {
	kind Kind
	w, h, d int
	blocks []uint8

	pal *palette.ColorPalette

	pois     map[string]PointOfInterest
	poisRot  map[string]PointOfInterest

	bakedLighting bool
	lights        []Light

	boundingMinX, boundingMinY, boundingMinZ int
}

func newDenseShape(kind Kind, w, h, d int) *DenseShape {
	blocks := make([]uint8, w*h*d)
	for i := range blocks {
		blocks[i] = Air
	}
	return &DenseShape{
		kind:    kind,
		w:       w,
		h:       h,
		d:       d,
		blocks:  blocks,
		pal:     palette.New(),
		pois:    make(map[string]PointOfInterest),
		poisRot: make(map[string]PointOfInterest),
	}
}

// New returns a growable reference shape of initial size w*h*d. Growth
// beyond the initial bounds is not implemented; the grid algorithm is out
// of this module's scope. New takes no lighting parameter, matching
// shape_make: the shape starts without baked lighting, and
// DecodeShapePayload never turns it on for a growable shape.
func New(w, h, d int) *DenseShape { return newDenseShape(KindGrowable, w, h, d) }

// NewFixedSize returns a fixed-size reference shape of size w*h*d. lighting
// mirrors shape_make_with_fixed_size's own parameter: it marks the shape as
// using baked lighting independently of whether any lighting data is ever
// supplied for it.
func NewFixedSize(w, h, d int, lighting bool) *DenseShape {
	s := newDenseShape(KindFixedSize, w, h, d)
	s.SetUsesBakedLighting(lighting)
	return s
}

// NewOctree returns an octree-flavored reference shape of size w*h*d, with
// the same lighting semantics as NewFixedSize.
func NewOctree(w, h, d int, lighting bool) *DenseShape {
	s := newDenseShape(KindOctree, w, h, d)
	s.SetUsesBakedLighting(lighting)
	return s
}

func (s *DenseShape) Kind() Kind           { return s.kind }
func (s *DenseShape) Size() (int, int, int) { return s.w, s.h, s.d }

func (s *DenseShape) index(x, y, z int) (int, bool) {
	if x < 0 || y < 0 || z < 0 || x >= s.w || y >= s.h || z >= s.d {
		return 0, false
	}
	return x*s.h*s.d + y*s.d + z, true
}

// GetBlock returns Air for any out-of-range coordinate.
func (s *DenseShape) GetBlock(x, y, z int) uint8 {
	i, ok := s.index(x, y, z)
	if !ok {
		return Air
	}
	return s.blocks[i]
}

// SetBlock is a no-op for any out-of-range coordinate.
func (s *DenseShape) SetBlock(x, y, z int, paletteIndex uint8) {
	i, ok := s.index(x, y, z)
	if !ok {
		return
	}
	s.blocks[i] = paletteIndex
}

func (s *DenseShape) Palette() *palette.ColorPalette     { return s.pal }
func (s *DenseShape) SetPalette(p *palette.ColorPalette) { s.pal = p }

func (s *DenseShape) SetPointOfInterest(name string, x, y, z float32) {
	s.pois[name] = PointOfInterest{Name: name, X: x, Y: y, Z: z}
}

func (s *DenseShape) PointsOfInterest() []PointOfInterest {
	out := make([]PointOfInterest, 0, len(s.pois))
	for _, p := range s.pois {
		out = append(out, p)
	}
	return out
}

func (s *DenseShape) SetPointRotation(name string, x, y, z float32) {
	s.poisRot[name] = PointOfInterest{Name: name, X: x, Y: y, Z: z}
}

func (s *DenseShape) PointRotations() []PointOfInterest {
	out := make([]PointOfInterest, 0, len(s.poisRot))
	for _, p := range s.poisRot {
		out = append(out, p)
	}
	return out
}

func (s *DenseShape) UsesBakedLighting() bool { return s.bakedLighting }

// SetUsesBakedLighting toggles baked lighting, allocating the light buffer
// the first time it is turned on.
func (s *DenseShape) SetUsesBakedLighting(v bool) {
	s.bakedLighting = v
	if v && s.lights == nil {
		s.lights = make([]Light, s.w*s.h*s.d)
	}
}

func (s *DenseShape) GetLight(x, y, z int) Light {
	i, ok := s.index(x, y, z)
	if !ok || s.lights == nil {
		return Light{}
	}
	return s.lights[i]
}

func (s *DenseShape) SetLight(x, y, z int, l Light) {
	i, ok := s.index(x, y, z)
	if !ok {
		return
	}
	if s.lights == nil {
		s.lights = make([]Light, s.w*s.h*s.d)
	}
	s.lights[i] = l
}

func (s *DenseShape) BoundingBoxMin() (int, int, int) {
	return s.boundingMinX, s.boundingMinY, s.boundingMinZ
}

// SetBoundingBoxMin sets the offset subtracted from points of interest when
// they are serialized to a SHAPE_POINT sub-chunk.
func (s *DenseShape) SetBoundingBoxMin(x, y, z int) {
	s.boundingMinX, s.boundingMinY, s.boundingMinZ = x, y, z
}

// validateSize returns an error if w/h/d aren't all positive and within the
// 16-bit range the SHAPE_SIZE sub-chunk encodes them in.
func validateSize(w, h, d int) error {
	if w <= 0 || h <= 0 || d <= 0 {
		return errors.Errorf("shape: non-positive size %dx%dx%d", w, h, d)
	}
	if w > 0xFFFF || h > 0xFFFF || d > 0xFFFF {
		return errors.Errorf("shape: size %dx%dx%d exceeds 16-bit field width", w, h, d)
	}
	return nil
}
