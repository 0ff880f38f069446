package palette

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxEntries is the hard cap on live entries a ColorPalette can hold. It
// matches the one-byte serialized entry count field: a palette never needs
// more slots than a uint8 count can address.
const MaxEntries = 256

// InvalidIndex is returned by lookups that found nothing, and marks entries
// that currently have no assigned ordered (serialization) position.
const InvalidIndex = -1

// PaletteEntry is one slot in a ColorPalette: a color, whether it emits
// light, how many shape voxels currently reference it, and its ordered
// (compacted, user-facing) position if one has been assigned.
type PaletteEntry struct {
	Color    RGBAColor
	Emissive bool
	UseCount uint32
	Ordered  int // InvalidIndex until RefreshOrdering assigns one
}

// ColorPalette is a bounded, order-stable set of colors. Entry indices
// (stable, used by shapes to reference a color) are distinct from ordered
// indices (compacting, used when serializing or handing colors to an
// atlas): removing an unused color frees its entry slot for reuse but never
// renumbers the entries that remain, while the ordered view only ever lists
// currently-live entries, densely packed.
//
// A ColorPalette is not safe for concurrent use; callers serialize their own
// access, matching the single-threaded decode/encode model the rest of this
// module assumes.
type ColorPalette struct {
	entries [MaxEntries]PaletteEntry
	live    [MaxEntries]bool

	free []uint8 // FIFO free list of entry indices available for reuse

	colorToEntry map[uint32]uint8

	orderedToEntry []uint8 // dense, valid only when needsOrdering is false
	needsOrdering  bool

	count int // number of live entries

	lightingDirty bool

	// refCount is a weak-handle refcount toward an external atlas or other
	// owner; the palette itself does not interpret it beyond counting.
	refCount uint16

	log logrus.FieldLogger
}

// New returns an empty palette.
func New() *ColorPalette {
	return &ColorPalette{
		colorToEntry: make(map[uint32]uint8),
		log:          logrus.StandardLogger(),
	}
}

// NewFromData builds a palette from parallel color/emissive slices, as read
// off the wire. len(emissive) must equal len(colors); every entry starts
// with a zero use count and no ordered index. Colors are not deduplicated:
// the wire format may legitimately contain a color twice if the serializing
// palette allowed duplicates.
func NewFromData(colors []RGBAColor, emissive []bool) (*ColorPalette, error) {
	if len(colors) != len(emissive) {
		return nil, errors.Errorf("palette: %d colors but %d emissive flags", len(colors), len(emissive))
	}
	if len(colors) > MaxEntries {
		return nil, errors.Wrapf(ErrCapacity, "%d colors exceeds max of %d", len(colors), MaxEntries)
	}
	p := New()
	for i, c := range colors {
		p.entries[i] = PaletteEntry{Color: c, Emissive: emissive[i], Ordered: InvalidIndex}
		p.live[i] = true
		p.colorToEntry[c.pack()] = uint8(i)
	}
	p.count = len(colors)
	p.needsOrdering = true
	p.lightingDirty = true
	return p, nil
}

// SetLogger overrides the logger used for non-fatal recoverable warnings
// (palette-full fallbacks during default-color substitution, etc).
func (p *ColorPalette) SetLogger(l logrus.FieldLogger) {
	p.log = l
}

// Copy returns an independent deep copy of p. The copy's refcount starts at
// zero regardless of p's.
func (p *ColorPalette) Copy() *ColorPalette {
	cp := New()
	cp.entries = p.entries
	cp.live = p.live
	cp.free = append([]uint8(nil), p.free...)
	cp.colorToEntry = make(map[uint32]uint8, len(p.colorToEntry))
	for k, v := range p.colorToEntry {
		cp.colorToEntry[k] = v
	}
	cp.count = p.count
	cp.needsOrdering = true
	cp.lightingDirty = p.lightingDirty
	return cp
}

// Retain increments the weak-handle refcount and returns its new value.
func (p *ColorPalette) Retain() uint16 {
	p.refCount++
	return p.refCount
}

// Release decrements the weak-handle refcount (saturating at zero) and
// returns its new value.
func (p *ColorPalette) Release() uint16 {
	if p.refCount > 0 {
		p.refCount--
	}
	return p.refCount
}

// Count returns the number of live entries.
func (p *ColorPalette) Count() int { return p.count }

func (p *ColorPalette) checkIndex(idx uint8) error {
	if int(idx) >= MaxEntries || !p.live[idx] {
		return errors.Wrapf(ErrInvalidIndex, "index %d", idx)
	}
	return nil
}

// Find returns the entry index already holding color c, if any.
func (p *ColorPalette) Find(c RGBAColor) (uint8, bool) {
	idx, ok := p.colorToEntry[c.pack()]
	return idx, ok
}

// CheckAndAddColor finds an existing entry for c (unless allowDuplicates is
// set, in which case a fresh entry is always allocated), or allocates a new
// one, reusing a freed slot before growing into fresh ones. It returns
// ErrCapacity if the palette is full and allowDuplicates forces a new slot,
// or if no matching entry exists and the palette is already at MaxEntries.
func (p *ColorPalette) CheckAndAddColor(c RGBAColor, allowDuplicates bool) (uint8, error) {
	if !allowDuplicates {
		if idx, ok := p.Find(c); ok {
			p.entries[idx].UseCount++
			return idx, nil
		}
	}
	idx, err := p.allocate()
	if err != nil {
		return 0, err
	}
	p.entries[idx] = PaletteEntry{Color: c, UseCount: 1, Ordered: InvalidIndex}
	p.live[idx] = true
	if _, exists := p.colorToEntry[c.pack()]; !exists {
		p.colorToEntry[c.pack()] = idx
	}
	p.count++
	p.needsOrdering = true
	p.lightingDirty = true
	return idx, nil
}

// allocate returns a free entry slot, preferring a tombstoned slot (FIFO
// reuse order) over growing past the highest index ever used.
func (p *ColorPalette) allocate() (uint8, error) {
	if len(p.free) > 0 {
		idx := p.free[0]
		p.free = p.free[1:]
		return idx, nil
	}
	if p.count >= MaxEntries {
		return 0, errors.Wrap(ErrCapacity, "palette full")
	}
	// count is the number of live entries; since removals always go
	// through the free list, the first count+len(already freed) slots are
	// the ones in use, so the next unused index is simply p.count before
	// any tombstoning ever occurred. Track the high-water mark explicitly
	// to stay correct once tombstones exist.
	return uint8(p.highWaterMark()), nil
}

// highWaterMark returns the first entry index never yet assigned.
func (p *ColorPalette) highWaterMark() int {
	for i := 0; i < MaxEntries; i++ {
		if !p.live[i] {
			used := false
			for _, f := range p.free {
				if int(f) == i {
					used = true
					break
				}
			}
			if !used {
				return i
			}
		}
	}
	return MaxEntries
}

// IncrementColor bumps idx's use count by one.
func (p *ColorPalette) IncrementColor(idx uint8) error {
	if err := p.checkIndex(idx); err != nil {
		return err
	}
	p.entries[idx].UseCount++
	return nil
}

// DecrementColor lowers idx's use count by one, saturating at zero. It does
// not remove the entry; call RemoveUnusedColor for that.
func (p *ColorPalette) DecrementColor(idx uint8) error {
	if err := p.checkIndex(idx); err != nil {
		return err
	}
	if p.entries[idx].UseCount > 0 {
		p.entries[idx].UseCount--
	}
	return nil
}

// GetColorUseCount returns idx's current use count.
func (p *ColorPalette) GetColorUseCount(idx uint8) (uint32, error) {
	if err := p.checkIndex(idx); err != nil {
		return 0, err
	}
	return p.entries[idx].UseCount, nil
}

// RemoveUnusedColor frees idx if its use count is zero, returning whether it
// was removed.
func (p *ColorPalette) RemoveUnusedColor(idx uint8) (bool, error) {
	if err := p.checkIndex(idx); err != nil {
		return false, err
	}
	if p.entries[idx].UseCount != 0 {
		return false, nil
	}
	p.removeEntry(idx)
	return true, nil
}

func (p *ColorPalette) removeEntry(idx uint8) {
	c := p.entries[idx].Color
	if cur, ok := p.colorToEntry[c.pack()]; ok && cur == idx {
		delete(p.colorToEntry, c.pack())
	}
	p.live[idx] = false
	p.entries[idx] = PaletteEntry{}
	p.free = append(p.free, idx)
	p.count--
	p.needsOrdering = true
	p.lightingDirty = true
}

// RemoveAllUnusedColors frees every entry whose use count is zero. When
// remap is true it additionally returns a mapping from each surviving
// entry's old index to its new one — identity for an entry that kept its
// slot, since removal only ever tombstones freed slots rather than shifting
// survivors.
func (p *ColorPalette) RemoveAllUnusedColors(remap bool) map[uint8]uint8 {
	var mapping map[uint8]uint8
	if remap {
		mapping = make(map[uint8]uint8)
	}
	for i := 0; i < MaxEntries; i++ {
		idx := uint8(i)
		if !p.live[idx] {
			continue
		}
		if p.entries[idx].UseCount == 0 {
			p.removeEntry(idx)
			continue
		}
		if remap {
			mapping[idx] = idx
		}
	}
	return mapping
}

// SetColor overwrites idx's color. The reverse color->entry map is updated;
// if another entry already owns the new color, this entry simply stops
// being the one Find returns for the old color. lightingDirty is only set
// if the alpha channel actually changed, since that's the only part of a
// color the lighting hash depends on.
func (p *ColorPalette) SetColor(idx uint8, c RGBAColor) error {
	if err := p.checkIndex(idx); err != nil {
		return err
	}
	old := p.entries[idx].Color
	if cur, ok := p.colorToEntry[old.pack()]; ok && cur == idx {
		delete(p.colorToEntry, old.pack())
	}
	p.entries[idx].Color = c
	if _, exists := p.colorToEntry[c.pack()]; !exists {
		p.colorToEntry[c.pack()] = idx
	}
	if old.A != c.A {
		p.lightingDirty = true
	}
	return nil
}

// GetColor returns idx's current color.
func (p *ColorPalette) GetColor(idx uint8) (RGBAColor, error) {
	if err := p.checkIndex(idx); err != nil {
		return RGBAColor{}, err
	}
	return p.entries[idx].Color, nil
}

// SetEmissive marks idx as light-emitting or not. lightingDirty is only set
// if the flag actually changed.
func (p *ColorPalette) SetEmissive(idx uint8, emissive bool) error {
	if err := p.checkIndex(idx); err != nil {
		return err
	}
	if p.entries[idx].Emissive == emissive {
		return nil
	}
	p.entries[idx].Emissive = emissive
	p.lightingDirty = true
	return nil
}

// IsEmissive reports whether idx emits light.
func (p *ColorPalette) IsEmissive(idx uint8) (bool, error) {
	if err := p.checkIndex(idx); err != nil {
		return false, err
	}
	return p.entries[idx].Emissive, nil
}

// IsTransparent reports whether idx's color is less than fully opaque.
func (p *ColorPalette) IsTransparent(idx uint8) (bool, error) {
	if err := p.checkIndex(idx); err != nil {
		return false, err
	}
	return p.entries[idx].Color.Transparent(), nil
}

// GetEmissiveColorAsLight quantizes idx's color to a 4-bit-per-channel
// vertex light contribution, as used when an emissive block seeds its own
// light source: each channel is right-shifted by four bits. Non-emissive
// entries contribute nothing.
func (p *ColorPalette) GetEmissiveColorAsLight(idx uint8) (r, g, b uint8, err error) {
	if err = p.checkIndex(idx); err != nil {
		return 0, 0, 0, err
	}
	e := p.entries[idx]
	if !e.Emissive {
		return 0, 0, 0, nil
	}
	return e.Color.R >> 4, e.Color.G >> 4, e.Color.B >> 4, nil
}

// NeedsOrdering reports whether the ordered view is stale and must be
// rebuilt with RefreshOrdering before EntryToOrdered/OrderedToEntry or
// GetColorsAsArray are trusted.
func (p *ColorPalette) NeedsOrdering() bool { return p.needsOrdering }

// RefreshOrdering rebuilds the dense ordered view over live entries, in
// entry-index order, clearing needsOrdering.
func (p *ColorPalette) RefreshOrdering() {
	p.orderedToEntry = p.orderedToEntry[:0]
	for i := 0; i < MaxEntries; i++ {
		idx := uint8(i)
		if !p.live[idx] {
			continue
		}
		p.entries[idx].Ordered = len(p.orderedToEntry)
		p.orderedToEntry = append(p.orderedToEntry, idx)
	}
	p.needsOrdering = false
}

// EntryToOrdered returns idx's current ordered position, refreshing the
// ordering first if it is stale.
func (p *ColorPalette) EntryToOrdered(idx uint8) (int, error) {
	if err := p.checkIndex(idx); err != nil {
		return InvalidIndex, err
	}
	if p.needsOrdering {
		p.RefreshOrdering()
	}
	return p.entries[idx].Ordered, nil
}

// OrderedToEntry returns the entry index at ordered position i, refreshing
// the ordering first if it is stale.
func (p *ColorPalette) OrderedToEntry(i int) (uint8, bool) {
	if p.needsOrdering {
		p.RefreshOrdering()
	}
	if i < 0 || i >= len(p.orderedToEntry) {
		return 0, false
	}
	return p.orderedToEntry[i], true
}

// GetColorsAsArray returns the palette's colors and emissive flags in
// ordered (dense, serialization) order, refreshing the ordering first if
// stale.
func (p *ColorPalette) GetColorsAsArray() (colors []RGBAColor, emissive []bool) {
	if p.needsOrdering {
		p.RefreshOrdering()
	}
	colors = make([]RGBAColor, len(p.orderedToEntry))
	emissive = make([]bool, len(p.orderedToEntry))
	for i, idx := range p.orderedToEntry {
		colors[i] = p.entries[idx].Color
		emissive[i] = p.entries[idx].Emissive
	}
	return colors, emissive
}

// Merge copies every live entry of other into p, returning a mapping from
// other's entry indices to p's. Colors already present in p are reused
// unless allowDuplicates is set. Each merged entry goes through
// CheckAndAddColor, so its use count in p rises by one; other's use counts
// are not carried over.
func (p *ColorPalette) Merge(other *ColorPalette, allowDuplicates bool) (map[uint8]uint8, error) {
	remap := make(map[uint8]uint8, other.count)
	for i := 0; i < MaxEntries; i++ {
		srcIdx := uint8(i)
		if !other.live[srcIdx] {
			continue
		}
		src := other.entries[srcIdx]
		dstIdx, err := p.CheckAndAddColor(src.Color, allowDuplicates)
		if err != nil {
			return nil, errors.Wrapf(err, "merge entry %d", srcIdx)
		}
		if src.Emissive {
			if err := p.SetEmissive(dstIdx, true); err != nil {
				return nil, err
			}
		}
		remap[srcIdx] = dstIdx
	}
	return remap, nil
}

// GetLightingDirty reports whether an alpha or emissive change has
// invalidated any lighting baked from this palette's colors.
func (p *ColorPalette) GetLightingDirty() bool { return p.lightingDirty }

// ClearLightingDirty acknowledges the dirty flag, typically once an atlas
// or baked-lighting consumer has recomputed from the new colors.
func (p *ColorPalette) ClearLightingDirty() { p.lightingDirty = false }

// logWarn emits a structured warning through the palette's logger,
// defaulting to logrus's standard logger.
func (p *ColorPalette) logWarn(msg string, fields logrus.Fields) {
	if p.log == nil {
		return
	}
	p.log.WithFields(fields).Warn(msg)
}
