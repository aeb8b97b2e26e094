// Package arena implements the per-worker ring buffer that holds baked
// lightmap tiles until they are packed into the atlas.
//
// An [Arena] is a fixed-capacity circular byte buffer with a FIFO list of
// [Tile] records. Tiles are always allocated at the logical end of the
// live range and reclaimed from its start once packed, so the live bytes
// stay contiguous (modulo wrap) and the buffer never needs compaction.
//
// Arena is not safe for concurrent use. The bake scheduler performs all
// bookkeeping under its task lock; only pixel writes into a freshly
// allocated tile happen outside it.
package arena

import (
	"fmt"

	"github.com/gogpu/lightmap/atlas"
)

// HeaderSize is the per-tile bookkeeping footprint charged against the
// arena capacity in addition to the pixel bytes.
const HeaderSize = 64

// DefaultCapacity is the default arena size in bytes.
const DefaultCapacity = 2 << 20

// Request describes a tile to allocate.
type Request struct {
	Width, Height int
	Type          atlas.Type
}

// ColorSize returns the bytes needed for the colour channel.
func (r Request) ColorSize() int {
	return r.Width * r.Height * r.Type.BPP()
}

// DirSize returns the bytes needed for the direction channel, if any.
func (r Request) DirSize() int {
	if !r.Type.Directional() {
		return 0
	}
	return r.Width * r.Height * 3
}

// Size returns the total footprint of the tile, header included.
func (r Request) Size() int {
	return HeaderSize + r.ColorSize() + r.DirSize()
}

// TileID identifies a tile within its arena. Ids are assigned in
// allocation order.
type TileID uint64

// Tile is a lightmap record living in an arena.
type Tile struct {
	ID TileID

	// Task tags the bake task that produced the tile.
	Task uint64

	Width, Height int
	Type          atlas.Type

	// Color and Direction are views into the arena buffer. Direction is
	// nil unless Type is directional. They are only valid until the tile
	// is packed.
	Color     []byte
	Direction []byte

	// Surface and Surface2 are the surface indices that receive the
	// packed location. Negative means none.
	Surface, Surface2 int

	offset    int
	dirOffset int
	size      int
	packed    bool
}

// Packed reports whether the tile has been packed into the atlas.
func (t *Tile) Packed() bool {
	return t.packed
}

// MarkPacked marks the tile as packed, making its bytes reclaimable.
func (t *Tile) MarkPacked() {
	t.packed = true
}

// Size returns the bytes the tile occupies in the arena, including any
// tail bytes skipped when it wrapped.
func (t *Tile) Size() int {
	return t.size
}

// Offset returns the start of the tile's region in the arena buffer.
func (t *Tile) Offset() int {
	return t.offset
}

// Arena is a bounded circular buffer of tiles.
type Arena struct {
	buf   []byte
	start int
	used  int

	// tiles[head:] are the live tiles, oldest first.
	tiles  []*Tile
	head   int
	nextID TileID
}

// New creates an arena of the given capacity in bytes.
// If capacity is 0 or negative, DefaultCapacity is used.
func New(capacity int) *Arena {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Arena{
		buf:   make([]byte, capacity),
		tiles: make([]*Tile, 0, 64),
	}
}

// TryAllocate reserves space for a tile without reclaiming or waiting.
// Returns false if neither the tail segment nor the head segment of the
// free space can hold it.
//
// The colour channel is always contiguous with the header. A direction
// channel may wrap to the head of the buffer on its own.
//
// TryAllocate panics if the request can never fit the arena.
func (a *Arena) TryAllocate(req Request, task uint64) (*Tile, bool) {
	need1 := HeaderSize + req.ColorSize()
	need2 := req.DirSize()
	need := need1 + need2
	capacity := len(a.buf)
	if need > capacity {
		panic(fmt.Sprintf("arena: request of %d bytes exceeds capacity %d", need, capacity))
	}

	// avail1 is the free run after the live range, avail2 the free run at
	// the head of the buffer. Once the live range wraps, the only free run
	// is the one between its end and its start.
	end := a.start + a.used
	avail := capacity - a.used
	avail1, avail2 := capacity-end, a.start
	if end >= capacity {
		end -= capacity
		avail1, avail2 = avail, 0
	}

	var off, dirOff, usedSpace int
	switch {
	case avail < need:
		return nil, false
	case avail1 >= need:
		off, dirOff, usedSpace = end, end+need1, need
	case avail1 >= need1 && avail2 >= need2:
		// Colour in the tail, direction at the head.
		off, dirOff, usedSpace = end, 0, avail1+need2
	case avail2 >= need:
		// Skip the tail.
		off, dirOff, usedSpace = 0, need1, avail1+need
	default:
		return nil, false
	}

	t := &Tile{
		ID:        a.nextID,
		Task:      task,
		Width:     req.Width,
		Height:    req.Height,
		Type:      req.Type,
		Color:     a.buf[off+HeaderSize : off+need1 : off+need1],
		Surface:   -1,
		Surface2:  -1,
		offset:    off,
		dirOffset: dirOff,
		size:      usedSpace,
	}
	clear(t.Color)
	if need2 > 0 {
		t.Direction = a.buf[dirOff : dirOff+need2 : dirOff+need2]
		clear(t.Direction)
	}

	a.nextID++
	a.used += usedSpace
	a.tiles = append(a.tiles, t)
	return t, true
}

// Reclaim frees the longest prefix of packed tiles and returns the number
// of bytes freed.
func (a *Arena) Reclaim() int {
	freed := 0
	for a.head < len(a.tiles) && a.tiles[a.head].packed {
		t := a.tiles[a.head]
		a.used -= t.size
		a.start = (a.start + t.size) % len(a.buf)
		freed += t.size
		a.tiles[a.head] = nil
		a.head++
	}
	a.compact()
	return freed
}

// FreeLast rolls back the most recent allocation.
//
// FreeLast panics if the arena is empty or the newest tile is already
// packed: only an allocation that has not been handed off may be undone.
func (a *Arena) FreeLast() {
	if a.head == len(a.tiles) {
		panic("arena: FreeLast with no live allocation")
	}
	t := a.tiles[len(a.tiles)-1]
	if t.packed {
		panic("arena: FreeLast of a packed tile")
	}
	a.used -= t.size
	a.tiles[len(a.tiles)-1] = nil
	a.tiles = a.tiles[:len(a.tiles)-1]
	a.nextID--
	a.compact()
}

// compact drops dead record slots and rewinds an empty buffer so the next
// allocation sees one contiguous free segment.
func (a *Arena) compact() {
	switch {
	case a.head == len(a.tiles):
		a.tiles = a.tiles[:0]
		a.head = 0
		a.start = 0
		a.used = 0
	case a.head >= 32 && a.head*2 >= len(a.tiles):
		n := copy(a.tiles, a.tiles[a.head:])
		clear(a.tiles[n:])
		a.tiles = a.tiles[:n]
		a.head = 0
	}
}

// Tile returns the live tile with the given id, or nil once it has been
// reclaimed or freed.
func (a *Arena) Tile(id TileID) *Tile {
	if a.head == len(a.tiles) {
		return nil
	}
	first := a.tiles[a.head].ID
	if id < first {
		return nil
	}
	i := a.head + int(id-first) //nolint:gosec // bounded by the live tile count below
	if i >= len(a.tiles) {
		return nil
	}
	return a.tiles[i]
}

// Oldest returns the oldest live tile, or nil.
func (a *Arena) Oldest() *Tile {
	if a.head == len(a.tiles) {
		return nil
	}
	return a.tiles[a.head]
}

// PendingBefore reports whether the arena holds unpacked tiles produced
// by tasks other than task. Tiles of the given task are assumed to be the
// newest.
func (a *Arena) PendingBefore(task uint64) bool {
	for _, t := range a.tiles[a.head:] {
		if t.Task == task {
			return false
		}
		if !t.packed {
			return true
		}
	}
	return false
}

// Reset drops every tile and rewinds the buffer.
func (a *Arena) Reset() {
	clear(a.tiles)
	a.tiles = a.tiles[:0]
	a.head = 0
	a.start = 0
	a.used = 0
}

// Capacity returns the size of the buffer in bytes.
func (a *Arena) Capacity() int {
	return len(a.buf)
}

// Used returns the live byte count.
func (a *Arena) Used() int {
	return a.used
}

// Free returns the unused byte count. Not all of it need be contiguous.
func (a *Arena) Free() int {
	return len(a.buf) - a.used
}

// Start returns the offset of the oldest live byte.
func (a *Arena) Start() int {
	return a.start
}

// Len returns the number of live tiles.
func (a *Arena) Len() int {
	return len(a.tiles) - a.head
}
