// Package dedup finds packed lightmap tiles whose texels are identical to a
// freshly baked one, so the duplicate can share the existing atlas region.
//
// Small tiles are hashed on their dimensions and colour bytes. Candidates
// with the same hash are confirmed by a full byte comparison against the
// atlas pages, so a hash collision never aliases different tiles.
package dedup

import (
	"sync/atomic"

	"github.com/gogpu/lightmap/atlas"
)

// DefaultMaxSize is the largest tile dimension considered for sharing.
const DefaultMaxSize = 3

// Cache indexes packed tiles by content hash.
//
// Cache is not safe for concurrent use. The bake scheduler only touches it
// while holding its pack lock. Statistics may be read at any time.
type Cache struct {
	atlas   *atlas.Atlas
	maxSize int
	buckets map[uint32][]entry
	entries int

	// Statistics (atomic for lock-free reads)
	hits   atomic.Uint64
	misses atomic.Uint64
	skips  atomic.Uint64
}

type entry struct {
	typ atlas.Type
	loc atlas.Location
}

// New creates a cache over the pages of a. Tiles wider or taller than
// maxSize are never shared; maxSize 0 disables sharing entirely.
func New(a *atlas.Atlas, maxSize int) *Cache {
	return &Cache{
		atlas:   a,
		maxSize: maxSize,
		buckets: make(map[uint32][]entry),
	}
}

// MaxSize returns the largest shared tile dimension.
func (c *Cache) MaxSize() int {
	return c.maxSize
}

// Eligible reports whether a w x h tile is small enough to be shared.
func (c *Cache) Eligible(w, h int) bool {
	return w <= c.maxSize && h <= c.maxSize
}

// Hash computes the content hash of a tile. Only the first three bytes of
// each texel contribute; alpha and direction are left to the full compare.
func Hash(w, h int, color []byte, bpp int) uint32 {
	hash := uint32(w) + uint32(h)<<8 //nolint:gosec // tile sizes are small
	for i := 0; i+2 < len(color) && i < w*h*bpp; i += bpp {
		hash ^= uint32(color[i]) + uint32(color[i+1])<<4 + uint32(color[i+2])<<8
	}
	return hash
}

// Lookup returns the location of a packed tile identical to the given one.
func (c *Cache) Lookup(typ atlas.Type, w, h int, color, dir []byte) (atlas.Location, bool) {
	if !c.Eligible(w, h) {
		return atlas.Location{}, false
	}
	for _, e := range c.buckets[Hash(w, h, color, typ.BPP())] {
		if e.typ != typ || e.loc.W != w || e.loc.H != h {
			continue
		}
		if c.atlas.Matches(e.loc, typ, color, dir) {
			return e.loc, true
		}
	}
	return atlas.Location{}, false
}

// Store records a packed tile so later duplicates can share it.
// Ineligible tiles are ignored.
func (c *Cache) Store(typ atlas.Type, color []byte, loc atlas.Location) {
	if !c.Eligible(loc.W, loc.H) {
		return
	}
	key := Hash(loc.W, loc.H, color, typ.BPP())
	c.buckets[key] = append(c.buckets[key], entry{typ: typ, loc: loc})
	c.entries++
}

// FindOrInsert returns the location of an identical packed tile, or packs
// the tile into the atlas and indexes it. shared is true on a cache hit.
// Tiles too large to share go straight to the atlas.
func (c *Cache) FindOrInsert(typ atlas.Type, w, h int, color, dir []byte) (loc atlas.Location, shared bool, err error) {
	if !c.Eligible(w, h) {
		c.skips.Add(1)
		loc, err = c.atlas.Insert(typ, w, h, color, dir)
		return loc, false, err
	}

	if loc, ok := c.Lookup(typ, w, h, color, dir); ok {
		c.hits.Add(1)
		return loc, true, nil
	}

	c.misses.Add(1)
	loc, err = c.atlas.Insert(typ, w, h, color, dir)
	if err != nil {
		return loc, false, err
	}
	c.Store(typ, color, loc)
	return loc, false, nil
}

// Clear drops every entry. Call it whenever the atlas is reset.
func (c *Cache) Clear() {
	clear(c.buckets)
	c.entries = 0
}

// Len returns the number of indexed tiles.
func (c *Cache) Len() int {
	return c.entries
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Skips:   c.skips.Load(),
	}
}

// ResetStats zeroes the hit, miss and skip counters.
func (c *Cache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.skips.Store(0)
}

// Stats contains cache statistics.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64

	// Skips counts tiles too large to be shared.
	Skips uint64
}

// HitRate returns hits over eligible lookups (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
