package lightmap

import (
	"fmt"

	"github.com/gogpu/lightmap/arena"
	"github.com/gogpu/lightmap/atlas"
)

// pack moves the tiles of every baked task at the front of the active
// batch into the atlas, in submission order, then reclaims arena space and
// wakes workers waiting for it. It stops at the first task that is not
// baked yet so that lightmaps are packed in a deterministic order no
// matter how many workers run. Returns the number of tasks packed.
//
// Requires s.mu.
func (s *Scheduler) pack() int {
	n := 0
	for s.packIdx < len(s.active) {
		t := s.active[s.packIdx]
		if t.state != Baked {
			break
		}
		s.packTask(t)
		s.packIdx++
		n++
	}
	if n == 0 {
		return 0
	}

	for _, w := range s.workers {
		if w.arena.Reclaim() > 0 && w.needSpace {
			w.space.Signal()
		}
	}
	if s.packIdx >= len(s.active) {
		s.notifyIdle()
	}
	return n
}

// packTask places the tiles of one task and retires it. A task is stored
// whole or not at all: if any of its tiles has no room in the atlas, none
// of them is placed.
// Requires s.mu.
func (s *Scheduler) packTask(t *Task) {
	a := t.worker.arena
	tiles := make([]*arena.Tile, 0, len(t.tiles))
	for _, id := range t.tiles {
		if tile := a.Tile(id); tile != nil {
			tiles = append(tiles, tile)
		}
	}

	if t.err == nil {
		t.err = s.reserve(tiles)
	}
	if t.err == nil {
		for _, tile := range tiles {
			if err := s.place(t, tile); err != nil {
				t.err = fmt.Errorf("lightmap: pack %v tile %dx%d: %w", tile.Type, tile.Width, tile.Height, err)
				break
			}
		}
	}
	for _, tile := range tiles {
		tile.MarkPacked()
	}
	t.state = Packed
	s.retire(t)
}

// reserve checks that the tiles the dedup cache will not share all have
// room in the atlas. Tile sizes were checked against the page by Alloc, so
// only a page limit can make it fail.
func (s *Scheduler) reserve(tiles []*arena.Tile) error {
	if s.cfg.MaxPages == 0 {
		return nil
	}
	sizes := make([]atlas.TileSize, 0, len(tiles))
	for _, tile := range tiles {
		if _, ok := s.dedup.Lookup(tile.Type, tile.Width, tile.Height, tile.Color, tile.Direction); ok {
			continue
		}
		sizes = append(sizes, atlas.TileSize{Type: tile.Type, W: tile.Width, H: tile.Height})
	}
	if !s.atlas.Fits(sizes) {
		return fmt.Errorf("lightmap: pack %d tiles: %w", len(sizes), atlas.ErrAtlasFull)
	}
	return nil
}

// place stores one tile in the atlas, sharing an identical packed tile
// when possible, and points the tile's surfaces at it.
func (s *Scheduler) place(t *Task, tile *arena.Tile) error {
	loc, _, err := s.dedup.FindOrInsert(tile.Type, tile.Width, tile.Height, tile.Color, tile.Direction)
	if err != nil {
		return err
	}
	s.counts.lightmaps++
	for _, i := range [2]int{tile.Surface, tile.Surface2} {
		if i >= 0 && i < len(t.Surfaces) {
			t.Surfaces[i] = loc
		}
	}
	return nil
}

// retire finishes the bookkeeping of a packed task. A failed task falls
// back to the ambient location on every surface.
func (s *Scheduler) retire(t *Task) {
	t.state = Retired
	s.counts.retired++
	if t.err == nil {
		return
	}

	s.counts.failed++
	for i := range t.Surfaces {
		t.Surfaces[i] = atlas.Location{Page: atlas.IDAmbient}
	}
	s.log.Warn("lightmap: task produced no lightmap", "task", t.seq, "err", t.err)
}
