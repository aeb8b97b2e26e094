package lightmap

import (
	"fmt"
	"sync"

	"github.com/gogpu/lightmap/arena"
)

// Worker is a bake worker. It owns an arena that holds the tiles of the
// tasks it bakes until they are packed.
//
// A Worker is handed to Lighter.Light and must only be used from within
// that call.
type Worker struct {
	id    int
	s     *Scheduler
	arena *arena.Arena

	// space is signalled when packing frees bytes in arena while the
	// worker waits in Alloc.
	space     *sync.Cond
	needSpace bool
	task      *Task
}

func newWorker(id int, s *Scheduler) *Worker {
	return &Worker{
		id:    id,
		s:     s,
		arena: arena.New(s.cfg.ArenaSize),
		space: sync.NewCond(&s.mu),
	}
}

// ID returns the worker index.
func (w *Worker) ID() int {
	return w.id
}

// run is the worker goroutine: claim, bake and pack until shutdown.
func (w *Worker) run() error {
	s := w.s
	s.log.Debug("lightmap: worker started", "worker", w.id)

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		for !s.closed && (s.claimIdx >= len(s.active) || s.canceled.Load()) {
			s.work.Wait()
		}
		if s.closed {
			break
		}
		t := s.active[s.claimIdx]
		s.claimIdx++
		s.bake(w, t)
	}

	s.log.Debug("lightmap: worker stopped", "worker", w.id)
	return nil
}

// Alloc reserves a tile for the task being baked and returns it with
// zeroed pixels. The caller fills Color (and Direction for directional
// types) and sets Surface before returning from Light.
//
// When the arena is full, Alloc packs whatever is ready and reclaims the
// packed tiles. If older tiles in the arena are still waiting for an
// earlier task to finish, Alloc blocks until they are packed. Tiles too
// large for the arena or an atlas page fail with ErrTileTooLarge; a task
// whose own tiles fill the arena fails with ErrArenaExhausted. Both
// errors are also recorded on the task, which then gets no lightmap even
// if the lighter carries on.
func (w *Worker) Alloc(req arena.Request) (*arena.Tile, error) {
	s := w.s
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("lightmap: invalid tile size %dx%d", req.Width, req.Height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := w.task
	if t == nil {
		panic("lightmap: Worker.Alloc called outside Lighter.Light")
	}
	if req.Width > s.cfg.PageWidth || req.Height > s.cfg.PageHeight || req.Size() > w.arena.Capacity() {
		return nil, t.fail(fmt.Errorf("%w: %v tile %dx%d (%d bytes)", ErrTileTooLarge, req.Type, req.Width, req.Height, req.Size()))
	}
	for {
		if tile, ok := w.arena.TryAllocate(req, t.seq); ok {
			t.tiles = append(t.tiles, tile.ID)
			return tile, nil
		}
		if w.arena.Reclaim() > 0 {
			continue
		}
		if s.pack() > 0 {
			continue
		}
		if s.single || s.closed || !w.arena.PendingBefore(t.seq) {
			return nil, t.fail(fmt.Errorf("%w: %d of %d bytes used", ErrArenaExhausted, w.arena.Used(), w.arena.Capacity()))
		}

		s.log.Debug("lightmap: arena full, waiting for pack", "worker", w.id, "task", t.seq)
		w.needSpace = true
		w.space.Wait()
		w.needSpace = false
	}
}

// FreeLast discards the most recent tile of the current task, for a tile
// that turned out to need no lightmap.
//
// FreeLast panics if the current task has no tile left to discard.
func (w *Worker) FreeLast() {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	t := w.task
	if t == nil || len(t.tiles) == 0 {
		panic("lightmap: Worker.FreeLast without a tile of the current task")
	}
	w.arena.FreeLast()
	t.tiles = t.tiles[:len(t.tiles)-1]
}

// WithLightCache runs fn holding the lock that guards caches shared by
// all workers of the pass. fn must not call back into the worker.
func (w *Worker) WithLightCache(fn func()) {
	w.s.lightMu.Lock()
	defer w.s.lightMu.Unlock()
	fn()
}

// Canceled reports whether the pass has been canceled. A lighter may use
// it to cut a long task short; the task is still packed.
func (w *Worker) Canceled() bool {
	return w.s.canceled.Load()
}
