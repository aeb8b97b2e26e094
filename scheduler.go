package lightmap

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/lightmap/atlas"
	"github.com/gogpu/lightmap/internal/dedup"
)

// Scheduler runs one bake pass: it owns the task lists, the bake workers
// and their arenas, and packs finished tiles into the atlas.
//
// Tasks are submitted into a staging list. Flush hands the staged batch to
// the workers once the previous batch is fully packed. Each worker claims
// tasks in order, bakes them without holding any lock and then packs every
// baked task, in submission order, that is not waiting on an earlier one.
//
// With Config.Workers == 1 no goroutines are started: Flush claims, bakes
// and packs the batch on the calling goroutine.
//
// Submit, Flush and Finish must be called from a single goroutine.
// Cancel, Canceled and Progress may be called from any goroutine.
type Scheduler struct {
	cfg     Config
	opts    passOptions
	lighter Lighter
	atlas   *atlas.Atlas
	dedup   *dedup.Cache
	log     *slog.Logger
	single  bool
	begun   time.Time

	// mu guards the task lists, the claim and pack indices, every
	// arena's bookkeeping, the atlas and the dedup cache. It is never
	// held across Lighter.Light.
	mu       sync.Mutex
	work     *sync.Cond // workers wait here for tasks
	staging  []*Task
	active   []*Task
	claimIdx int
	packIdx  int
	workers  []*Worker
	closed   bool
	counts   counts

	// lightMu guards the lighter's shared caches. It is never nested with mu.
	lightMu sync.Mutex

	canceled   atomic.Bool
	idle       chan struct{} // wakes the coordinator when a batch is packed
	group      errgroup.Group
	lastReport time.Time
	stopCtx    func() bool
	onDone     func()
}

type counts struct {
	seq       uint64
	submitted int
	retired   int
	failed    int
	cancelled int
	lightmaps int
}

func newScheduler(cfg Config, lighter Lighter, a *atlas.Atlas, d *dedup.Cache, opts passOptions) *Scheduler {
	n := cfg.workers()
	s := &Scheduler{
		cfg:     cfg,
		opts:    opts,
		lighter: lighter,
		atlas:   a,
		dedup:   d,
		log:     Logger().With("pass", opts.id),
		single:  n == 1,
		begun:   time.Now(),
		idle:    make(chan struct{}, 1),
	}
	s.work = sync.NewCond(&s.mu)
	s.lastReport = s.begun

	s.workers = make([]*Worker, n)
	for i := range n {
		s.workers[i] = newWorker(i, s)
	}
	if !s.single {
		for _, w := range s.workers {
			s.group.Go(w.run)
		}
	}
	return s
}

// Submit stages a task for baking. A full staging list is flushed
// immediately, which may wait for the previous batch to be packed.
//
// Returns ErrClosed after Finish. Once the pass is canceled the task is
// marked Cancelled and Submit returns ErrCanceled.
func (s *Scheduler) Submit(t *Task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.counts.seq++
	t.seq = s.counts.seq
	t.state = Staged
	t.worker = nil
	t.tiles = t.tiles[:0]
	t.err = nil
	s.counts.submitted++
	if s.canceled.Load() {
		t.state = Cancelled
		s.counts.cancelled++
		s.mu.Unlock()
		return ErrCanceled
	}
	s.staging = append(s.staging, t)
	full := len(s.staging) >= s.cfg.MaxBatch
	s.mu.Unlock()

	if full {
		return s.Flush()
	}
	return nil
}

// Flush waits until the current batch is packed, then makes the staged
// tasks visible to the workers. In single-worker mode the new batch is
// baked and packed before Flush returns.
func (s *Scheduler) Flush() error {
	s.wait()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.flip()
	s.mu.Unlock()

	if s.single {
		s.runInline()
	}
	if s.canceled.Load() {
		return ErrCanceled
	}
	return nil
}

// flip swaps the staging list into the active list. Requires s.mu and a
// fully packed active batch.
func (s *Scheduler) flip() {
	done := s.active
	s.active = s.staging
	clear(done)
	s.staging = done[:0]
	s.claimIdx, s.packIdx = 0, 0

	if s.canceled.Load() {
		s.cancelUnclaimed()
		return
	}
	if len(s.active) > 0 {
		s.log.Debug("lightmap: batch flipped", "tasks", len(s.active))
	}
	s.work.Broadcast()
}

// wait blocks until every claimed task of the active batch is packed,
// reporting progress every ProgressInterval meanwhile.
func (s *Scheduler) wait() {
	if s.single {
		return
	}

	ticker := time.NewTicker(s.cfg.ProgressInterval)
	defer ticker.Stop()
	for {
		s.mu.Lock()
		done := s.packIdx >= len(s.active)
		s.mu.Unlock()
		if done {
			return
		}

		select {
		case <-s.idle:
		case <-ticker.C:
			s.report()
		}
	}
}

// runInline claims, bakes and packs the active batch on the calling
// goroutine.
func (s *Scheduler) runInline() {
	w := s.workers[0]

	s.mu.Lock()
	for s.claimIdx < len(s.active) && !s.canceled.Load() {
		t := s.active[s.claimIdx]
		s.claimIdx++
		s.bake(w, t)

		if time.Since(s.lastReport) >= s.cfg.ProgressInterval {
			s.mu.Unlock()
			s.report()
			s.mu.Lock()
		}
	}
	s.mu.Unlock()
}

// bake runs the lighter on a claimed task and packs whatever is ready.
// Requires s.mu, which is released while the lighter runs.
func (s *Scheduler) bake(w *Worker, t *Task) {
	t.state = Claimed
	t.worker = w
	w.task = t

	s.mu.Unlock()
	err := s.lighter.Light(w, t)
	s.mu.Lock()

	w.task = nil
	if err != nil {
		_ = t.fail(err)
	}
	t.state = Baked
	s.pack()
}

// Cancel stops the pass at the next task boundary. Tasks no worker has
// claimed are dropped; claimed tasks still finish baking and packing.
// Cancel is idempotent and safe for concurrent use.
func (s *Scheduler) Cancel() {
	if s.canceled.Swap(true) {
		return
	}

	s.mu.Lock()
	n := s.cancelUnclaimed()
	s.mu.Unlock()

	s.log.Warn("lightmap: bake canceled", "dropped", n)
	s.notifyIdle()
}

// cancelUnclaimed drops every task no worker has claimed yet.
// Requires s.mu.
func (s *Scheduler) cancelUnclaimed() int {
	n := 0
	for _, t := range s.active[s.claimIdx:] {
		t.state = Cancelled
		n++
	}
	clear(s.active[s.claimIdx:])
	s.active = s.active[:s.claimIdx]

	for _, t := range s.staging {
		t.state = Cancelled
		n++
	}
	clear(s.staging)
	s.staging = s.staging[:0]

	s.counts.cancelled += n
	return n
}

// Canceled reports whether the pass has been canceled.
func (s *Scheduler) Canceled() bool {
	return s.canceled.Load()
}

// Finish bakes everything still staged, waits for all workers to stop and
// completes the atlas. The scheduler cannot be used afterwards.
//
// Finish returns ErrCanceled, together with the statistics of the work
// that was done, if the pass was canceled.
func (s *Scheduler) Finish() (Stats, error) {
	if err := s.Flush(); errors.Is(err, ErrClosed) {
		return Stats{}, err
	}
	s.wait()
	s.shutdown()

	s.mu.Lock()
	s.atlas.InsertUnlit(s.cfg.Ambient[0], s.cfg.Ambient[1], s.cfg.Ambient[2])
	stats := s.statsLocked()
	s.mu.Unlock()

	s.report()
	s.log.Info("lightmap: generated lightmaps",
		"lightmaps", stats.Lightmaps,
		"shared", stats.Shared,
		"utilization", stats.Percent(),
		"textures", stats.Pages,
		"failed", stats.Failed,
		"cancelled", stats.Cancelled,
		"duration", stats.Duration,
	)

	if s.onDone != nil {
		s.onDone()
	}
	if stats.Canceled {
		return stats, ErrCanceled
	}
	return stats, nil
}

// shutdown stops the workers and waits for them to exit.
func (s *Scheduler) shutdown() {
	s.mu.Lock()
	s.closed = true
	s.work.Broadcast()
	for _, w := range s.workers {
		w.space.Broadcast()
	}
	s.mu.Unlock()

	_ = s.group.Wait()
	if s.stopCtx != nil {
		s.stopCtx()
	}
}

// notifyIdle wakes the coordinator without blocking.
func (s *Scheduler) notifyIdle() {
	select {
	case s.idle <- struct{}{}:
	default:
	}
}

// report sends a progress snapshot to the registered callback.
func (s *Scheduler) report() {
	s.lastReport = time.Now()
	if s.opts.progress == nil {
		return
	}
	s.opts.progress(s.Progress())
}

// Progress returns a snapshot of the pass. With WithSnapshots the
// snapshot includes a copy of the atlas page being filled.
func (s *Scheduler) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Progress{
		Pass:      s.opts.id,
		Submitted: s.counts.submitted,
		Retired:   s.counts.retired,
		Failed:    s.counts.failed,
		Cancelled: s.counts.cancelled,
		Pages:     s.atlas.Len(),
		Canceled:  s.canceled.Load(),
	}
	if s.opts.snapshot {
		if page := s.atlas.Current(); page != nil {
			p.Page = page.Image()
		}
	}
	return p
}

// Pass returns the pass id.
func (s *Scheduler) Pass() uuid.UUID {
	return s.opts.id
}

// statsLocked collects pass statistics. Requires s.mu.
func (s *Scheduler) statsLocked() Stats {
	as := s.atlas.Stats()
	ds := s.dedup.Stats()
	return Stats{
		Pass:        s.opts.id,
		Tasks:       s.counts.retired,
		Failed:      s.counts.failed,
		Cancelled:   s.counts.cancelled,
		Lightmaps:   s.counts.lightmaps,
		Shared:      int(ds.Hits), //nolint:gosec // bounded by Lightmaps
		Pages:       as.Pages,
		Lumels:      as.Lumels,
		Utilization: as.Utilization,
		Duration:    time.Since(s.begun),
		Canceled:    s.canceled.Load(),
	}
}
