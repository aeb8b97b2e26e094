package lightmap

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/lightmap/atlas"
	"github.com/gogpu/lightmap/internal/dedup"
)

// Baker owns the lightmap atlas and runs bake passes over it, one at a
// time.
type Baker struct {
	cfg     Config
	lighter Lighter
	atlas   *atlas.Atlas
	dedup   *dedup.Cache
	busy    atomic.Bool
}

// New creates a baker. The lighter computes the pixels of every tile.
func New(cfg Config, lighter Lighter) (*Baker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lighter == nil {
		return nil, errors.New("lightmap: nil lighter")
	}
	a, err := atlas.New(cfg.atlasConfig())
	if err != nil {
		return nil, err
	}
	return &Baker{
		cfg:     cfg,
		lighter: lighter,
		atlas:   a,
		dedup:   dedup.New(a, cfg.DedupMaxSize),
	}, nil
}

// Config returns the baker configuration.
func (b *Baker) Config() Config {
	return b.cfg
}

// Begin starts a pass that adds to the current atlas, for callers that
// submit tasks themselves. The pass ends with Scheduler.Finish. Canceling
// ctx cancels the pass.
//
// Returns ErrBusy while another pass is running.
func (b *Baker) Begin(ctx context.Context, opts ...PassOption) (*Scheduler, error) {
	return b.begin(ctx, false, opts)
}

func (b *Baker) begin(ctx context.Context, reset bool, opts []PassOption) (*Scheduler, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	if reset {
		b.atlas.Reset()
		b.dedup.Clear()
	}
	b.dedup.ResetStats()

	o := defaultPassOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := newScheduler(b.cfg, b.lighter, b.atlas, b.dedup, o)
	s.onDone = func() { b.busy.Store(false) }
	s.stopCtx = context.AfterFunc(ctx, s.Cancel)
	s.log.Info("lightmap: bake started", "workers", len(s.workers), "reset", reset)
	return s, nil
}

// Bake relights the whole scene: the atlas and the dedup cache are reset,
// every task the scene submits is baked and packed, and each page gets
// its unlit texel.
func (b *Baker) Bake(ctx context.Context, scene Scene, opts ...PassOption) (Stats, error) {
	s, err := b.begin(ctx, true, opts)
	if err != nil {
		return Stats{}, err
	}
	return b.run(ctx, s, scene)
}

// Patch bakes only what the scene submits and packs it next to the
// lightmaps already in the atlas, sharing identical tiles with them.
func (b *Baker) Patch(ctx context.Context, scene Scene, opts ...PassOption) (Stats, error) {
	s, err := b.begin(ctx, false, opts)
	if err != nil {
		return Stats{}, err
	}
	return b.run(ctx, s, scene)
}

func (b *Baker) run(ctx context.Context, s *Scheduler, scene Scene) (Stats, error) {
	werr := scene.Walk(ctx, s.Submit)
	if werr != nil && !errors.Is(werr, ErrCanceled) {
		s.Cancel()
		stats, _ := s.Finish()
		if ctx.Err() != nil {
			return stats, ErrCanceled
		}
		return stats, fmt.Errorf("lightmap: scene walk: %w", werr)
	}
	return s.Finish()
}

// Clear drops every atlas page and dedup entry.
//
// Returns ErrBusy while a pass is running.
func (b *Baker) Clear() error {
	if !b.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer b.busy.Store(false)

	b.atlas.Reset()
	b.dedup.Clear()
	return nil
}

// Atlas returns the atlas. It must not be used while a pass is running.
func (b *Baker) Atlas() *atlas.Atlas {
	return b.atlas
}
