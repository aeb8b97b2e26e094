// Package lightmap bakes static lighting for a cell-based world into
// shared atlas textures.
//
// # Overview
//
// A bake pass turns scene cells into lightmap tiles and packs them into
// fixed-size atlas pages:
//
//  1. A [Scene] submits one [Task] per cell with visible faces.
//  2. A pool of workers claims tasks and runs the [Lighter] on them. The
//     lighter allocates tiles in the worker's ring-buffer arena and fills
//     their pixels.
//  3. Baked tiles are packed into the atlas in submission order. Small
//     tiles identical to an already packed one share its location.
//  4. Packed tiles are reclaimed from the arena, unblocking any worker
//     that ran out of space.
//
// When the pass is finished every task's Surfaces hold the atlas page id
// and rectangle of their lightmap, or the reserved ambient location.
//
// # Quick Start
//
//	baker, err := lightmap.New(lightmap.DefaultConfig(), myLighter)
//	if err != nil {
//	    return err
//	}
//	stats, err := baker.Bake(ctx, myScene)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(stats)
//	for _, page := range baker.Atlas().Pages() {
//	    // upload page.RGBA()
//	}
//
// # Concurrency
//
// Config.Workers selects the worker count. With one worker the pass runs
// on the calling goroutine without blocking. Otherwise the workers share a
// single lock for task and arena bookkeeping, held only briefly and never
// while a lighter runs. Cancellation is cooperative: canceling the context
// or calling [Scheduler.Cancel] drops the tasks nobody has claimed yet,
// and every claimed task still finishes baking and packing.
//
// # Architecture
//
// The module is organized into:
//   - lightmap: configuration, scheduler, workers, bake passes
//   - atlas: the Pack-Tree packer and atlas pages
//   - arena: per-worker ring buffers of unpacked tiles
//   - internal/dedup: identical-tile sharing
//   - cmd/lmbake: command-line bake of a synthetic scene
package lightmap
