package lightmap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/lightmap/arena"
	"github.com/gogpu/lightmap/atlas"
)

// paintLighter gives every surface of a task a Size x Size tile filled
// with the task's cell value plus the surface index.
type paintLighter struct {
	typ atlas.Type

	// before runs at the start of every Light call.
	before func(w *Worker, t *Task)

	mu      sync.Mutex
	claimed map[uint64]bool
}

func (l *paintLighter) Light(w *Worker, t *Task) error {
	l.mu.Lock()
	if l.claimed == nil {
		l.claimed = make(map[uint64]bool)
	}
	l.claimed[t.Seq()] = true
	l.mu.Unlock()

	if l.before != nil {
		l.before(w, t)
	}

	v := byte(t.Cell.(int)) //nolint:forcetypeassert // test scenes use int cells
	for i := range t.Surfaces {
		tile, err := w.Alloc(arena.Request{Width: t.Size, Height: t.Size, Type: l.typ})
		if err != nil {
			return err
		}
		for j := range tile.Color {
			tile.Color[j] = v + byte(i)
		}
		for j := range tile.Direction {
			tile.Direction[j] = v ^ 0x80
		}
		tile.Surface = i
	}
	return nil
}

func (l *paintLighter) wasClaimed(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.claimed[seq]
}

// makeTasks builds n tasks with sizes cycling through 1..8 and cell
// values cycling through distinct values.
func makeTasks(n, distinct, surfaces int) []*Task {
	tasks := make([]*Task, n)
	for i := range tasks {
		var faces FaceMask
		for f := range surfaces {
			faces = faces.With(f, FaceTri1|FaceTri2)
		}
		tasks[i] = NewTask(i%distinct, [3]int{i * 8, 0, 0}, 1+i%8, faces, surfaces)
	}
	return tasks
}

// submitAll returns a scene that submits tasks in order.
func submitAll(tasks []*Task) Scene {
	return SceneFunc(func(ctx context.Context, submit func(*Task) error) error {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := submit(t); err != nil {
				return err
			}
		}
		return nil
	})
}

func testConfig(workers int) Config {
	cfg := DefaultConfig()
	cfg.Workers = workers
	cfg.PageWidth = 64
	cfg.PageHeight = 64
	cfg.ArenaSize = 4096
	cfg.MaxBatch = 16
	cfg.ProgressInterval = 5 * time.Millisecond
	return cfg
}

func newTestBaker(t *testing.T, cfg Config, l Lighter) *Baker {
	t.Helper()
	b, err := New(cfg, l)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b
}
