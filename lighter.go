package lightmap

import "context"

// Lighter computes the lightmaps of one task.
//
// Light runs on a bake worker without any scheduler lock held. It
// allocates tiles with w.Alloc, fills their pixels, sets the surface
// indices they belong to, and may discard the newest tile with
// w.FreeLast. Pixel slices must not be retained past the next call into
// w. A returned error marks the task failed; its surfaces keep the
// ambient location.
type Lighter interface {
	Light(w *Worker, t *Task) error
}

// LighterFunc adapts a function to the Lighter interface.
type LighterFunc func(w *Worker, t *Task) error

// Light calls f(w, t).
func (f LighterFunc) Light(w *Worker, t *Task) error {
	return f(w, t)
}

// Scene discovers the cells that need lightmaps.
//
// Walk calls submit once per task, from a single goroutine. It should
// stop and return the error when submit fails.
type Scene interface {
	Walk(ctx context.Context, submit func(*Task) error) error
}

// SceneFunc adapts a function to the Scene interface.
type SceneFunc func(ctx context.Context, submit func(*Task) error) error

// Walk calls f(ctx, submit).
func (f SceneFunc) Walk(ctx context.Context, submit func(*Task) error) error {
	return f(ctx, submit)
}
