package lightmap

import "github.com/google/uuid"

// PassOption configures a single bake pass.
// Use functional options to customize pass behavior.
//
// Example:
//
//	stats, err := baker.Bake(ctx, scene, lightmap.WithProgress(func(p lightmap.Progress) {
//	    fmt.Printf("\r%3.0f%%", 100*p.Fraction())
//	}))
type PassOption func(*passOptions)

// passOptions holds optional configuration for a pass.
type passOptions struct {
	progress func(Progress)
	id       uuid.UUID
	snapshot bool
}

// defaultPassOptions returns the default pass options.
func defaultPassOptions() passOptions {
	return passOptions{
		id: uuid.New(),
	}
}

// WithProgress registers a callback that receives a progress snapshot
// every Config.ProgressInterval while the pass runs, and once more when it
// finishes. The callback runs on the coordinating goroutine and must not
// call back into the scheduler.
func WithProgress(fn func(Progress)) PassOption {
	return func(o *passOptions) {
		o.progress = fn
	}
}

// WithSnapshots makes progress reports carry a copy of the atlas page
// currently being filled, for progress display.
func WithSnapshots() PassOption {
	return func(o *passOptions) {
		o.snapshot = true
	}
}

// WithPassID sets the pass id reported in Stats, Progress and log records.
// By default every pass gets a random id.
func WithPassID(id uuid.UUID) PassOption {
	return func(o *passOptions) {
		o.id = id
	}
}
