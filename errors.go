package lightmap

import (
	"errors"

	"github.com/gogpu/lightmap/atlas"
)

var (
	// ErrCanceled is returned by Submit, Flush and Finish once the pass has
	// been canceled. Tasks claimed before cancellation are still packed.
	ErrCanceled = errors.New("lightmap: bake canceled")

	// ErrArenaExhausted is returned by Worker.Alloc when a single task's
	// tiles do not fit the worker's arena and nothing older is left to
	// pack.
	ErrArenaExhausted = errors.New("lightmap: arena exhausted by one task")

	// ErrClosed is returned when using a scheduler after Finish.
	ErrClosed = errors.New("lightmap: scheduler closed")

	// ErrBusy is returned by Baker.Begin while another pass is running.
	ErrBusy = errors.New("lightmap: bake pass already running")

	// ErrTileTooLarge is returned for tiles that exceed the arena capacity
	// or the atlas page size.
	ErrTileTooLarge = atlas.ErrTileTooLarge
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "lightmap: invalid config." + e.Field + ": " + e.Reason
}
