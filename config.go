package lightmap

import (
	"runtime"
	"time"

	"github.com/gogpu/lightmap/arena"
	"github.com/gogpu/lightmap/atlas"
	"github.com/gogpu/lightmap/internal/dedup"
)

// Config holds bake pipeline configuration.
type Config struct {
	// Workers is the number of bake workers.
	// 0 uses GOMAXPROCS. 1 bakes inline on the calling goroutine.
	Workers int

	// ArenaSize is the per-worker arena capacity in bytes.
	// Default: 2 MiB
	ArenaSize int

	// PageWidth and PageHeight are the atlas page dimensions in texels.
	// Default: 512x512
	PageWidth  int
	PageHeight int

	// MaxPages limits the atlas size, companion pages included.
	// Zero means unlimited.
	MaxPages int

	// DedupMaxSize is the largest tile width and height that is checked
	// for an identical packed tile. Zero disables deduplication.
	// Default: 3
	DedupMaxSize int

	// MaxBatch is the number of staged tasks that forces a batch flip.
	// Default: 4096
	MaxBatch int

	// ProgressInterval is how often a waiting coordinator reports
	// progress and checks for cancellation.
	// Default: 250ms
	ProgressInterval time.Duration

	// Ambient is the colour of the unlit texel written into every page.
	Ambient [3]uint8
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		ArenaSize:        arena.DefaultCapacity,
		PageWidth:        512,
		PageHeight:       512,
		DedupMaxSize:     dedup.DefaultMaxSize,
		MaxBatch:         4096,
		ProgressInterval: 250 * time.Millisecond,
		Ambient:          [3]uint8{0x19, 0x19, 0x19},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return &ConfigError{Field: "Workers", Reason: "must be non-negative"}
	}
	if c.ArenaSize < arena.HeaderSize+3 {
		return &ConfigError{Field: "ArenaSize", Reason: "must hold at least one texel"}
	}
	if c.DedupMaxSize < 0 {
		return &ConfigError{Field: "DedupMaxSize", Reason: "must be non-negative"}
	}
	if c.MaxBatch < 1 {
		return &ConfigError{Field: "MaxBatch", Reason: "must be at least 1"}
	}
	if c.ProgressInterval <= 0 {
		return &ConfigError{Field: "ProgressInterval", Reason: "must be positive"}
	}
	ac := c.atlasConfig()
	if err := ac.Validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) atlasConfig() atlas.Config {
	return atlas.Config{
		PageWidth:  c.PageWidth,
		PageHeight: c.PageHeight,
		MaxPages:   c.MaxPages,
	}
}

// workers returns the effective worker count.
func (c *Config) workers() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
