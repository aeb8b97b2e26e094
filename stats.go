package lightmap

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stats summarises a finished bake pass.
type Stats struct {
	Pass uuid.UUID

	// Tasks is the number of tasks baked and packed. Failed of them
	// produced no lightmap; Cancelled more were dropped unclaimed.
	Tasks     int
	Failed    int
	Cancelled int

	// Lightmaps is the number of tiles placed, Shared of which reuse an
	// identical packed tile.
	Lightmaps int
	Shared    int

	// Atlas totals after the pass, including pages kept by a patch pass.
	Pages       int
	Lumels      int
	Utilization float64

	Duration time.Duration
	Canceled bool
}

// Percent returns the atlas utilization as a whole percentage.
func (s Stats) Percent() int {
	return int(s.Utilization * 100)
}

// String returns the pass summary in one line.
func (s Stats) String() string {
	return fmt.Sprintf("generated %d lightmaps using %d%% of %d textures (%.1f seconds)",
		s.Lightmaps, s.Percent(), s.Pages, s.Duration.Seconds())
}
