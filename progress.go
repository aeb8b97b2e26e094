package lightmap

import (
	"image"

	"github.com/google/uuid"

	"github.com/gogpu/lightmap/atlas"
)

// Progress is a point-in-time view of a bake pass.
type Progress struct {
	Pass uuid.UUID

	Submitted int
	Retired   int
	Failed    int
	Cancelled int

	// Pages is the number of atlas pages, companions included.
	Pages int

	// Page is a copy of the colour page being filled, when snapshots are
	// enabled with WithSnapshots. Nil otherwise or before the first page
	// is opened.
	Page *image.NRGBA

	Canceled bool
}

// Fraction returns the share of submitted tasks that are done
// (0.0 to 1.0). Cancelled tasks count as done.
func (p Progress) Fraction() float64 {
	if p.Submitted == 0 {
		return 0
	}
	return float64(p.Retired+p.Cancelled) / float64(p.Submitted)
}

// Thumbnail returns the page snapshot scaled to fit maxSide, or nil.
func (p Progress) Thumbnail(maxSide int) image.Image {
	if p.Page == nil {
		return nil
	}
	return atlas.Thumbnail(p.Page, maxSide)
}
