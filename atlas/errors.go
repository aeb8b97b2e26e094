package atlas

import "errors"

// Sentinel errors for atlas package.
var (
	// ErrTileTooLarge is returned when a tile cannot fit even an empty page.
	ErrTileTooLarge = errors.New("atlas: tile larger than page")

	// ErrAtlasFull is returned when MaxPages pages are open and none has room.
	ErrAtlasFull = errors.New("atlas: page limit reached")

	// ErrNotUpdatable is returned by Page.Upload when the texture does not
	// implement gpucontext.TextureUpdater.
	ErrNotUpdatable = errors.New("atlas: texture does not accept data updates")

	// ErrPixelSize is returned when a pixel buffer is shorter than its
	// dimensions require.
	ErrPixelSize = errors.New("atlas: pixel buffer too small")
)
