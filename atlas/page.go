package atlas

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Page is a single fixed-size atlas texture.
type Page struct {
	// ID is the page's location id (its index plus IDReserved).
	ID int

	// Type is the lightmap type every tile on this page shares.
	Type Type

	// Width and Height are the page dimensions in texels.
	Width, Height int

	// Data holds Width*Height texels of BPP bytes each, row-major.
	Data []byte

	// UnlitX and UnlitY locate the 1x1 ambient texel written by
	// Atlas.InsertUnlit, or -1 if the page has none.
	UnlitX, UnlitY int

	bpp    int
	root   *Node
	tiles  int
	lumels int
	dirty  bool
}

// NewPage creates an empty page.
func NewPage(id int, typ Type, width, height int) *Page {
	bpp := typ.BPP()
	return &Page{
		ID:     id,
		Type:   typ,
		Width:  width,
		Height: height,
		Data:   make([]byte, bpp*width*height),
		UnlitX: -1,
		UnlitY: -1,
		bpp:    bpp,
		root:   NewNode(0, 0, width, height),
	}
}

// BPP returns the bytes per texel of the page.
func (p *Page) BPP() int {
	return p.bpp
}

// Insert packs a w x h tile and copies src into it.
// Direction pages do not pack; callers place their tiles with Copy.
func (p *Page) Insert(src []byte, w, h int) (x, y int, ok bool) {
	if p.Type.Kind() == BumpMap1 {
		return 0, 0, false
	}
	x, y, ok = p.root.Insert(w, h)
	if !ok {
		return 0, 0, false
	}
	p.Copy(x, y, src, w, h)
	return x, y, true
}

// Copy writes a w x h block of tightly packed texels at (x, y).
func (p *Page) Copy(x, y int, src []byte, w, h int) {
	row := p.bpp * w
	stride := p.bpp * p.Width
	dst := p.bpp*x + y*stride
	for range h {
		copy(p.Data[dst:dst+row], src[:row])
		dst += stride
		src = src[row:]
	}
	p.tiles++
	p.lumels += w * h
	p.dirty = true
}

// Equal reports whether the w x h block at (x, y) is byte-identical to src.
func (p *Page) Equal(x, y int, src []byte, w, h int) bool {
	row := p.bpp * w
	if len(src) < row*h {
		return false
	}
	stride := p.bpp * p.Width
	off := p.bpp*x + y*stride
	for range h {
		if !bytes.Equal(p.Data[off:off+row], src[:row]) {
			return false
		}
		off += stride
		src = src[row:]
	}
	return true
}

// Available returns the largest free square side left on the page.
func (p *Page) Available() int {
	return p.root.Available()
}

// Tiles returns the number of tiles copied into the page.
func (p *Page) Tiles() int {
	return p.tiles
}

// Lumels returns the number of texels covered by copied tiles.
func (p *Page) Lumels() int {
	return p.lumels
}

// Utilization returns the fraction of the page covered by tiles (0.0 to 1.0).
func (p *Page) Utilization() float64 {
	total := p.Width * p.Height
	if total <= 0 {
		return 0
	}
	return float64(p.lumels) / float64(total)
}

// IsDirty reports whether the page changed since the last MarkClean.
func (p *Page) IsDirty() bool {
	return p.dirty
}

// MarkClean marks the page as uploaded.
func (p *Page) MarkClean() {
	p.dirty = false
}

// Extent returns the GPU texture size of the page.
func (p *Page) Extent() gputypes.Extent3D {
	return gputypes.Extent3D{
		Width:              uint32(p.Width),  //nolint:gosec // page sizes are validated
		Height:             uint32(p.Height), //nolint:gosec // page sizes are validated
		DepthOrArrayLayers: 1,
	}
}

// Descriptor returns the description of the GPU texture the page is
// uploaded into.
func (p *Page) Descriptor() gputypes.TextureDescriptor {
	return gputypes.TextureDescriptor{
		Label:         fmt.Sprintf("lightmap %d %v", p.ID, p.Type),
		Size:          p.Extent(),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        p.Type.TextureFormat(),
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// RGBA returns the page expanded to 4 bytes per texel.
// RGB texels get an opaque alpha.
func (p *Page) RGBA() []byte {
	n := p.Width * p.Height
	if p.bpp == 4 {
		out := make([]byte, len(p.Data))
		copy(out, p.Data)
		return out
	}
	out := make([]byte, n*4)
	for i := range n {
		out[i*4] = p.Data[i*3]
		out[i*4+1] = p.Data[i*3+1]
		out[i*4+2] = p.Data[i*3+2]
		out[i*4+3] = 0xFF
	}
	return out
}

// Image returns a copy of the page as an image.
func (p *Page) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.RGBA(),
		Stride: p.Width * 4,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}

// Upload writes the page into an existing GPU texture and marks it clean.
// The texture must implement gpucontext.TextureUpdater and match
// Descriptor.
func (p *Page) Upload(texture any) error {
	updater, ok := texture.(gpucontext.TextureUpdater)
	if !ok {
		return ErrNotUpdatable
	}
	if err := updater.UpdateData(p.RGBA()); err != nil {
		return fmt.Errorf("atlas: page %d upload failed: %w", p.ID, err)
	}
	p.dirty = false
	return nil
}
