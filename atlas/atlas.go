package atlas

import "fmt"

// Reserved location ids. Surfaces that reference them use a built-in
// constant texture instead of an atlas page.
const (
	IDAmbient = iota
	IDAmbient1
	IDBright
	IDBright1
	IDDark
	IDDark1

	// IDReserved is the id of the first atlas page.
	IDReserved
)

// Config holds atlas configuration.
type Config struct {
	// PageWidth and PageHeight are the page dimensions in texels.
	// Default: 512x512
	PageWidth  int
	PageHeight int

	// MaxPages limits the number of pages, companions included.
	// Zero means unlimited.
	MaxPages int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		PageWidth:  512,
		PageHeight: 512,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PageWidth < 1 || c.PageWidth > 16384 {
		return &ConfigError{Field: "PageWidth", Reason: "must be in 1..16384"}
	}
	if c.PageHeight < 1 || c.PageHeight > 16384 {
		return &ConfigError{Field: "PageHeight", Reason: "must be in 1..16384"}
	}
	if c.MaxPages < 0 {
		return &ConfigError{Field: "MaxPages", Reason: "must be non-negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}

// Location is a packed tile's place in the atlas.
type Location struct {
	// Page is the location id: a page id, or one of the reserved ids.
	Page int

	// Pixel rectangle inside the page.
	X, Y, W, H int
}

// Reserved reports whether the location refers to a built-in constant tile.
func (l Location) Reserved() bool {
	return l.Page < IDReserved
}

// Atlas is an ordered set of pages.
type Atlas struct {
	config Config
	pages  []*Page
	last   int // index of the most recently opened colour page, or -1
}

// New creates an empty atlas.
func New(config Config) (*Atlas, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Atlas{config: config, last: -1}, nil
}

// Config returns the atlas configuration.
func (a *Atlas) Config() Config {
	return a.config
}

// TileSize is the type and size of a tile about to be inserted.
type TileSize struct {
	Type Type
	W, H int
}

// Fits reports whether Insert would succeed for every tile, taken in
// order, without opening more than MaxPages pages. The atlas is not
// modified.
func (a *Atlas) Fits(tiles []TileSize) bool {
	for _, t := range tiles {
		if t.W <= 0 || t.H <= 0 || t.W > a.config.PageWidth || t.H > a.config.PageHeight {
			return false
		}
	}
	if a.config.MaxPages <= 0 {
		return true
	}

	type trial struct {
		typ  Type
		root *Node
	}
	var trees []trial
	for _, p := range a.pages {
		if p.Type.Kind() != BumpMap1 {
			trees = append(trees, trial{p.Type, p.root.clone()})
		}
	}

	pages := len(a.pages)
	for _, t := range tiles {
		placed := false
		for _, tr := range trees {
			if tr.typ != t.Type {
				continue
			}
			if _, _, ok := tr.root.Insert(t.W, t.H); ok {
				placed = true
				break
			}
		}
		if placed {
			continue
		}

		need := 1
		if t.Type.Directional() {
			need = 2
		}
		if pages+need > a.config.MaxPages {
			return false
		}
		pages += need
		root := NewNode(0, 0, a.config.PageWidth, a.config.PageHeight)
		root.Insert(t.W, t.H)
		trees = append(trees, trial{t.Type, root})
	}
	return true
}

// Insert packs a w x h tile of type typ and returns its location.
//
// color holds w*h texels of typ.BPP() bytes. For BumpMap0 tiles dir holds
// w*h RGB direction texels, written to the companion page at the same
// coordinates; it is ignored for other types.
//
// Existing pages of the same type are tried in order before a new page is
// opened. Returns ErrTileTooLarge if the tile exceeds the page size and
// ErrAtlasFull if a new page would exceed MaxPages.
func (a *Atlas) Insert(typ Type, w, h int, color, dir []byte) (Location, error) {
	if w <= 0 || h <= 0 || w > a.config.PageWidth || h > a.config.PageHeight {
		return Location{}, fmt.Errorf("%w: %dx%d on %dx%d page", ErrTileTooLarge, w, h, a.config.PageWidth, a.config.PageHeight)
	}
	if len(color) < w*h*typ.BPP() || (typ.Directional() && len(dir) < w*h*3) {
		return Location{}, ErrPixelSize
	}

	for i, p := range a.pages {
		if p.Type != typ {
			continue
		}
		if x, y, ok := p.Insert(color, w, h); ok {
			if typ.Directional() {
				a.pages[i+1].Copy(x, y, dir, w, h)
			}
			return Location{Page: p.ID, X: x, Y: y, W: w, H: h}, nil
		}
	}

	p, err := a.open(typ)
	if err != nil {
		return Location{}, err
	}
	x, y, ok := p.Insert(color, w, h)
	if !ok {
		// Unreachable: the tile fits an empty page.
		return Location{}, ErrTileTooLarge
	}
	if typ.Directional() {
		a.pages[len(a.pages)-1].Copy(x, y, dir, w, h)
	}
	return Location{Page: p.ID, X: x, Y: y, W: w, H: h}, nil
}

// open appends a page of the given type, plus its direction companion
// for BumpMap0.
func (a *Atlas) open(typ Type) (*Page, error) {
	need := 1
	if typ.Directional() {
		need = 2
	}
	if a.config.MaxPages > 0 && len(a.pages)+need > a.config.MaxPages {
		return nil, ErrAtlasFull
	}

	p := NewPage(len(a.pages)+IDReserved, typ, a.config.PageWidth, a.config.PageHeight)
	a.pages = append(a.pages, p)
	a.last = len(a.pages) - 1
	if typ.Directional() {
		a.pages = append(a.pages, NewPage(len(a.pages)+IDReserved, typ.Companion(), a.config.PageWidth, a.config.PageHeight))
	}
	return p, nil
}

// Matches reports whether the tile at loc holds exactly the given texels.
// Directional tiles also compare the companion page.
func (a *Atlas) Matches(loc Location, typ Type, color, dir []byte) bool {
	p := a.Page(loc.Page)
	if p == nil || p.Type != typ {
		return false
	}
	if !p.Equal(loc.X, loc.Y, color, loc.W, loc.H) {
		return false
	}
	if !typ.Directional() {
		return true
	}
	c := a.Page(loc.Page + 1)
	return c != nil && c.Equal(loc.X, loc.Y, dir, loc.W, loc.H)
}

// Page returns the page with the given id, or nil.
func (a *Atlas) Page(id int) *Page {
	i := id - IDReserved
	if i < 0 || i >= len(a.pages) {
		return nil
	}
	return a.pages[i]
}

// Pages returns all pages in id order. The slice must not be modified.
func (a *Atlas) Pages() []*Page {
	return a.pages
}

// Len returns the number of pages.
func (a *Atlas) Len() int {
	return len(a.pages)
}

// Current returns the most recently opened colour page, or nil.
func (a *Atlas) Current() *Page {
	if a.last < 0 {
		return nil
	}
	return a.pages[a.last]
}

// InsertUnlit writes a 1x1 ambient texel into every colour page that has
// room for it. BumpMap0 companions receive a texel facing straight out
// of the surface.
func (a *Atlas) InsertUnlit(r, g, b uint8) {
	for i, p := range a.pages {
		if p.Type.Kind() == BumpMap1 || p.UnlitX >= 0 {
			continue
		}
		texel := []byte{r, g, b, 0xFF}[:p.bpp]
		x, y, ok := p.Insert(texel, 1, 1)
		if !ok {
			continue
		}
		if p.Type.Directional() {
			a.pages[i+1].Copy(x, y, []byte{128, 128, 255}, 1, 1)
		}
		p.UnlitX, p.UnlitY = x, y
	}
}

// DirtyPages returns ids of pages written since their last MarkClean.
func (a *Atlas) DirtyPages() []int {
	var dirty []int
	for _, p := range a.pages {
		if p.dirty {
			dirty = append(dirty, p.ID)
		}
	}
	return dirty
}

// Reset drops every page.
func (a *Atlas) Reset() {
	clear(a.pages)
	a.pages = a.pages[:0]
	a.last = -1
}

// Stats summarises atlas usage.
type Stats struct {
	Pages  int
	Tiles  int
	Lumels int

	// Utilization is lumels over the total area of all pages (0.0 to 1.0).
	Utilization float64
}

// Stats returns usage totals over all pages.
func (a *Atlas) Stats() Stats {
	var s Stats
	s.Pages = len(a.pages)
	area := 0
	for _, p := range a.pages {
		s.Tiles += p.tiles
		s.Lumels += p.lumels
		area += p.Width * p.Height
	}
	if area > 0 {
		s.Utilization = float64(s.Lumels) / float64(area)
	}
	return s
}
