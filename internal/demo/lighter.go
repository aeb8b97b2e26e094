package demo

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/lightmap"
	"github.com/gogpu/lightmap/arena"
	"github.com/gogpu/lightmap/atlas"
)

// Light is a point light with linear falloff.
type Light struct {
	Pos    mgl32.Vec3
	Color  mgl32.Vec3 // 0..1 per channel
	Radius float32
}

// RandomLights scatters n lights above a grid.
func RandomLights(g *Grid, n int, seed uint64) []Light {
	rng := rand.New(rand.NewPCG(seed, 0x11947))
	extent := float32(g.Size * g.CellSize)
	lights := make([]Light, n)
	for i := range lights {
		lights[i] = Light{
			Pos: mgl32.Vec3{
				rng.Float32() * extent,
				float32(g.CellSize) * (2 + rng.Float32()*6),
				rng.Float32() * extent,
			},
			Color:  mgl32.Vec3{0.5 + rng.Float32()/2, 0.5 + rng.Float32()/2, 0.5 + rng.Float32()/2},
			Radius: extent / 4,
		}
	}
	return lights
}

// Lighter shades every visible face of a task with Lambert point lights.
// Faces no light reaches keep the ambient location.
type Lighter struct {
	Lights  []Light
	Ambient [3]uint8
	Type    atlas.Type

	// cache maps a cell origin to the lights that can reach it. Guarded
	// by the worker's light cache lock.
	cache map[[3]int][]int
}

// NewLighter creates a lighter producing tiles of the given type.
func NewLighter(lights []Light, ambient [3]uint8, typ atlas.Type) *Lighter {
	return &Lighter{
		Lights:  lights,
		Ambient: ambient,
		Type:    typ,
		cache:   make(map[[3]int][]int),
	}
}

// Light implements lightmap.Lighter.
func (l *Lighter) Light(w *lightmap.Worker, t *lightmap.Task) error {
	lights := l.reaching(w, t)
	if len(lights) == 0 {
		return nil
	}

	lo, _ := t.Bounds()
	for face := range 6 {
		if !t.Faces.Visible(face) {
			continue
		}
		tile, err := w.Alloc(arena.Request{Width: t.Size, Height: t.Size, Type: l.Type})
		if err != nil {
			return err
		}
		if !l.shade(tile, lo, t.Size, face, lights) {
			w.FreeLast()
			continue
		}
		tile.Surface = face
	}
	return nil
}

// reaching returns the indices of lights whose radius touches the cell.
func (l *Lighter) reaching(w *lightmap.Worker, t *lightmap.Task) []int {
	var idx []int
	w.WithLightCache(func() {
		if cached, ok := l.cache[t.Origin]; ok {
			idx = cached
			return
		}
		lo, hi := t.Bounds()
		center := lo.Add(hi).Mul(0.5)
		reach := hi.Sub(lo).Len() / 2
		for i, li := range l.Lights {
			if li.Pos.Sub(center).Len() < li.Radius+reach {
				idx = append(idx, i)
			}
		}
		l.cache[t.Origin] = idx
	})
	return idx
}

// shade fills a face tile and reports whether any texel differs from the
// ambient colour.
func (l *Lighter) shade(tile *arena.Tile, lo mgl32.Vec3, size, face int, lights []int) bool {
	axis := face / 2
	var n mgl32.Vec3
	n[axis] = -1
	plane := lo
	if face%2 == 1 {
		n[axis] = 1
		plane[axis] += float32(size)
	}
	ua, va := (axis+1)%3, (axis+2)%3
	scale := float32(size) / float32(tile.Width)

	bpp := tile.Type.BPP()
	lit := false
	for v := range tile.Height {
		for u := range tile.Width {
			p := plane
			p[ua] += (float32(u) + 0.5) * scale
			p[va] += (float32(v) + 0.5) * scale

			var c, dir mgl32.Vec3
			for _, i := range lights {
				li := l.Lights[i]
				d := li.Pos.Sub(p)
				dist := d.Len()
				if dist == 0 || dist >= li.Radius {
					continue
				}
				d = d.Mul(1 / dist)
				k := n.Dot(d)
				if k <= 0 {
					continue
				}
				k *= 1 - dist/li.Radius
				c = c.Add(li.Color.Mul(k))
				dir = dir.Add(d.Mul(k))
			}

			off := (v*tile.Width + u) * bpp
			for ch := range 3 {
				b := uint8(mgl32.Clamp(float32(l.Ambient[ch])+c[ch]*255, 0, 255))
				if b != l.Ambient[ch] {
					lit = true
				}
				tile.Color[off+ch] = b
			}
			if bpp == 4 {
				tile.Color[off+3] = 0xFF
			}

			if tile.Direction != nil {
				if dir.Len() > 0 {
					dir = dir.Normalize()
				} else {
					dir = n
				}
				doff := (v*tile.Width + u) * 3
				for ch := range 3 {
					tile.Direction[doff+ch] = uint8(mgl32.Clamp((dir[ch]*0.5+0.5)*255, 0, 255))
				}
			}
		}
	}
	return lit
}
