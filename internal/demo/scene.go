// Package demo provides a synthetic voxel world and a simple point-light
// lighter for exercising the bake pipeline without a game engine.
package demo

import (
	"context"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/lightmap"
)

// Cube faces, in FaceMask order.
const (
	FaceNegX = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

// faceDirs are the outward unit offsets of the six faces.
var faceDirs = [6][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// Grid is a heightfield world: Size x Size columns of solid cells.
type Grid struct {
	Size int

	// CellSize is the edge length of a cell in world units. It is also
	// the lightmap size of each face.
	CellSize int

	heights []int
}

// NewGrid builds a grid with random column heights in [1, maxHeight].
func NewGrid(size, cellSize, maxHeight int, seed uint64) *Grid {
	rng := rand.New(rand.NewPCG(seed, 0x5eed))
	g := &Grid{
		Size:     size,
		CellSize: cellSize,
		heights:  make([]int, size*size),
	}
	for i := range g.heights {
		g.heights[i] = 1 + rng.IntN(maxHeight)
	}
	return g
}

// Height returns the height of column (x, z), or 0 outside the grid.
func (g *Grid) Height(x, z int) int {
	if x < 0 || z < 0 || x >= g.Size || z >= g.Size {
		return 0
	}
	return g.heights[x+z*g.Size]
}

// Solid reports whether the cell at (x, y, z) is filled.
func (g *Grid) Solid(x, y, z int) bool {
	return y >= 0 && y < g.Height(x, z)
}

// Faces returns the visible faces of a solid cell: those whose neighbour
// is empty. The bottom of the world is never visible.
func (g *Grid) Faces(x, y, z int) lightmap.FaceMask {
	var m lightmap.FaceMask
	for f, d := range faceDirs {
		nx, ny, nz := x+d[0], y+d[1], z+d[2]
		if ny < 0 || g.Solid(nx, ny, nz) {
			continue
		}
		m = m.With(f, lightmap.FaceTri1|lightmap.FaceTri2)
	}
	return m
}

// Origin returns the world-space corner of a cell.
func (g *Grid) Origin(x, y, z int) mgl32.Vec3 {
	s := float32(g.CellSize)
	return mgl32.Vec3{float32(x) * s, float32(y) * s, float32(z) * s}
}

// Walk submits one task per solid cell with at least one visible face.
// Each task has six surfaces, indexed by face.
func (g *Grid) Walk(ctx context.Context, submit func(*lightmap.Task) error) error {
	for z := range g.Size {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := range g.Size {
			for y := range g.Height(x, z) {
				faces := g.Faces(x, y, z)
				if faces.Count() == 0 {
					continue
				}
				origin := [3]int{x * g.CellSize, y * g.CellSize, z * g.CellSize}
				t := lightmap.NewTask([3]int{x, y, z}, origin, g.CellSize, faces, 6)
				if err := submit(t); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// CountFaces returns the number of visible faces in the grid.
func (g *Grid) CountFaces() int {
	n := 0
	for z := range g.Size {
		for x := range g.Size {
			for y := range g.Height(x, z) {
				n += g.Faces(x, y, z).Count()
			}
		}
	}
	return n
}
