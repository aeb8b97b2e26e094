package lightmap

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/lightmap/arena"
	"github.com/gogpu/lightmap/atlas"
)

// TaskState is the lifecycle state of a bake task.
type TaskState uint8

// Task states. A task moves Staged, Claimed, Baked, Packed, Retired.
// A task canceled before any worker claimed it ends in Cancelled.
const (
	Staged TaskState = iota
	Claimed
	Baked
	Packed
	Retired
	Cancelled
)

// String returns the state name.
func (s TaskState) String() string {
	switch s {
	case Staged:
		return "staged"
	case Claimed:
		return "claimed"
	case Baked:
		return "baked"
	case Packed:
		return "packed"
	case Retired:
		return "retired"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("TaskState(%d)", s)
	}
}

// Face visibility bits, one nibble per cube face in a FaceMask.
const (
	FaceTri1 uint8 = 1 << iota // first triangle visible
	FaceTri2                   // second triangle visible
	FaceFlip                   // triangulate along the other diagonal
)

// FaceMask records which of a cell's six faces need lighting.
type FaceMask uint32

// Face returns the visibility nibble of face i.
func (m FaceMask) Face(i int) uint8 {
	return uint8(m>>(4*i)) & 0xF
}

// With returns m with the nibble of face i set to bits.
func (m FaceMask) With(i int, bits uint8) FaceMask {
	shift := 4 * i
	return m&^(0xF<<shift) | FaceMask(bits&0xF)<<shift
}

// Visible reports whether any triangle of face i is visible.
func (m FaceMask) Visible(i int) bool {
	return m.Face(i)&(FaceTri1|FaceTri2) != 0
}

// Count returns the number of visible faces.
func (m FaceMask) Count() int {
	n := 0
	for i := range 6 {
		if m.Visible(i) {
			n++
		}
	}
	return n
}

// Task is one unit of bake work: the visible faces of a single cell.
//
// The scene fills the exported fields before Submit. Once submitted, the
// task belongs to the scheduler until the pass finishes; Surfaces then
// holds the packed location of every lit surface.
type Task struct {
	// Cell is an opaque reference to the scene cell.
	Cell any

	// Origin is the cell corner in world units and Size its edge length.
	Origin [3]int
	Size   int

	Faces FaceMask

	// Surfaces receive packed tile locations. Entries start out at the
	// ambient reserved location; a surface whose tile failed or was
	// discarded keeps it.
	Surfaces []atlas.Location

	seq    uint64
	state  TaskState
	worker *Worker
	tiles  []arena.TileID
	err    error
}

// NewTask creates a task for a cell with the given number of surfaces.
func NewTask(cell any, origin [3]int, size int, faces FaceMask, surfaces int) *Task {
	t := &Task{
		Cell:     cell,
		Origin:   origin,
		Size:     size,
		Faces:    faces,
		Surfaces: make([]atlas.Location, surfaces),
	}
	for i := range t.Surfaces {
		t.Surfaces[i] = atlas.Location{Page: atlas.IDAmbient}
	}
	return t
}

// Bounds returns the world-space box covered by the cell.
func (t *Task) Bounds() (lo, hi mgl32.Vec3) {
	lo = mgl32.Vec3{float32(t.Origin[0]), float32(t.Origin[1]), float32(t.Origin[2])}
	s := float32(t.Size)
	return lo, lo.Add(mgl32.Vec3{s, s, s})
}

// Seq returns the submission order of the task within its pass.
func (t *Task) Seq() uint64 {
	return t.seq
}

// State returns the lifecycle state. Only stable once the pass finished.
func (t *Task) State() TaskState {
	return t.state
}

// Err returns the error that kept the task from producing lightmaps.
func (t *Task) Err() error {
	return t.err
}

// Tiles returns the number of tiles the task produced.
func (t *Task) Tiles() int {
	return len(t.tiles)
}

// fail records err as the task's failure unless one is already recorded,
// and returns err.
func (t *Task) fail(err error) error {
	if t.err == nil {
		t.err = err
	}
	return err
}
