package atlas

import (
	"image"
	"math/rand/v2"
	"testing"
)

// =============================================================================
// Node Insert Tests
// =============================================================================

func TestNode_ExactFit(t *testing.T) {
	n := NewNode(0, 0, 16, 16)

	x, y, ok := n.Insert(16, 16)
	if !ok {
		t.Fatal("exact fit should succeed")
	}
	if x != 0 || y != 0 {
		t.Errorf("Insert() = (%d,%d), want (0,0)", x, y)
	}
	if n.Available() != 0 {
		t.Errorf("Available() = %d, want 0", n.Available())
	}
	if _, _, ok := n.Insert(1, 1); ok {
		t.Error("full node should reject further inserts")
	}
}

func TestNode_Quadrants(t *testing.T) {
	n := NewNode(0, 0, 256, 256)

	want := []image.Point{{0, 0}, {128, 0}, {0, 128}, {128, 128}}
	for i, w := range want {
		x, y, ok := n.Insert(128, 128)
		if !ok {
			t.Fatalf("insert %d failed", i)
		}
		if x != w.X || y != w.Y {
			t.Errorf("insert %d = (%d,%d), want (%d,%d)", i, x, y, w.X, w.Y)
		}
	}

	if _, _, ok := n.Insert(128, 128); ok {
		t.Error("fifth 128x128 insert should fail on a 256x256 page")
	}
	if n.Count() != 1 {
		t.Errorf("Count() = %d, want 1 (fully used tree collapses)", n.Count())
	}
}

func TestNode_SplitAxis(t *testing.T) {
	// Wide margin: split vertically, second child to the right.
	n := NewNode(0, 0, 64, 16)
	if _, _, ok := n.Insert(8, 8); !ok {
		t.Fatal("insert failed")
	}
	c1, c2 := n.Children()
	if c1 == nil || c2 == nil {
		t.Fatal("expected children after split")
	}
	if _, _, w, h := c1.Rect(); w != 8 || h != 16 {
		t.Errorf("child1 = %dx%d, want 8x16", w, h)
	}
	if x, y, w, h := c2.Rect(); x != 8 || y != 0 || w != 56 || h != 16 {
		t.Errorf("child2 = (%d,%d %dx%d), want (8,0 56x16)", x, y, w, h)
	}

	// Tall margin: split horizontally, second child below.
	n = NewNode(0, 0, 16, 64)
	if _, _, ok := n.Insert(8, 8); !ok {
		t.Fatal("insert failed")
	}
	c1, c2 = n.Children()
	if _, _, w, h := c1.Rect(); w != 16 || h != 8 {
		t.Errorf("child1 = %dx%d, want 16x8", w, h)
	}
	if x, y, w, h := c2.Rect(); x != 0 || y != 8 || w != 16 || h != 56 {
		t.Errorf("child2 = (%d,%d %dx%d), want (0,8 16x56)", x, y, w, h)
	}
}

func TestNode_RejectsInvalid(t *testing.T) {
	n := NewNode(0, 0, 32, 32)

	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 4},
		{"zero height", 4, 0},
		{"negative", -1, 4},
		{"too wide", 33, 4},
		{"too tall", 4, 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := n.Insert(tt.w, tt.h); ok {
				t.Errorf("Insert(%d,%d) should fail", tt.w, tt.h)
			}
		})
	}
	if n.Count() != 1 {
		t.Errorf("rejected inserts should not split, Count() = %d", n.Count())
	}
}

func TestNode_RandomDisjoint(t *testing.T) {
	for seed := range uint64(20) {
		rng := rand.New(rand.NewPCG(seed, 7))
		n := NewNode(0, 0, 128, 96)

		var claimed []image.Rectangle
		for range 400 {
			w := 1 + rng.IntN(24)
			h := 1 + rng.IntN(24)
			x, y, ok := n.Insert(w, h)
			if ok {
				r := image.Rect(x, y, x+w, y+h)
				if !r.In(image.Rect(0, 0, 128, 96)) {
					t.Fatalf("seed %d: %v outside page", seed, r)
				}
				for _, c := range claimed {
					if r.Overlaps(c) {
						t.Fatalf("seed %d: %v overlaps %v", seed, r, c)
					}
				}
				claimed = append(claimed, r)
			}
			checkAvailable(t, n, claimed)
		}
	}
}

func TestNode_DistinctSizesBoundTree(t *testing.T) {
	// Identical tiles fill rows that collapse as they complete, so the tree
	// stays small no matter how many tiles are packed.
	n := NewNode(0, 0, 256, 256)
	count := 0
	for {
		if _, _, ok := n.Insert(4, 4); !ok {
			break
		}
		count++
		if nodes := n.Count(); nodes > 64*4 {
			t.Fatalf("tree grew to %d nodes after %d tiles", nodes, count)
		}
	}
	if count != 64*64 {
		t.Errorf("packed %d tiles, want %d", count, 64*64)
	}
	if n.Count() != 1 {
		t.Errorf("Count() = %d after filling, want 1", n.Count())
	}
}

// checkAvailable walks the tree and verifies that every node's available
// value equals the largest min(w, h) of the free leaves beneath it, and
// that no free leaf overlaps a claimed rectangle.
func checkAvailable(t *testing.T, n *Node, claimed []image.Rectangle) int {
	t.Helper()

	if n.Leaf() {
		x, y, w, h := n.Rect()
		if n.Available() == 0 {
			return 0
		}
		if n.Available() != min(w, h) {
			t.Fatalf("free leaf (%d,%d %dx%d) available = %d, want %d", x, y, w, h, n.Available(), min(w, h))
		}
		r := image.Rect(x, y, x+w, y+h)
		for _, c := range claimed {
			if r.Overlaps(c) {
				t.Fatalf("free leaf %v overlaps claimed %v", r, c)
			}
		}
		return n.Available()
	}

	c1, c2 := n.Children()
	want := max(checkAvailable(t, c1, claimed), checkAvailable(t, c2, claimed))
	if n.Available() != want {
		x, y, w, h := n.Rect()
		t.Fatalf("node (%d,%d %dx%d) available = %d, want %d", x, y, w, h, n.Available(), want)
	}
	if want == 0 {
		t.Fatal("internal node with nothing free should have collapsed")
	}
	return want
}
