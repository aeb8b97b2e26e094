package dedup

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/lightmap/atlas"
)

func newAtlas(t *testing.T, size int) *atlas.Atlas {
	t.Helper()
	a, err := atlas.New(atlas.Config{PageWidth: size, PageHeight: size})
	if err != nil {
		t.Fatalf("atlas.New() error = %v", err)
	}
	return a
}

func fill(n, bpp int, v byte) []byte {
	return bytes.Repeat([]byte{v}, n*bpp)
}

func TestHash(t *testing.T) {
	want := uint32(1+1<<8) ^ uint32(1+2<<4+3<<8)
	if got := Hash(1, 1, []byte{1, 2, 3}, 3); got != want {
		t.Errorf("Hash() = %#x, want %#x", got, want)
	}

	// Equal texels cancel out.
	if got := Hash(1, 2, []byte{1, 2, 3, 1, 2, 3}, 3); got != 1+2<<8 {
		t.Errorf("Hash() = %#x, want %#x", got, 1+2<<8)
	}

	// Alpha does not contribute.
	a := Hash(1, 1, []byte{9, 8, 7, 0}, 4)
	b := Hash(1, 1, []byte{9, 8, 7, 255}, 4)
	if a != b {
		t.Errorf("alpha changed the hash: %#x != %#x", a, b)
	}

	// Dimensions do.
	if Hash(1, 2, fill(2, 3, 5), 3) == Hash(2, 1, fill(2, 3, 5), 3) {
		t.Error("1x2 and 2x1 tiles should hash differently")
	}
}

func TestCache_SharesIdenticalTiles(t *testing.T) {
	a := newAtlas(t, 64)
	c := New(a, DefaultMaxSize)
	color := fill(4, 3, 77)

	first, shared, err := c.FindOrInsert(atlas.Diffuse, 2, 2, color, nil)
	if err != nil || shared {
		t.Fatalf("first FindOrInsert() = shared %v, err %v", shared, err)
	}
	second, shared, err := c.FindOrInsert(atlas.Diffuse, 2, 2, fill(4, 3, 77), nil)
	if err != nil {
		t.Fatalf("FindOrInsert() error = %v", err)
	}
	if !shared {
		t.Error("identical tile should be shared")
	}
	if second != first {
		t.Errorf("shared location = %+v, want %+v", second, first)
	}
	if got := a.Stats().Tiles; got != 1 {
		t.Errorf("atlas tiles = %d, want 1", got)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, 1 entry", stats)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", stats.HitRate())
	}
}

func TestCache_CollisionIsNotShared(t *testing.T) {
	a := newAtlas(t, 64)
	c := New(a, DefaultMaxSize)

	// XOR is order independent: swapped texels collide but differ.
	ab := []byte{10, 20, 30, 40, 50, 60}
	ba := []byte{40, 50, 60, 10, 20, 30}
	if Hash(2, 1, ab, 3) != Hash(2, 1, ba, 3) {
		t.Fatal("test tiles should collide")
	}

	first, _, _ := c.FindOrInsert(atlas.Diffuse, 2, 1, ab, nil)
	second, shared, err := c.FindOrInsert(atlas.Diffuse, 2, 1, ba, nil)
	if err != nil {
		t.Fatalf("FindOrInsert() error = %v", err)
	}
	if shared || second == first {
		t.Error("colliding but different tiles must not share a location")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCache_TypeAndDirectionMustMatch(t *testing.T) {
	a := newAtlas(t, 64)
	c := New(a, DefaultMaxSize)
	color := fill(1, 3, 100)

	c.FindOrInsert(atlas.Diffuse, 1, 1, color, nil)
	if _, shared, _ := c.FindOrInsert(atlas.BumpMap0, 1, 1, color, []byte{128, 128, 255}); shared {
		t.Error("tiles of different types must not share")
	}
	if _, shared, _ := c.FindOrInsert(atlas.BumpMap0, 1, 1, color, []byte{0, 128, 255}); shared {
		t.Error("bump tiles with different directions must not share")
	}
	if _, shared, _ := c.FindOrInsert(atlas.BumpMap0, 1, 1, color, []byte{0, 128, 255}); !shared {
		t.Error("identical bump tile should share")
	}
}

func TestCache_LargeTilesSkip(t *testing.T) {
	a := newAtlas(t, 64)
	c := New(a, 2)
	color := fill(9, 3, 1)

	c.FindOrInsert(atlas.Diffuse, 3, 3, color, nil)
	_, shared, err := c.FindOrInsert(atlas.Diffuse, 3, 3, color, nil)
	if err != nil {
		t.Fatalf("FindOrInsert() error = %v", err)
	}
	if shared {
		t.Error("tile larger than MaxSize should not be shared")
	}
	if s := c.Stats(); s.Skips != 2 || s.Entries != 0 {
		t.Errorf("Stats() = %+v, want 2 skips and no entries", s)
	}
}

func TestCache_Disabled(t *testing.T) {
	a := newAtlas(t, 64)
	c := New(a, 0)
	for range 3 {
		if _, shared, _ := c.FindOrInsert(atlas.Diffuse, 1, 1, fill(1, 3, 9), nil); shared {
			t.Fatal("MaxSize 0 should disable sharing")
		}
	}
	if a.Stats().Tiles != 3 {
		t.Errorf("atlas tiles = %d, want 3", a.Stats().Tiles)
	}
}

func TestCache_ClearAndAtlasErrors(t *testing.T) {
	a := newAtlas(t, 4)
	c := New(a, DefaultMaxSize)

	c.FindOrInsert(atlas.Diffuse, 1, 1, fill(1, 3, 1), nil)
	c.Clear()
	a.Reset()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	if _, ok := c.Lookup(atlas.Diffuse, 1, 1, fill(1, 3, 1), nil); ok {
		t.Error("Lookup should miss after Clear")
	}

	_, _, err := c.FindOrInsert(atlas.Diffuse, 8, 8, fill(64, 3, 1), nil)
	if !errors.Is(err, atlas.ErrTileTooLarge) {
		t.Errorf("FindOrInsert() error = %v, want ErrTileTooLarge", err)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.Skips != 0 {
		t.Errorf("Stats() = %+v after ResetStats", s)
	}
}
