package lightmap

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/lightmap/atlas"
)

func TestBake_UnlitTexel(t *testing.T) {
	cfg := testConfig(1)
	cfg.Ambient = [3]uint8{1, 2, 3}
	b := newTestBaker(t, cfg, &paintLighter{typ: atlas.BumpMap0})

	_, err := b.Bake(context.Background(), submitAll(makeTasks(5, 5, 1)))
	require.NoError(t, err)

	pages := b.Atlas().Pages()
	require.Len(t, pages, 2)
	colour, dir := pages[0], pages[1]
	require.Equal(t, atlas.BumpMap1, dir.Type)

	require.GreaterOrEqual(t, colour.UnlitX, 0)
	off := (colour.UnlitY*colour.Width + colour.UnlitX) * colour.BPP()
	assert.Equal(t, []byte{1, 2, 3}, colour.Data[off:off+3])
	assert.Equal(t, []byte{128, 128, 255}, dir.Data[off:off+3])
	assert.Equal(t, -1, dir.UnlitX, "direction pages get no unlit texel of their own")
}

func TestBake_DirectionGoesToCompanion(t *testing.T) {
	task := NewTask(10, [3]int{}, 4, 0, 1)
	b := newTestBaker(t, testConfig(1), &paintLighter{typ: atlas.BumpMap0})

	_, err := b.Bake(context.Background(), submitAll([]*Task{task}))
	require.NoError(t, err)

	loc := task.Surfaces[0]
	color := bytes.Repeat([]byte{10}, 4*4*3)
	dir := bytes.Repeat([]byte{10 ^ 0x80}, 4*4*3)
	assert.True(t, b.Atlas().Matches(loc, atlas.BumpMap0, color, dir))
	assert.False(t, b.Atlas().Matches(loc, atlas.BumpMap0, color, color))
}

func TestBake_ResetsAtlas(t *testing.T) {
	b := newTestBaker(t, testConfig(2), &paintLighter{typ: atlas.Diffuse})

	first, err := b.Bake(context.Background(), submitAll(makeTasks(100, 100, 2)))
	require.NoError(t, err)
	second, err := b.Bake(context.Background(), submitAll(makeTasks(100, 100, 2)))
	require.NoError(t, err)

	assert.Equal(t, first.Pages, second.Pages)
	assert.Equal(t, first.Lumels, second.Lumels)
	assert.NotEqual(t, first.Pass, second.Pass)
}

func TestPatch_KeepsAtlasAndSharesTiles(t *testing.T) {
	b := newTestBaker(t, testConfig(1), &paintLighter{typ: atlas.Diffuse})

	orig := NewTask(7, [3]int{}, 2, 0, 1)
	_, err := b.Bake(context.Background(), submitAll([]*Task{orig}))
	require.NoError(t, err)
	pages := b.Atlas().Len()

	patched := NewTask(7, [3]int{4, 0, 0}, 2, 0, 1)
	fresh := NewTask(8, [3]int{8, 0, 0}, 2, 0, 1)
	stats, err := b.Patch(context.Background(), submitAll([]*Task{patched, fresh}))
	require.NoError(t, err)

	assert.Equal(t, pages, b.Atlas().Len())
	assert.Equal(t, orig.Surfaces[0], patched.Surfaces[0], "identical tile shares the old location")
	assert.NotEqual(t, orig.Surfaces[0], fresh.Surfaces[0])
	assert.Equal(t, 1, stats.Shared)
	assert.Equal(t, 2, stats.Tasks)
}

func TestBaker_Clear(t *testing.T) {
	b := newTestBaker(t, testConfig(1), &paintLighter{typ: atlas.Diffuse})
	_, err := b.Bake(context.Background(), submitAll(makeTasks(4, 4, 1)))
	require.NoError(t, err)
	require.NotZero(t, b.Atlas().Len())

	require.NoError(t, b.Clear())
	assert.Zero(t, b.Atlas().Len())
}

func TestBake_PassIDAndLogging(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	id := uuid.MustParse("6f1c8e9a-4a3b-4d1f-9c55-0e2f7a3b9d10")
	failing := NewTask(1, [3]int{}, 100, 0, 1) // larger than a page
	b := newTestBaker(t, testConfig(2), &paintLighter{typ: atlas.Diffuse})

	stats, err := b.Bake(context.Background(), submitAll([]*Task{failing, NewTask(2, [3]int{}, 2, 0, 1)}), WithPassID(id))
	require.NoError(t, err)
	assert.Equal(t, id, stats.Pass)

	out := buf.String()
	assert.Contains(t, out, "pass="+id.String())
	assert.Contains(t, out, "lightmap: bake started")
	assert.Contains(t, out, "lightmap: generated lightmaps")
	assert.Contains(t, out, "lightmap: task produced no lightmap")
	assert.True(t, strings.Contains(out, "level=WARN"), "failed task should log a warning")
}
