// Command lmbake bakes lightmaps for a synthetic voxel world and writes
// the resulting atlas pages as PNG files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/lightmap"
	"github.com/gogpu/lightmap/atlas"
	"github.com/gogpu/lightmap/internal/demo"
)

func main() {
	cfg := lightmap.DefaultConfig()
	var (
		size     = flag.Int("size", 48, "grid columns per side")
		cell     = flag.Int("cell", 4, "cell size in texels")
		height   = flag.Int("height", 8, "maximum column height")
		lights   = flag.Int("lights", 24, "number of point lights")
		seed     = flag.Uint64("seed", 1, "random seed")
		bump     = flag.Bool("bump", false, "bake directional (bump map) lightmaps")
		outDir   = flag.String("out", "lightmaps", "output directory")
		preview  = flag.Int("preview", 0, "also write a preview of the first page scaled to this size")
		verbose  = flag.Bool("v", false, "debug logging")
		workers  = flag.Int("workers", cfg.Workers, "bake workers (0 = GOMAXPROCS, 1 = inline)")
		arenaKB  = flag.Int("arena", cfg.ArenaSize>>10, "per-worker arena size in KiB")
		pageSize = flag.Int("page", cfg.PageWidth, "atlas page size in texels")
		maxPages = flag.Int("max-pages", cfg.MaxPages, "atlas page limit (0 = unlimited)")
		dedup    = flag.Int("dedup", cfg.DedupMaxSize, "largest tile size checked for duplicates (0 = off)")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	lightmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg.Workers = *workers
	cfg.ArenaSize = *arenaKB << 10
	cfg.PageWidth, cfg.PageHeight = *pageSize, *pageSize
	cfg.MaxPages = *maxPages
	cfg.DedupMaxSize = *dedup

	typ := atlas.Diffuse
	if *bump {
		typ = atlas.BumpMap0
	}

	grid := demo.NewGrid(*size, *cell, *height, *seed)
	lighter := demo.NewLighter(demo.RandomLights(grid, *lights, *seed), cfg.Ambient, typ)

	baker, err := lightmap.New(cfg, lighter)
	if err != nil {
		log.Fatalf("lmbake: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bar := newProgressBar(os.Stderr)
	stats, err := baker.Bake(ctx, grid, lightmap.WithProgress(bar.update))
	bar.done()
	if err != nil && !errors.Is(err, lightmap.ErrCanceled) {
		log.Fatalf("lmbake: %v", err)
	}

	p := message.NewPrinter(language.English)
	p.Printf("%d faces, %d lightmaps (%d shared), %d lumels on %d pages, %d%% used, %v\n",
		grid.CountFaces(), stats.Lightmaps, stats.Shared, stats.Lumels, stats.Pages, stats.Percent(), stats.Duration)
	if stats.Canceled {
		p.Printf("canceled: %d tasks dropped\n", stats.Cancelled)
	}

	if err := writePages(*outDir, baker.Atlas(), *preview); err != nil {
		log.Fatalf("lmbake: %v", err)
	}
}

// writePages writes every atlas page as page-NN-<type>.png.
func writePages(dir string, a *atlas.Atlas, preview int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, page := range a.Pages() {
		name := filepath.Join(dir, fmt.Sprintf("page-%02d-%s.png", page.ID, page.Type))
		if err := writePNG(name, page.Image()); err != nil {
			return err
		}
		d := page.Descriptor()
		lightmap.Logger().Debug("lmbake: wrote page", "file", name, "texture", d.Label, "format", d.Format, "tiles", page.Tiles())
		page.MarkClean()
	}
	if preview > 0 && a.Len() > 0 {
		return writePNG(filepath.Join(dir, "preview.png"), atlas.Thumbnail(a.Pages()[0].Image(), preview))
	}
	return nil
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return f.Close()
}

// progressBar redraws a single status line on a terminal and falls back
// to log records otherwise.
type progressBar struct {
	out   *os.File
	tty   bool
	width int
	last  int
}

func newProgressBar(out *os.File) *progressBar {
	fd := int(out.Fd()) //nolint:gosec // file descriptors fit in int
	b := &progressBar{out: out, tty: term.IsTerminal(fd), width: 40, last: -1}
	if w, _, err := term.GetSize(fd); err == nil && w > 30 {
		b.width = min(w-30, 60)
	}
	return b
}

func (b *progressBar) update(p lightmap.Progress) {
	pct := int(100 * p.Fraction())
	if !b.tty {
		if pct/10 != b.last/10 {
			lightmap.Logger().Info("lmbake: progress", "percent", pct, "tasks", p.Retired, "pages", p.Pages)
		}
		b.last = pct
		return
	}
	filled := b.width * pct / 100
	fmt.Fprintf(b.out, "\r[%s%s] %3d%%  %d pages",
		strings.Repeat("#", filled), strings.Repeat(" ", b.width-filled), pct, p.Pages)
	b.last = pct
}

func (b *progressBar) done() {
	if b.tty && b.last >= 0 {
		fmt.Fprintln(b.out)
	}
}
