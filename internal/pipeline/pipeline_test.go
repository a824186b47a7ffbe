package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jmylchreest/framehue/internal/colour"
	imgpkg "github.com/jmylchreest/framehue/internal/image"
	"github.com/jmylchreest/framehue/internal/store"
	"github.com/jmylchreest/framehue/internal/video"
)

var (
	white = color.RGBA{R: 250, G: 250, B: 250, A: 255}
	black = color.RGBA{A: 255}
	red   = color.RGBA{R: 250, A: 255}
)

func flatFrame(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// fakeReader serves in-memory frames keyed by base file name.
type fakeReader struct {
	frames    map[string][]image.Image
	openErr   map[string]error
	decodeErr map[string]error // returned after the listed frames

	mu     sync.Mutex
	opened []string
	closed int
}

func (r *fakeReader) Open(_ context.Context, path string) (video.Stream, error) {
	name := video.Name(path)
	if err := r.openErr[name]; err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.opened = append(r.opened, name)
	r.mu.Unlock()
	return &fakeStream{reader: r, frames: r.frames[name], tail: r.decodeErr[name]}, nil
}

type fakeStream struct {
	reader *fakeReader
	frames []image.Image
	tail   error
	pos    int
}

func (s *fakeStream) Next() (image.Image, error) {
	if s.pos < len(s.frames) {
		s.pos++
		return s.frames[s.pos-1], nil
	}
	if s.tail != nil {
		return nil, s.tail
	}
	return nil, io.EOF
}

func (s *fakeStream) Close() error {
	s.reader.mu.Lock()
	s.reader.closed++
	s.reader.mu.Unlock()
	return nil
}

// darkFails treats the centre pixel as the whole palette and rejects dark frames.
type darkFails struct{}

func (darkFails) Extract(img image.Image, count int) (*colour.Palette, error) {
	b := img.Bounds()
	c := colour.ToRGB(img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2))
	if int(c.R)+int(c.G)+int(c.B) < 60 {
		return nil, colour.ErrTooFewColours
	}
	colors := make([]colour.RGB, count)
	for i := range colors {
		colors[i] = c
	}
	return colour.NewPalette(colors), nil
}

func testEngine(t *testing.T) *colour.ContrastEngine {
	t.Helper()
	ref, err := colour.NewReferenceFromColours([]colour.NamedColour{
		{Name: "black", RGB: colour.MustParseHex("#000000")},
		{Name: "white", RGB: colour.MustParseHex("#ffffff")},
		{Name: "lime", RGB: colour.MustParseHex("#00ff00")},
	})
	if err != nil {
		t.Fatalf("NewReferenceFromColours() error: %v", err)
	}
	return colour.NewContrastEngine(ref)
}

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "video_colors.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func videoDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func extractPipeline(t *testing.T, dir string, reader video.Reader, st store.Store, batch int) *Pipeline {
	t.Helper()
	return &Pipeline{
		Source: &ExtractionSource{Dir: dir, Reader: reader},
		Pool: &Pool{Workers: 3, Processor: &ExtractProcessor{
			Extractor:   darkFails{},
			Engine:      testEngine(t),
			PaletteSize: 16,
			Still:       imgpkg.StillOptions{Quality: 95},
		}},
		Sink:         &Sink{Store: st, Mode: ModeInsert, BatchSize: batch},
		ResultBuffer: 2,
	}
}

func TestExtractionWritesOneRowPerFrame(t *testing.T) {
	ctx := context.Background()
	dir := videoDir(t, "a.mkv", "b.mp4", "notes.txt")
	reader := &fakeReader{frames: map[string][]image.Image{
		"a.mkv": {flatFrame(white), flatFrame(black), flatFrame(red)},
		"b.mp4": {flatFrame(white), flatFrame(white), flatFrame(white)},
	}}
	st := testStore(t)

	stats, err := extractPipeline(t, dir, reader, st, 4).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	rows, err := st.Rows(ctx)
	if err != nil {
		t.Fatalf("Rows() error: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}

	for _, r := range rows {
		sentinel := r.Palette == store.PaletteNone && r.Contrast == store.ContrastError
		wantSentinel := r.VideoName == "a.mkv" && r.Frame == 2
		if sentinel != wantSentinel {
			t.Errorf("row %s/%d = (%s, %s), sentinel %v, want %v", r.VideoName, r.Frame, r.Palette, r.Contrast, sentinel, wantSentinel)
		}
		if !sentinel {
			if _, err := colour.ParsePalette(r.Palette); err != nil {
				t.Errorf("row %s/%d palette %q does not parse: %v", r.VideoName, r.Frame, r.Palette, err)
			}
		}
	}

	// Near-white frames are farthest from black in the reference.
	if rows[3].VideoName != "b.mp4" || rows[3].Contrast != "#000000" {
		t.Errorf("b.mp4 frame 1 contrast = %s, want #000000", rows[3].Contrast)
	}

	if stats.Pool.Processed != 6 || stats.Pool.Failed != 1 {
		t.Errorf("pool stats = %+v, want 6 processed 1 failed", stats.Pool)
	}
	if stats.Sink.Rows != 6 || stats.Sink.Batches != 2 {
		t.Errorf("sink stats = %+v, want 6 rows in 2 batches", stats.Sink)
	}
	if stats.Source.Files != 2 || stats.Source.Units != 6 {
		t.Errorf("source stats = %+v, want 2 files 6 units", stats.Source)
	}
	if reader.closed != 2 {
		t.Errorf("closed %d streams, want 2", reader.closed)
	}
}

func TestExtractionSkipsBrokenFiles(t *testing.T) {
	ctx := context.Background()
	dir := videoDir(t, "a.mkv", "b.mkv", "c.webm")
	reader := &fakeReader{
		frames: map[string][]image.Image{
			"b.mkv":  {flatFrame(white), flatFrame(white)},
			"c.webm": {flatFrame(white)},
		},
		openErr:   map[string]error{"a.mkv": errors.New("moov atom not found")},
		decodeErr: map[string]error{"b.mkv": errors.New("corrupt packet")},
	}
	st := testStore(t)

	stats, err := extractPipeline(t, dir, reader, st, 100).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	rows, _ := st.Rows(ctx)
	got := map[string]int{}
	for _, r := range rows {
		got[r.VideoName]++
	}
	if got["a.mkv"] != 0 || got["b.mkv"] != 2 || got["c.webm"] != 1 {
		t.Errorf("rows per video = %v, want a.mkv:0 b.mkv:2 c.webm:1", got)
	}
	if stats.Source.FilesFailed != 2 {
		t.Errorf("FilesFailed = %d, want 2", stats.Source.FilesFailed)
	}
	if reader.closed != 2 {
		t.Errorf("closed %d streams, want 2", reader.closed)
	}
}

func TestExtractionSkipExisting(t *testing.T) {
	ctx := context.Background()
	dir := videoDir(t, "a.mkv", "b.mkv")
	reader := &fakeReader{frames: map[string][]image.Image{
		"a.mkv": {flatFrame(white)},
		"b.mkv": {flatFrame(white)},
	}}
	st := testStore(t)
	if err := st.Insert(ctx, []store.Row{{VideoName: "a.mkv", Frame: 1, Palette: store.PaletteNone, Contrast: store.ContrastError}}); err != nil {
		t.Fatal(err)
	}

	p := extractPipeline(t, dir, reader, st, 100)
	p.Source.(*ExtractionSource).Store = st
	p.Source.(*ExtractionSource).SkipExisting = true

	stats, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.Source.FilesSkipped != 1 {
		t.Errorf("FilesSkipped = %d, want 1", stats.Source.FilesSkipped)
	}
	if len(reader.opened) != 1 || reader.opened[0] != "b.mkv" {
		t.Errorf("opened %v, want [b.mkv]", reader.opened)
	}
	if n, _ := st.Count(ctx); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestExtractionMissingDirIsFatal(t *testing.T) {
	p := extractPipeline(t, filepath.Join(t.TempDir(), "missing"), &fakeReader{}, testStore(t), 10)
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("Run() with missing source dir should fail")
	}
}

func TestSinkCommitsEveryResult(t *testing.T) {
	for _, n := range []int{0, 1, 99, 100, 101, 250} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ctx := context.Background()
			st := testStore(t)
			results := make(chan Result, n)
			for i := 1; i <= n; i++ {
				results <- Result{Video: "v.mkv", Frame: i, Palette: "#000000", Contrast: "#ffffff"}
			}
			close(results)

			stats, err := (&Sink{Store: st, Mode: ModeInsert, BatchSize: 100}).Run(ctx, results)
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			wantBatches := (n + 99) / 100
			if stats.Rows != int64(n) || stats.Batches != wantBatches {
				t.Errorf("n=%d: stats = %+v, want %d rows in %d batches", n, stats, n, wantBatches)
			}
			if count, _ := st.Count(ctx); count != int64(n) {
				t.Errorf("n=%d: Count() = %d", n, count)
			}
		})
	}
}

func TestSinkUpdateCountsUnmatched(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	if err := st.Insert(ctx, []store.Row{{VideoName: "v.mkv", Frame: 1, Palette: "#000000", Contrast: "#000000"}}); err != nil {
		t.Fatal(err)
	}

	results := make(chan Result, 3)
	results <- Result{Video: "v.mkv", Frame: 1, Palette: "#000000", Contrast: "#ffffff"}
	results <- Result{Video: "v.mkv", Frame: 2, Palette: "#000000", Contrast: "#ffffff"}
	results <- Result{Video: "v.mkv", Frame: 1, Palette: "#000000", Contrast: store.ContrastError, Failed: true}
	close(results)

	stats, err := (&Sink{Store: st, Mode: ModeUpdate, BatchSize: 10}).Run(ctx, results)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.Rows != 1 || stats.Unmatched != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 row 1 unmatched 1 skipped", stats)
	}
	rows, _ := st.Rows(ctx)
	if rows[0].Contrast != "#ffffff" {
		t.Errorf("contrast = %s, want #ffffff", rows[0].Contrast)
	}
}

// failingStore rejects every write.
type failingStore struct{ store.Store }

func (failingStore) Insert(context.Context, []store.Row) error { return errors.New("disk full") }

func TestSinkFailureStopsPipeline(t *testing.T) {
	frames := make([]image.Image, 50)
	for i := range frames {
		frames[i] = flatFrame(white)
	}
	dir := videoDir(t, "a.mkv")
	reader := &fakeReader{frames: map[string][]image.Image{"a.mkv": frames}}

	p := extractPipeline(t, dir, reader, failingStore{Store: testStore(t)}, 5)
	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail when commits fail")
	}
	if errors.Is(err, ErrInterrupted) {
		t.Errorf("Run() error = %v, want the sink failure", err)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := testStore(t)
	if err := st.Insert(ctx, []store.Row{
		{VideoName: "a.mkv", Frame: 1, Palette: "#ffffff,#fefefe", Contrast: "#123456"},
		{VideoName: "a.mkv", Frame: 2, Palette: store.PaletteNone, Contrast: store.ContrastError},
		{VideoName: "a.mkv", Frame: 3, Palette: "#000000,#010101", Contrast: "#123456"},
		{VideoName: "b.mkv", Frame: 1, Palette: "not-a-palette", Contrast: "#123456"},
	}); err != nil {
		t.Fatal(err)
	}

	run := func() Stats {
		t.Helper()
		p := &Pipeline{
			Source: &RecomputeSource{Store: st},
			Pool:   &Pool{Workers: 4, Processor: &RecomputeProcessor{Engine: testEngine(t)}},
			Sink:   &Sink{Store: st, Mode: ModeUpdate, BatchSize: 1},
		}
		stats, err := p.Run(ctx)
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		return stats
	}

	first := run()
	rowsAfterFirst, _ := st.Rows(ctx)
	second := run()
	rowsAfterSecond, _ := st.Rows(ctx)

	want := map[int]string{1: "#000000", 2: store.ContrastError, 3: "#ffffff"}
	for _, r := range rowsAfterFirst {
		if r.VideoName == "a.mkv" && r.Contrast != want[r.Frame] {
			t.Errorf("a.mkv frame %d contrast = %s, want %s", r.Frame, r.Contrast, want[r.Frame])
		}
		if r.VideoName == "b.mkv" && r.Contrast != "#123456" {
			t.Errorf("unparseable row was rewritten to %s", r.Contrast)
		}
	}
	for i := range rowsAfterFirst {
		if rowsAfterFirst[i] != rowsAfterSecond[i] {
			t.Errorf("second run changed row %d: %+v -> %+v", i, rowsAfterFirst[i], rowsAfterSecond[i])
		}
	}

	for _, stats := range []Stats{first, second} {
		if stats.Source.Units != 2 || stats.Source.UnitsSkipped != 2 {
			t.Errorf("source stats = %+v, want 2 units 2 skipped", stats.Source)
		}
		if stats.Sink.Rows != 2 || stats.Sink.Unmatched != 0 || stats.Sink.Batches != 2 {
			t.Errorf("sink stats = %+v, want 2 rows 0 unmatched 2 batches", stats.Sink)
		}
	}
	if n, _ := st.Count(ctx); n != 4 {
		t.Errorf("Count() = %d, want 4 (recompute must not add rows)", n)
	}
}

// cancelAfter cancels the run once n units have been processed.
type cancelAfter struct {
	Processor
	n      int64
	seen   atomic.Int64
	cancel context.CancelFunc
}

func (c *cancelAfter) Process(ctx context.Context, u Unit) Result {
	r := c.Processor.Process(ctx, u)
	if c.seen.Add(1) == c.n {
		c.cancel()
	}
	return r
}

func TestInterruptPersistsCompletedResults(t *testing.T) {
	frames := make([]image.Image, 500)
	for i := range frames {
		frames[i] = flatFrame(white)
	}
	dir := videoDir(t, "a.mkv")
	reader := &fakeReader{frames: map[string][]image.Image{"a.mkv": frames}}
	st := testStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := extractPipeline(t, dir, reader, st, 7)
	p.Pool.Processor = &cancelAfter{Processor: p.Pool.Processor, n: 20, cancel: cancel}

	stats, err := p.Run(ctx)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("Run() error = %v, want ErrInterrupted", err)
	}
	if stats.Pool.Processed < 20 || stats.Pool.Processed >= 500 {
		t.Errorf("processed %d units, want between 20 and 499", stats.Pool.Processed)
	}
	count, _ := st.Count(context.Background())
	if count != stats.Pool.Processed || stats.Sink.Rows != count {
		t.Errorf("persisted %d rows (sink %d), processed %d", count, stats.Sink.Rows, stats.Pool.Processed)
	}
	if reader.closed != 1 {
		t.Errorf("closed %d streams, want 1", reader.closed)
	}
}
