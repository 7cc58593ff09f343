package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"wallpaper-catalog/internal/registry"
	"wallpaper-catalog/internal/store"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	store    *store.Store
	registry *registry.Registry
	pipeline *Pipeline
	srcDir   string
}

func newFixture(t *testing.T, scope registry.Scope) *fixture {
	t.Helper()
	root := t.TempDir()
	st := store.New(root, 2*time.Second)
	reg, err := registry.Open(context.Background(), filepath.Join(root, "registry", "hashes.db"), scope)
	if err != nil {
		t.Fatalf("registry.Open() error = %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	opts := DefaultOptions()
	opts.BaseURL = "https://cdn.example.com"
	opts.Now = func() time.Time { return fixedNow }

	return &fixture{store: st, registry: reg, pipeline: New(st, reg, opts), srcDir: t.TempDir()}
}

// noiseImage returns a deterministic pseudo-random image that does not
// compress below the minimum file size.
func noiseImage(w, h int, seed uint32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	x := seed*2654435761 | 1
	for i := 0; i < len(img.Pix); i += 4 {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		img.Pix[i] = uint8(x)
		img.Pix[i+1] = uint8(x >> 8)
		img.Pix[i+2] = uint8(x >> 16)
		img.Pix[i+3] = 0xFF
	}
	return img
}

func (f *fixture) writePNG(t *testing.T, name string, img image.Image, level png.CompressionLevel) string {
	t.Helper()
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(f.srcDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// sceneImage returns a photo-like image: a horizontal red ramp offset by
// shift, a vertical green ramp, a bright disc and low-amplitude grain.
func sceneImage(w, h int, shift int, seed uint32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	x := seed*2654435761 | 1
	cx, cy, r := w/3, h/2, w/5
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			x ^= x << 13
			x ^= x >> 17
			x ^= x << 5
			grain := int(x%13) - 6

			red := px*150/w + shift + grain
			green := py*180/h + grain
			blue := 90 + grain
			if dx, dy := px-cx, py-cy; dx*dx+dy*dy < r*r {
				red, green, blue = red+40, green+40, blue+60
			}

			i := img.PixOffset(px, py)
			img.Pix[i] = clampChannel(red)
			img.Pix[i+1] = clampChannel(green)
			img.Pix[i+2] = clampChannel(blue)
			img.Pix[i+3] = 0xFF
		}
	}
	return img
}

func clampChannel(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

func (f *fixture) writeJPEG(t *testing.T, name string, img image.Image, quality int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(f.srcDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// recompress decodes a JPEG file and writes it again at another quality.
func (f *fixture) recompress(t *testing.T, src, name string, quality int) string {
	t.Helper()
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return f.writeJPEG(t, name, img, quality)
}

func (f *fixture) candidate(t *testing.T, seed uint32) string {
	t.Helper()
	return f.writePNG(t, fmt.Sprintf("candidate-%d.png", seed), noiseImage(640, 720, seed), png.BestSpeed)
}

func (f *fixture) ingest(t *testing.T, category, source string, hints Hints) *Result {
	t.Helper()
	res, err := f.pipeline.Ingest(context.Background(), Request{Category: category, Source: source, Hints: hints})
	if err != nil {
		t.Fatalf("Ingest(%s, %s) error = %v", category, source, err)
	}
	return res
}

func mustAccept(t *testing.T, res *Result) *Record {
	t.Helper()
	if !res.Accepted() {
		t.Fatalf("expected accepted, got rejection %s", res.Rejection)
	}
	return res.Record
}

func assertIntegrity(t *testing.T, st *store.Store, category string) {
	t.Helper()
	l, err := st.List(category)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(l.Images, l.Sidecars) || !reflect.DeepEqual(l.Thumbnails, l.Sidecars) {
		t.Errorf("referential integrity broken in %s: images=%v thumbs=%v sidecars=%v",
			category, l.Images, l.Thumbnails, l.Sidecars)
	}
}

func TestIngestFreshCategory(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	var ids []string
	for i := uint32(1); i <= 3; i++ {
		rec := mustAccept(t, f.ingest(t, "nature", f.candidate(t, i), Hints{}))
		ids = append(ids, rec.ID)
	}

	if want := []string{"nature_001", "nature_002", "nature_003"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("IDs = %v, want %v", ids, want)
	}
	assertIntegrity(t, f.store, "nature")

	meta, err := f.store.ReadSidecar("nature", 2)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Title != "Nature Wallpaper 002" {
		t.Errorf("default title = %q", meta.Title)
	}
	if !reflect.DeepEqual(meta.Tags, []string{"nature"}) {
		t.Errorf("default tags = %v", meta.Tags)
	}
	if !meta.AddedAt.Equal(fixedNow) {
		t.Errorf("added_at = %v, want %v", meta.AddedAt, fixedNow)
	}
	if meta.Dimensions.Width != 640 || meta.Dimensions.Height != 720 {
		t.Errorf("dimensions = %+v", meta.Dimensions)
	}

	info, err := os.Stat(f.store.ImagePath("nature", 2))
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != meta.FileSize {
		t.Errorf("file_size = %d, stored image is %d bytes", meta.FileSize, info.Size())
	}

	n, err := f.registry.Count(context.Background())
	if err != nil || n != 3 {
		t.Errorf("registry Count() = %d, %v; want 3", n, err)
	}
}

func TestIngestRecordURLsAndHints(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	rec := mustAccept(t, f.ingest(t, "space", f.candidate(t, 1), Hints{
		Title:        "Pillars of Creation",
		Tags:         []string{"Nebula", " space ", "nebula"},
		Photographer: "JWST",
		Source:       "https://example.org/pillars",
	}))

	if rec.ImageURL != "https://cdn.example.com/wallpapers/space/001.jpg" {
		t.Errorf("ImageURL = %s", rec.ImageURL)
	}
	if rec.ThumbnailURL != "https://cdn.example.com/thumbnails/space/001.jpg" {
		t.Errorf("ThumbnailURL = %s", rec.ThumbnailURL)
	}
	if rec.Metadata.Title != "Pillars of Creation" || rec.Metadata.Photographer != "JWST" {
		t.Errorf("Metadata = %+v", rec.Metadata)
	}
	if want := []string{"nebula", "space"}; !reflect.DeepEqual(rec.Metadata.Tags, want) {
		t.Errorf("Tags = %v, want %v", rec.Metadata.Tags, want)
	}
	hash, ok, _ := f.registry.HashOf(context.Background(), "space_001")
	if !ok || hash != rec.Hash {
		t.Errorf("registry hash = %q, %v; want %q", hash, ok, rec.Hash)
	}
}

func TestIngestDuplicateReencoded(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	img := noiseImage(640, 720, 42)
	a := f.writePNG(t, "a.png", img, png.BestSpeed)
	b := f.writePNG(t, "a-recompressed.png", img, png.BestCompression)

	first := mustAccept(t, f.ingest(t, "nature", a, Hints{}))
	if first.ID != "nature_001" {
		t.Fatalf("first ID = %s", first.ID)
	}

	res := f.ingest(t, "nature", b, Hints{})
	if res.Accepted() {
		t.Fatalf("re-encoded copy accepted as %s", res.Record.ID)
	}
	if res.Rejection.Kind() != KindDuplicate || res.Rejection.ExistingID != "nature_001" {
		t.Errorf("Rejection = %s, want DuplicateAssetError referencing nature_001", res.Rejection)
	}

	l, _ := f.store.List("nature")
	if len(l.Sidecars) != 1 {
		t.Errorf("category count = %d after duplicate, want 1", len(l.Sidecars))
	}
}

func TestIngestDuplicateRecompressedJPEG(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	a := f.writeJPEG(t, "a.jpg", sceneImage(1200, 1600, 0, 5), 92)
	b := f.recompress(t, a, "a-recompressed.jpg", 90)

	first := mustAccept(t, f.ingest(t, "nature", a, Hints{}))
	if first.ID != "nature_001" {
		t.Fatalf("first ID = %s", first.ID)
	}
	// the registered hashes are the ones a rebuild would compute
	if report, err := f.registry.Verify(context.Background(), f.store); err != nil || !report.OK() {
		t.Fatalf("Verify() = %+v, %v; want OK", report, err)
	}

	res := f.ingest(t, "nature", b, Hints{})
	if res.Accepted() {
		t.Fatalf("re-compressed copy accepted as %s", res.Record.ID)
	}
	if res.Rejection.Kind() != KindDuplicate || res.Rejection.ExistingID != "nature_001" {
		t.Errorf("Rejection = %s, want DuplicateAssetError referencing nature_001", res.Rejection)
	}

	// global scope applies to near copies too
	if res := f.ingest(t, "space", b, Hints{}); res.Accepted() {
		t.Errorf("re-compressed copy accepted in another category as %s", res.Record.ID)
	}

	l, _ := f.store.List("nature")
	if len(l.Sidecars) != 1 {
		t.Errorf("category count = %d after duplicate, want 1", len(l.Sidecars))
	}
	n, err := f.registry.Count(context.Background())
	if err != nil || n != 1 {
		t.Errorf("registry Count() = %d, %v; want 1", n, err)
	}
}

func TestIngestSimilarStructureDifferentColorsAccepted(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	warm := f.writeJPEG(t, "warm.jpg", sceneImage(1080, 1440, 80, 5), 92)
	cool := f.writeJPEG(t, "cool.jpg", sceneImage(1080, 1440, 0, 5), 92)

	mustAccept(t, f.ingest(t, "gradient", warm, Hints{}))
	rec := mustAccept(t, f.ingest(t, "gradient", cool, Hints{}))
	if rec.ID != "gradient_002" {
		t.Errorf("ID = %s, want gradient_002", rec.ID)
	}
}

func TestIngestPerceptualCheckDisabled(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)
	f.pipeline.opts.PerceptualDistance = -1

	a := f.writeJPEG(t, "a.jpg", sceneImage(1200, 1600, 0, 5), 92)
	b := f.recompress(t, a, "a-recompressed.jpg", 90)

	mustAccept(t, f.ingest(t, "nature", a, Hints{}))
	rec := mustAccept(t, f.ingest(t, "nature", b, Hints{}))
	if rec.ID != "nature_002" {
		t.Errorf("ID = %s, want nature_002", rec.ID)
	}
}

func TestIngestUpdateMatchesRecompressedCopy(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	a := f.writeJPEG(t, "a.jpg", sceneImage(1200, 1600, 0, 5), 92)
	b := f.recompress(t, a, "a-recompressed.jpg", 90)
	first := mustAccept(t, f.ingest(t, "nature", a, Hints{Title: "Old"}))

	res, err := f.pipeline.Ingest(context.Background(), Request{
		Category: "nature",
		Source:   b,
		Hints:    Hints{Title: "New"},
		Update:   true,
	})
	if err != nil {
		t.Fatalf("Ingest(update) error = %v", err)
	}
	if !res.Updated || res.Record.ID != first.ID {
		t.Fatalf("result = %+v, want update of %s", res, first.ID)
	}
	if res.Record.Hash != first.Hash {
		t.Errorf("Record.Hash = %s, want the stored asset's %s", res.Record.Hash, first.Hash)
	}
	if res.Record.Metadata.Title != "New" {
		t.Errorf("Title = %q, want New", res.Record.Metadata.Title)
	}
}

func TestIngestDuplicateScope(t *testing.T) {
	tests := []struct {
		scope        registry.Scope
		wantAccepted bool
	}{
		{registry.ScopeGlobal, false},
		{registry.ScopeCategory, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			f := newFixture(t, tt.scope)
			src := f.candidate(t, 7)
			mustAccept(t, f.ingest(t, "nature", src, Hints{}))

			res := f.ingest(t, "space", src, Hints{})
			if res.Accepted() != tt.wantAccepted {
				t.Errorf("cross-category Accepted() = %v, want %v (%v)", res.Accepted(), tt.wantAccepted, res.Rejection)
			}

			// same category is always a duplicate
			if res := f.ingest(t, "nature", src, Hints{}); res.Accepted() {
				t.Error("same-category duplicate accepted")
			}
		})
	}
}

func TestIngestValidationRejections(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	notImage := filepath.Join(f.srcDir, "notes.jpg")
	if err := os.WriteFile(notImage, bytes.Repeat([]byte("not an image "), 2000), 0o644); err != nil {
		t.Fatal(err)
	}
	small := f.writePNG(t, "small.png", noiseImage(500, 900, 3), png.BestSpeed)

	tests := []struct {
		name   string
		source string
		want   Reason
	}{
		{"invalid format", notImage, ReasonInvalidFormat},
		{"too small", small, ReasonTooSmall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.ingest(t, "art", tt.source, Hints{})
			if res.Accepted() {
				t.Fatalf("accepted %s", tt.source)
			}
			if res.Rejection.Reason != tt.want || res.Rejection.Kind() != KindValidation {
				t.Errorf("Rejection = %s, want %s", res.Rejection, tt.want)
			}
		})
	}

	l, _ := f.store.List("art")
	if len(l.Sequences()) != 0 {
		t.Errorf("rejected candidates left files: %v", l.Sequences())
	}
}

func TestIngestOversizeRejectedBeforeRead(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)
	f.pipeline.opts.Limits.MaxFileSize = 64 << 10

	res := f.ingest(t, "art", f.candidate(t, 5), Hints{})
	if res.Accepted() || res.Rejection.Reason != ReasonSizeOutOfBounds {
		t.Errorf("result = %+v, want size_out_of_bounds", res.Rejection)
	}
}

func TestIngestQualityGate(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	var seen Hints
	reject := func(img image.Image, hints Hints) (bool, string) {
		seen = hints
		if img.Bounds().Dx() != 640 {
			return true, ""
		}
		return false, "aesthetic score 2.1 below 5.0"
	}

	res, err := f.pipeline.Ingest(context.Background(), Request{
		Category: "minimal",
		Source:   f.candidate(t, 9),
		Hints:    Hints{Title: "candidate"},
		Accept:   reject,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Accepted() || res.Rejection.Kind() != KindQuality {
		t.Fatalf("result = %+v, want QualityRejected", res)
	}
	if res.Rejection.Detail != "aesthetic score 2.1 below 5.0" {
		t.Errorf("Detail = %q", res.Rejection.Detail)
	}
	if seen.Title != "candidate" {
		t.Errorf("predicate saw hints %+v", seen)
	}
	if n, _ := f.registry.Count(context.Background()); n != 0 {
		t.Errorf("registry has %d entries after quality rejection", n)
	}

	// the pipeline-wide default applies when the request has none
	f.pipeline.opts.Accept = func(image.Image, Hints) (bool, string) { return false, "closed" }
	res = f.ingest(t, "minimal", f.candidate(t, 10), Hints{})
	if res.Accepted() || res.Rejection.Detail != "closed" {
		t.Errorf("default predicate not applied: %+v", res)
	}
}

func TestIngestUnknownCategory(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	_, err := f.pipeline.Ingest(context.Background(), Request{Category: "forest", Source: f.candidate(t, 1)})
	if !errors.Is(err, store.ErrUnknownCategory) {
		t.Fatalf("Ingest(forest) error = %v, want ErrUnknownCategory", err)
	}
	if _, err := os.Stat(filepath.Join(f.store.Root(), store.ImagesDir, "forest")); !os.IsNotExist(err) {
		t.Error("unknown category directory was created")
	}
}

func TestIngestMissingSource(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	if _, err := f.pipeline.Ingest(context.Background(), Request{Category: "art", Source: "/does/not/exist.png"}); err == nil {
		t.Error("Ingest() of missing source should fail")
	}
}

func TestSequenceMonotonicAfterRemoval(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)
	ctx := context.Background()

	for i := uint32(1); i <= 3; i++ {
		mustAccept(t, f.ingest(t, "nature", f.candidate(t, i), Hints{}))
	}
	removedSrc := f.candidate(t, 3)

	if err := f.pipeline.Remove(ctx, "nature_003"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	assertIntegrity(t, f.store, "nature")

	if _, ok, _ := f.registry.HashOf(ctx, "nature_003"); ok {
		t.Error("hash still registered after Remove()")
	}

	rec := mustAccept(t, f.ingest(t, "nature", f.candidate(t, 4), Hints{}))
	if rec.ID != "nature_004" {
		t.Errorf("ID after removing max = %s, want nature_004", rec.ID)
	}

	// removed content may come back, under a new ID
	rec = mustAccept(t, f.ingest(t, "nature", removedSrc, Hints{}))
	if rec.ID != "nature_005" {
		t.Errorf("re-ingested removed content got %s, want nature_005", rec.ID)
	}
}

func TestRemoveErrors(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)
	ctx := context.Background()

	if err := f.pipeline.Remove(ctx, "nature_001"); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Remove(missing) error = %v, want ErrAssetNotFound", err)
	}
	if err := f.pipeline.Remove(ctx, "garbage"); !errors.Is(err, store.ErrInvalidAssetID) {
		t.Errorf("Remove(garbage) error = %v, want ErrInvalidAssetID", err)
	}
}

func TestIngestUpdateRewritesSidecar(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)
	ctx := context.Background()

	src := f.candidate(t, 11)
	first := mustAccept(t, f.ingest(t, "cars", src, Hints{Title: "Old", Tags: []string{"red"}}))

	f.pipeline.opts.Now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	res, err := f.pipeline.Ingest(ctx, Request{
		Category: "cars",
		Source:   src,
		Hints:    Hints{Title: "New", Photographer: "Someone"},
		Update:   true,
	})
	if err != nil {
		t.Fatalf("Ingest(update) error = %v", err)
	}
	if !res.Updated || res.Record.ID != first.ID {
		t.Fatalf("result = %+v, want update of %s", res, first.ID)
	}

	meta, err := f.store.ReadSidecar("cars", 1)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Title != "New" || meta.Photographer != "Someone" {
		t.Errorf("sidecar not rewritten: %+v", meta)
	}
	if !reflect.DeepEqual(meta.Tags, []string{"red"}) {
		t.Errorf("tags without new hints should be kept, got %v", meta.Tags)
	}
	if !meta.AddedAt.Equal(fixedNow) {
		t.Errorf("added_at changed to %v", meta.AddedAt)
	}
	if meta.FileSize != first.Metadata.FileSize || meta.Dimensions != first.Metadata.Dimensions {
		t.Errorf("size/dimensions changed: %+v vs %+v", meta, first.Metadata)
	}

	l, _ := f.store.List("cars")
	if len(l.Sidecars) != 1 {
		t.Errorf("update created a new asset: %v", l.Sequences())
	}
}

func TestIngestUpdateWithoutOwnerIngests(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	res, err := f.pipeline.Ingest(context.Background(), Request{Category: "cars", Source: f.candidate(t, 12), Update: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted() || res.Updated || res.Record.ID != "cars_001" {
		t.Errorf("result = %+v, want fresh cars_001", res)
	}
}

func TestIngestWriteFailureRollsBack(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)
	ctx := context.Background()

	if err := f.store.EnsureCategory("music"); err != nil {
		t.Fatal(err)
	}
	// a non-empty directory where the thumbnail must go makes the rename fail
	blocker := f.store.ThumbnailPath("music", 1)
	if err := os.MkdirAll(filepath.Join(blocker, "occupied"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := f.pipeline.Ingest(ctx, Request{Category: "music", Source: f.candidate(t, 13)})
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("Ingest() error = %v, want *WriteError", err)
	}
	if werr.AssetID != "music_001" || werr.Op != "write thumbnail" {
		t.Errorf("WriteError = %+v", werr)
	}

	for _, path := range []string{f.store.ImagePath("music", 1), f.store.SidecarPath("music", 1)} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s survived rollback", path)
		}
	}
	if n, _ := f.registry.Count(ctx); n != 0 {
		t.Errorf("registry has %d entries after rollback", n)
	}

	// after fixing the condition the same sequence is used
	if err := os.RemoveAll(blocker); err != nil {
		t.Fatal(err)
	}
	rec := mustAccept(t, f.ingest(t, "music", f.candidate(t, 13), Hints{}))
	if rec.ID != "music_001" {
		t.Errorf("retry got %s, want music_001", rec.ID)
	}
}

func TestIngestBatch(t *testing.T) {
	f := newFixture(t, registry.ScopeGlobal)

	a := f.candidate(t, 20)
	b := f.candidate(t, 21)
	small := f.writePNG(t, "tiny.png", noiseImage(100, 100, 1), png.BestSpeed)

	summary := f.pipeline.IngestBatch(context.Background(), Request{Category: "neon"}, []string{a, b, a, small, "/missing.png"})

	if summary.RunID == "" {
		t.Error("RunID is empty")
	}
	if summary.Accepted != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 2 accepted, 1 failed", summary)
	}
	if summary.Rejected[ReasonDuplicate] != 1 || summary.Rejected[ReasonTooSmall] != 1 {
		t.Errorf("Rejected = %v", summary.Rejected)
	}
	if len(summary.Outcomes) != 5 || summary.Outcomes[2].Result.Rejection.ExistingID != "neon_001" {
		t.Errorf("Outcomes = %+v", summary.Outcomes)
	}
}

func TestRejectionKinds(t *testing.T) {
	tests := []struct {
		reason Reason
		want   Kind
	}{
		{ReasonInvalidFormat, KindValidation},
		{ReasonTooSmall, KindValidation},
		{ReasonSizeOutOfBounds, KindValidation},
		{ReasonDuplicate, KindDuplicate},
		{ReasonQualityRejected, KindQuality},
	}
	for _, tt := range tests {
		r := &Rejection{Reason: tt.reason}
		if got := r.Kind(); got != tt.want {
			t.Errorf("Kind(%s) = %s, want %s", tt.reason, got, tt.want)
		}
	}
}

func TestLoadHintsAndParseTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hints.json")
	body := `{"title":"Aurora","tags":["sky","night"],"photographer":"A. Person","source":"https://example.org/a"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := LoadHints(path)
	if err != nil {
		t.Fatalf("LoadHints() error = %v", err)
	}
	want := Hints{Title: "Aurora", Tags: []string{"sky", "night"}, Photographer: "A. Person", Source: "https://example.org/a"}
	if !reflect.DeepEqual(h, want) {
		t.Errorf("LoadHints() = %+v, want %+v", h, want)
	}

	if got := ParseTags("a, b,c"); !reflect.DeepEqual(got, []string{"a", " b", "c"}) {
		t.Errorf("ParseTags() = %q", got)
	}
	if got := ParseTags("  "); got != nil {
		t.Errorf("ParseTags(blank) = %q, want nil", got)
	}
}
