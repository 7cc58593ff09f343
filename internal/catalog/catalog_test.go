package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"wallpaper-catalog/internal/store"
)

var (
	buildTime = time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)
	baseAdded = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(t.TempDir(), time.Second)
}

func writeAsset(t *testing.T, st *store.Store, category string, seq int, added time.Time, tags ...string) {
	t.Helper()
	if err := st.EnsureCategory(category); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(st.ImagePath(category, seq), []byte("image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(st.ThumbnailPath(category, seq), []byte("thumb"), 0o644); err != nil {
		t.Fatal(err)
	}
	if len(tags) == 0 {
		tags = []string{category}
	}
	_, err := st.WriteSidecar(category, seq, &store.Sidecar{
		Title:      fmt.Sprintf("%s %d", category, seq),
		Tags:       tags,
		FileSize:   int64(1024 * seq),
		Dimensions: store.Dimensions{Width: 1080, Height: 1920},
		AddedAt:    added,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func newTestBuilder(st *store.Store, pageSize int) *Builder {
	opts := DefaultOptions()
	opts.BaseURL = "https://cdn.example.com"
	opts.PageSize = pageSize
	opts.Now = func() time.Time { return buildTime }
	return New(st, opts)
}

type envelopeJSON struct {
	Meta map[string]any  `json:"meta"`
	Data json.RawMessage `json:"data"`
}

func readDoc(t *testing.T, dir, rel string) envelopeJSON {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	var env envelopeJSON
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode %s: %v", rel, err)
	}
	return env
}

func readEntries(t *testing.T, dir, rel string) []Entry {
	t.Helper()
	var entries []Entry
	if err := json.Unmarshal(readDoc(t, dir, rel).Data, &entries); err != nil {
		t.Fatalf("decode entries of %s: %v", rel, err)
	}
	return entries
}

func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	tree := map[string]string{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestBuildFreshCategory(t *testing.T) {
	st := newTestStore(t)
	for seq := 1; seq <= 3; seq++ {
		writeAsset(t, st, "nature", seq, baseAdded.Add(time.Duration(seq)*time.Hour))
	}
	out := filepath.Join(t.TempDir(), "api", "v1")

	report, err := newTestBuilder(st, 15).Build(context.Background(), out)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Included != 3 || report.Skipped != 0 || len(report.Issues) != 0 {
		t.Errorf("report = %+v", report)
	}

	cat := readDoc(t, out, "categories/nature.json")
	if cat.Meta["total_count"] != float64(3) || cat.Meta["category"] != "nature" {
		t.Errorf("nature meta = %v", cat.Meta)
	}
	entries := readEntries(t, out, "categories/nature.json")
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	if want := []string{"nature_001", "nature_002", "nature_003"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if entries[1].URLs.Raw != "https://cdn.example.com/wallpapers/nature/002.jpg" ||
		entries[1].URLs.Thumb != "https://cdn.example.com/thumbnails/nature/002.jpg" {
		t.Errorf("URLs = %+v", entries[1].URLs)
	}

	all := readDoc(t, out, "all.json")
	if all.Meta["total_count"] != float64(3) || all.Meta["categories"] != float64(1) {
		t.Errorf("all meta = %v", all.Meta)
	}
	if all.Meta["version"] != Version || all.Meta["generated_at"] != "2025-07-04T12:00:00Z" {
		t.Errorf("all meta envelope = %v", all.Meta)
	}

	writeAsset(t, st, "space", 1, baseAdded)
	if _, err := newTestBuilder(st, 15).Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	if got := readDoc(t, out, "all.json").Meta["total_count"]; got != float64(4) {
		t.Errorf("total_count after adding space_001 = %v, want 4", got)
	}
}

func TestBuildIdempotent(t *testing.T) {
	st := newTestStore(t)
	for seq := 1; seq <= 20; seq++ {
		writeAsset(t, st, "abstract", seq, baseAdded.Add(time.Duration(seq%4)*time.Hour), "shapes", fmt.Sprintf("t%d", seq%3))
	}
	for seq := 1; seq <= 7; seq++ {
		writeAsset(t, st, "4k", seq, baseAdded)
	}

	outA := filepath.Join(t.TempDir(), "a")
	outB := filepath.Join(t.TempDir(), "b")
	b := newTestBuilder(st, 6)

	if _, err := b.Build(context.Background(), outA); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(context.Background(), outB); err != nil {
		t.Fatal(err)
	}
	treeA, treeB := readTree(t, outA), readTree(t, outB)
	if !reflect.DeepEqual(treeA, treeB) {
		t.Fatal("two builds of the same store differ")
	}

	// a later clock changes only generated_at
	later := New(st, Options{BaseURL: b.opts.BaseURL, PageSize: 6, FeaturedCount: 20, PopularTags: 20,
		Now: func() time.Time { return buildTime.Add(time.Hour) }})
	outC := filepath.Join(t.TempDir(), "c")
	if _, err := later.Build(context.Background(), outC); err != nil {
		t.Fatal(err)
	}
	stamp := regexp.MustCompile(`"generated_at": "[^"]*"`)
	treeC := readTree(t, outC)
	if len(treeC) != len(treeA) {
		t.Fatalf("document count %d vs %d", len(treeC), len(treeA))
	}
	for path, a := range treeA {
		if stamp.ReplaceAllString(a, "") != stamp.ReplaceAllString(treeC[path], "") {
			t.Errorf("%s differs beyond generated_at", path)
		}
	}
}

func TestBuildPaginationBoundary(t *testing.T) {
	st := newTestStore(t)
	for seq := 1; seq <= 31; seq++ {
		writeAsset(t, st, "gaming", seq, baseAdded)
	}
	out := filepath.Join(t.TempDir(), "out")

	if _, err := newTestBuilder(st, 15).Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}

	var concatenated []string
	for k := 1; k <= 3; k++ {
		rel := fmt.Sprintf("pages/gaming/%d.json", k)
		doc := readDoc(t, out, rel)
		if doc.Meta["total_pages"] != float64(3) {
			t.Errorf("%s total_pages = %v", rel, doc.Meta["total_pages"])
		}
		for _, e := range readEntries(t, out, rel) {
			concatenated = append(concatenated, e.ID)
		}
	}

	last := readDoc(t, out, "pages/gaming/3.json")
	if last.Meta["count_on_page"] != float64(1) || last.Meta["has_next"] != false || last.Meta["next_page_url"] != nil {
		t.Errorf("last page meta = %v", last.Meta)
	}
	if last.Meta["prev_page_url"] != "pages/gaming/2.json" {
		t.Errorf("prev_page_url = %v", last.Meta["prev_page_url"])
	}
	first := readDoc(t, out, "pages/gaming/1.json")
	if first.Meta["has_prev"] != false || first.Meta["prev_page_url"] != nil || first.Meta["next_page_url"] != "pages/gaming/2.json" {
		t.Errorf("first page meta = %v", first.Meta)
	}

	var want []string
	for _, e := range readEntries(t, out, "categories/gaming.json") {
		want = append(want, e.ID)
	}
	if !reflect.DeepEqual(concatenated, want) {
		t.Errorf("pages concatenate to %d entries, want the %d category entries in order", len(concatenated), len(want))
	}
	if _, err := os.Stat(filepath.Join(out, "pages", "gaming", "4.json")); !os.IsNotExist(err) {
		t.Error("page 4 should not exist")
	}

	// a smaller page size regenerates without stale pages
	if _, err := newTestBuilder(st, 10).Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	if got := readDoc(t, out, "pages/gaming/4.json").Meta["count_on_page"]; got != float64(1) {
		t.Errorf("page 4 at size 10 count_on_page = %v", got)
	}
	if _, err := newTestBuilder(st, 40).Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "pages", "gaming", "2.json")); !os.IsNotExist(err) {
		t.Error("stale page 2 survived a rebuild with page size 40")
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		n, size   int
		wantPages int
		lastCount int
	}{
		{n: 0, size: 15, wantPages: 0},
		{n: 1, size: 15, wantPages: 1, lastCount: 1},
		{n: 15, size: 15, wantPages: 1, lastCount: 15},
		{n: 16, size: 15, wantPages: 2, lastCount: 1},
		{n: 31, size: 15, wantPages: 3, lastCount: 1},
		{n: 45, size: 15, wantPages: 3, lastCount: 15},
		{n: 7, size: 1, wantPages: 7, lastCount: 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d,p=%d", tt.n, tt.size), func(t *testing.T) {
			entries := make([]Entry, tt.n)
			for i := range entries {
				entries[i] = Entry{ID: fmt.Sprintf("art_%03d", i+1)}
			}

			pages := Paginate(entries, tt.size, "pages/art")
			if len(pages) != tt.wantPages || TotalPages(tt.n, tt.size) != tt.wantPages {
				t.Fatalf("pages = %d, want %d", len(pages), tt.wantPages)
			}
			if tt.wantPages == 0 {
				return
			}

			var seen []Entry
			for i, p := range pages {
				if p.Meta.Page != i+1 || p.Meta.TotalCount != tt.n || p.Meta.CountOnPage != len(p.Entries) {
					t.Errorf("page %d meta = %+v", i+1, p.Meta)
				}
				seen = append(seen, p.Entries...)
			}
			if !reflect.DeepEqual(seen, entries) {
				t.Error("pages do not reproduce the list exactly once")
			}

			last := pages[len(pages)-1].Meta
			if last.HasNext || last.NextPageURL != nil || last.CountOnPage != tt.lastCount {
				t.Errorf("last page meta = %+v", last)
			}
		})
	}
}

func TestBuildIntegrityIssues(t *testing.T) {
	st := newTestStore(t)
	writeAsset(t, st, "art", 1, baseAdded)
	writeAsset(t, st, "art", 2, baseAdded)
	writeAsset(t, st, "art", 3, baseAdded)
	writeAsset(t, st, "art", 4, baseAdded)

	// art_002: image without thumbnail
	if err := os.Remove(st.ThumbnailPath("art", 2)); err != nil {
		t.Fatal(err)
	}
	// art_003: corrupt sidecar
	if err := os.WriteFile(st.SidecarPath("art", 3), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	// art_005: sidecar without image or thumbnail
	if err := os.WriteFile(st.SidecarPath("art", 5), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	// stray file
	if err := os.WriteFile(filepath.Join(st.Root(), store.ImagesDir, "art", "cover.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "out")
	report, err := newTestBuilder(st, 15).Build(context.Background(), out)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Included != 2 || report.Skipped != 3 {
		t.Errorf("included/skipped = %d/%d, want 2/3", report.Included, report.Skipped)
	}

	problems := map[string]string{}
	for _, issue := range report.Issues {
		key := issue.AssetID
		if key == "" {
			key = issue.Path
		}
		problems[key] = issue.Problem
	}
	if !strings.Contains(problems["art_002"], "thumbnail") {
		t.Errorf("art_002 problem = %q", problems["art_002"])
	}
	if !strings.Contains(problems["art_003"], "unreadable sidecar") {
		t.Errorf("art_003 problem = %q", problems["art_003"])
	}
	if !strings.Contains(problems["art_005"], "image") || !strings.Contains(problems["art_005"], "thumbnail") {
		t.Errorf("art_005 problem = %q", problems["art_005"])
	}
	if _, ok := problems[filepath.Join("wallpapers", "art", "cover.png")]; !ok {
		t.Errorf("stray file not reported: %v", problems)
	}

	var ids []string
	for _, e := range readEntries(t, out, "all.json") {
		ids = append(ids, e.ID)
	}
	if want := []string{"art_001", "art_004"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("published = %v, want %v", ids, want)
	}

	var stats Stats
	if err := json.Unmarshal(readDoc(t, out, "stats.json").Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Integrity.Included != 2 || stats.Integrity.Skipped != 3 {
		t.Errorf("stats integrity = %+v", stats.Integrity)
	}
}

func TestBuildEmptyStore(t *testing.T) {
	st := newTestStore(t)
	out := filepath.Join(t.TempDir(), "out")

	report, err := newTestBuilder(st, 15).Build(context.Background(), out)
	if err != nil {
		t.Fatal(err)
	}
	if report.Included != 0 {
		t.Errorf("Included = %d", report.Included)
	}

	raw, err := os.ReadFile(filepath.Join(out, "all.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"data": []`) {
		t.Errorf("empty all.json should carry an empty array: %s", raw)
	}
	if _, err := os.Stat(filepath.Join(out, "pages")); !os.IsNotExist(err) {
		t.Error("an empty catalog has no pages")
	}
	for _, doc := range []string{"categories.json", "featured.json", "stats.json"} {
		readDoc(t, out, doc)
	}
}

func TestBuildFailureKeepsPreviousTree(t *testing.T) {
	st := newTestStore(t)
	writeAsset(t, st, "dark", 1, baseAdded)
	out := filepath.Join(t.TempDir(), "out")
	b := newTestBuilder(st, 15)

	if _, err := b.Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	before := readTree(t, out)

	writeAsset(t, st, "dark", 2, baseAdded)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Build(ctx, out); err == nil {
		t.Fatal("Build() with a canceled context should fail")
	}

	if !reflect.DeepEqual(before, readTree(t, out)) {
		t.Error("failed build modified the published tree")
	}
	assertSingleGeneration(t, out)
}

// assertSingleGeneration checks that out links to the only generation
// directory beside it.
func assertSingleGeneration(t *testing.T, out string) {
	t.Helper()
	target, err := os.Readlink(out)
	if err != nil {
		t.Fatalf("%s is not a link: %v", out, err)
	}
	pattern := filepath.Join(filepath.Dir(out), "."+filepath.Base(out)+".*")
	generations, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatal(err)
	}
	if len(generations) != 1 || filepath.Base(generations[0]) != target {
		t.Errorf("generations = %v, want only %s", generations, target)
	}
}

func TestBuildSwapsGenerationLink(t *testing.T) {
	st := newTestStore(t)
	writeAsset(t, st, "neon", 1, baseAdded)
	out := filepath.Join(t.TempDir(), "api", "v1")
	b := newTestBuilder(st, 15)

	if _, err := b.Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	first, err := os.Readlink(out)
	if err != nil {
		t.Fatalf("Readlink() error = %v", err)
	}
	if filepath.IsAbs(first) {
		t.Errorf("link target %q should be relative", first)
	}

	writeAsset(t, st, "neon", 2, baseAdded)
	if _, err := b.Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	second, _ := os.Readlink(out)
	if second == first {
		t.Error("second build did not switch generations")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(out), first)); !os.IsNotExist(err) {
		t.Errorf("previous generation %s still present", first)
	}
	assertSingleGeneration(t, out)

	if n := len(readEntries(t, out, "all.json")); n != 2 {
		t.Errorf("all.json has %d entries after rebuild, want 2", n)
	}
}

func TestBuildConvertsPlainOutputDirectory(t *testing.T) {
	st := newTestStore(t)
	writeAsset(t, st, "pastel", 1, baseAdded)
	out := filepath.Join(t.TempDir(), "v1")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(out, "stale.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := newTestBuilder(st, 15).Build(context.Background(), out); err != nil {
		t.Fatalf("Build() over a plain directory error = %v", err)
	}

	tree := readTree(t, out)
	if _, ok := tree["stale.json"]; ok {
		t.Error("stale document survived the conversion")
	}
	if _, ok := tree["all.json"]; !ok {
		t.Error("all.json missing after conversion")
	}
	assertSingleGeneration(t, out)
}

func TestBuildDirectoryAndPerCategoryDocs(t *testing.T) {
	st := newTestStore(t)
	writeAsset(t, st, "4k", 1, baseAdded)
	writeAsset(t, st, "space", 1, baseAdded)
	writeAsset(t, st, "space", 2, baseAdded)
	out := filepath.Join(t.TempDir(), "out")

	if _, err := newTestBuilder(st, 15).Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}

	doc := readDoc(t, out, "categories.json")
	if doc.Meta["total_categories"] != float64(2) {
		t.Errorf("total_categories = %v", doc.Meta["total_categories"])
	}
	var directory map[string]CategoryInfo
	if err := json.Unmarshal(doc.Data, &directory); err != nil {
		t.Fatal(err)
	}
	want := map[string]CategoryInfo{
		"4k":    {Name: "4K", Count: 1, Description: "Ultra high-definition wallpapers optimized for 4K displays"},
		"space": {Name: "Space", Count: 2, Description: "Galaxies, nebulae, planets, stars, and cosmic photography"},
	}
	if !reflect.DeepEqual(directory, want) {
		t.Errorf("directory = %+v", directory)
	}

	if _, err := os.Stat(filepath.Join(out, "categories", "nature.json")); !os.IsNotExist(err) {
		t.Error("empty category should have no document")
	}

	var ids []string
	for _, e := range readEntries(t, out, "all.json") {
		ids = append(ids, e.ID)
	}
	if want := []string{"4k_001", "space_001", "space_002"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("all order = %v, want %v", ids, want)
	}
}

func TestFeatured(t *testing.T) {
	t0 := baseAdded
	entries := []Entry{
		{ID: "art_001", Category: "art", Sequence: 1, AddedAt: t0},
		{ID: "art_002", Category: "art", Sequence: 2, AddedAt: t0.Add(2 * time.Hour)},
		{ID: "nature_001", Category: "nature", Sequence: 1, AddedAt: t0.Add(2 * time.Hour)},
		{ID: "art_003", Category: "art", Sequence: 3, AddedAt: t0.Add(2 * time.Hour)},
		{ID: "space_001", Category: "space", Sequence: 1, AddedAt: t0.Add(3 * time.Hour)},
	}

	var ids []string
	for _, e := range Featured(entries, 4) {
		ids = append(ids, e.ID)
	}
	want := []string{"space_001", "art_002", "art_003", "nature_001"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Featured() = %v, want %v", ids, want)
	}
	if entries[0].ID != "art_001" {
		t.Error("Featured() must not reorder its input")
	}
}

func TestPopularTags(t *testing.T) {
	entries := []Entry{
		{Tags: []string{"sky", "blue"}},
		{Tags: []string{"night", "sky"}},
		{Tags: []string{"blue", "neon"}},
		{Tags: []string{"night"}},
	}

	got := PopularTags(entries, 3)
	want := []TagCount{{"sky", 2}, {"blue", 2}, {"night", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PopularTags() = %v, want %v", got, want)
	}
	if got := PopularTags(nil, 20); got == nil || len(got) != 0 {
		t.Errorf("PopularTags(nil) = %#v, want empty", got)
	}
}

func TestStatsDocument(t *testing.T) {
	st := newTestStore(t)
	for seq := 1; seq <= 12; seq++ {
		writeAsset(t, st, "neon", seq, baseAdded.Add(time.Duration(seq)*time.Minute), "glow", fmt.Sprintf("n%d", seq%2))
	}
	out := filepath.Join(t.TempDir(), "out")
	if _, err := newTestBuilder(st, 15).Build(context.Background(), out); err != nil {
		t.Fatal(err)
	}

	var stats Stats
	if err := json.Unmarshal(readDoc(t, out, "stats.json").Data, &stats); err != nil {
		t.Fatal(err)
	}

	if stats.TotalWallpapers != 12 || stats.TotalCategories != 1 || stats.Categories["neon"].Count != 12 {
		t.Errorf("totals = %+v", stats)
	}
	// sizes are 1..12 KiB: 78 KiB total, 6.5 KiB average
	if stats.FileStats.TotalFileSize != 78*1024 || stats.FileStats.AverageFileSizeKB != 6.5 || stats.FileStats.TotalSizeMB != 0.08 {
		t.Errorf("file stats = %+v", stats.FileStats)
	}
	if d := stats.FileStats.AverageDimensions; d == nil || d.Width != 1080 || d.Height != 1920 {
		t.Errorf("average dimensions = %+v", d)
	}
	if len(stats.RecentAdditions) != 10 || stats.RecentAdditions[0] != "neon_012" {
		t.Errorf("recent additions = %v", stats.RecentAdditions)
	}
	wantTags := []TagCount{{"glow", 12}, {"n1", 6}, {"n0", 6}}
	if !reflect.DeepEqual(stats.PopularTags, wantTags) {
		t.Errorf("popular tags = %v, want %v", stats.PopularTags, wantTags)
	}

	featured := readEntries(t, out, "featured.json")
	if len(featured) != 12 || featured[0].ID != "neon_012" || featured[11].ID != "neon_001" {
		t.Errorf("featured order wrong: first %s last %s", featured[0].ID, featured[len(featured)-1].ID)
	}
}

func TestCheckWritesNothing(t *testing.T) {
	st := newTestStore(t)
	writeAsset(t, st, "pastel", 1, baseAdded)
	if err := os.Remove(st.ImagePath("pastel", 1)); err != nil {
		t.Fatal(err)
	}

	report, err := newTestBuilder(st, 15).Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Included != 0 || report.Skipped != 1 || report.Documents != 0 {
		t.Errorf("Check() = %+v", report)
	}
}
