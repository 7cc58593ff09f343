package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"time"

	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/metrics"
	"wallpaper-catalog/internal/store"
)

// Options configures a Builder.
type Options struct {
	BaseURL       string
	PageSize      int
	FeaturedCount int
	PopularTags   int
	// Now is the clock for generated_at. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard page size and list lengths.
func DefaultOptions() Options {
	return Options{
		BaseURL:       "http://localhost:8080",
		PageSize:      15,
		FeaturedCount: 20,
		PopularTags:   20,
		Now:           time.Now,
	}
}

// Builder derives every index document from the category store.
type Builder struct {
	store *store.Store
	opts  Options
}

// New creates a Builder reading st.
func New(st *store.Store, opts Options) *Builder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PageSize < 1 {
		opts.PageSize = 15
	}
	return &Builder{store: st, opts: opts}
}

// Generate renders every document of a snapshot. It is a pure function of
// the snapshot, the options and the clock; documents are returned sorted
// by path.
func (b *Builder) Generate(snap *Snapshot) ([]Document, error) {
	base := baseMeta{Version: Version, GeneratedAt: timestamp(b.opts.Now())}
	all := snap.All()

	var docs []Document
	add := func(p string, meta, data any) error {
		encoded, err := encode(envelope{Meta: meta, Data: data})
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", p, err)
		}
		docs = append(docs, Document{Path: p, Data: encoded})
		return nil
	}

	directory := map[string]CategoryInfo{}
	for name, entries := range snap.ByCategory {
		c, _ := store.LookupCategory(name)
		directory[name] = CategoryInfo{Name: c.DisplayName, Count: len(entries), Description: c.Description}
	}

	if err := add("all.json", allMeta{baseMeta: base, TotalCount: len(all), Categories: len(directory)}, all); err != nil {
		return nil, err
	}
	if err := add("categories.json", directoryMeta{baseMeta: base, TotalCategories: len(directory)}, directory); err != nil {
		return nil, err
	}

	if err := b.addPages(add, base, "", path.Join("pages", "all"), all); err != nil {
		return nil, err
	}

	for name, entries := range snap.ByCategory {
		c, _ := store.LookupCategory(name)
		meta := categoryMeta{baseMeta: base, Category: name, Description: c.Description, TotalCount: len(entries)}
		if err := add(path.Join("categories", name+".json"), meta, entries); err != nil {
			return nil, err
		}
		if err := b.addPages(add, base, name, path.Join("pages", name), entries); err != nil {
			return nil, err
		}
	}

	featured := Featured(all, b.opts.FeaturedCount)
	if err := add("featured.json", featuredMeta{baseMeta: base, TotalCount: len(featured)}, featured); err != nil {
		return nil, err
	}

	stats := Stats{
		TotalWallpapers: len(all),
		TotalCategories: len(directory),
		Categories:      directory,
		RecentAdditions: recentIDs(featured, 10),
		PopularTags:     PopularTags(all, b.opts.PopularTags),
		FileStats:       computeFileStats(all),
		Integrity:       IntegrityStats{Included: len(all), Skipped: snap.Skipped},
	}
	if err := add("stats.json", base, stats); err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func (b *Builder) addPages(add func(string, any, any) error, base baseMeta, category, dir string, entries []Entry) error {
	for _, page := range Paginate(entries, b.opts.PageSize, dir) {
		page.Meta.baseMeta = base
		page.Meta.Category = category
		if err := add(PagePath(dir, page.Meta.Page), page.Meta, page.Entries); err != nil {
			return err
		}
	}
	return nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Check scans the store without writing anything and returns the report a
// build would produce.
func (b *Builder) Check(ctx context.Context) (*BuildReport, error) {
	snap, err := b.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &BuildReport{Included: snap.Included(), Skipped: snap.Skipped, Issues: snap.Issues}, nil
}

// Build scans the store, renders every document and swaps the new tree into
// outDir. On failure the previous tree is left untouched.
func (b *Builder) Build(ctx context.Context, outDir string) (report *BuildReport, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.BuildRunsTotal.WithLabelValues(status).Inc()
		metrics.BuildLastRunDuration.Set(time.Since(start).Seconds())
		if err == nil {
			metrics.BuildLastRunTimestamp.SetToCurrentTime()
		}
	}()

	snap, err := b.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	docs, err := b.Generate(snap)
	if err != nil {
		return nil, err
	}

	if err := writeTree(outDir, docs); err != nil {
		return nil, err
	}

	report = &BuildReport{
		Included:  snap.Included(),
		Skipped:   snap.Skipped,
		Issues:    snap.Issues,
		Documents: len(docs),
		Duration:  time.Since(start),
	}

	metrics.BuildAssets.WithLabelValues("included").Set(float64(report.Included))
	metrics.BuildAssets.WithLabelValues("skipped").Set(float64(report.Skipped))
	metrics.BuildDocumentsWritten.Set(float64(report.Documents))
	for _, name := range store.CategoryNames() {
		metrics.CategoryAssets.WithLabelValues(name).Set(float64(len(snap.ByCategory[name])))
	}

	logging.Info("Catalog built in %v: %d included, %d skipped, %d documents written to %s",
		report.Duration.Round(time.Millisecond), report.Included, report.Skipped, report.Documents, outDir)
	return report, nil
}
