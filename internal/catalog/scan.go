package catalog

import (
	"context"
	"fmt"
	"strings"

	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/store"
	"wallpaper-catalog/internal/workers"
)

// Scan reads the whole store into a Snapshot. Each category is read under
// its shared lock, so an in-flight ingestion is either fully visible or not
// at all. Assets missing any of their three files, or with an unreadable
// sidecar, are reported as issues and left out.
func (b *Builder) Scan(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{ByCategory: map[string][]Entry{}}

	for _, category := range store.CategoryNames() {
		if err := b.scanCategory(ctx, category, snap); err != nil {
			return nil, err
		}
	}

	for _, issue := range snap.Issues {
		logging.Warn("Integrity: %s%s: %s", issue.AssetID, issue.Path, issue.Problem)
	}
	return snap, nil
}

func (b *Builder) scanCategory(ctx context.Context, category string, snap *Snapshot) error {
	unlock, err := b.store.RLock(ctx, category)
	if err != nil {
		return err
	}
	defer unlock()

	listing, err := b.store.List(category)
	if err != nil {
		return err
	}

	for _, path := range listing.Unrecognized {
		snap.Issues = append(snap.Issues, IntegrityIssue{Path: path, Problem: "file name does not follow the naming convention"})
	}

	var complete []int
	for _, seq := range listing.Sequences() {
		id := store.AssetID(category, seq)
		var missing []string
		if !listing.Sidecars[seq] {
			missing = append(missing, "sidecar")
		}
		if !listing.Images[seq] {
			missing = append(missing, "image")
		}
		if !listing.Thumbnails[seq] {
			missing = append(missing, "thumbnail")
		}
		if len(missing) > 0 {
			snap.Issues = append(snap.Issues, IntegrityIssue{AssetID: id, Problem: "missing " + strings.Join(missing, ", ")})
			snap.Skipped++
			continue
		}
		complete = append(complete, seq)
	}

	entries := make([]*Entry, len(complete))
	problems := make([]error, len(complete))

	err = workers.ForEach(ctx, len(complete), workers.ForIO(16), func(_ context.Context, i int) error {
		seq := complete[i]
		meta, err := b.store.ReadSidecar(category, seq)
		if err != nil {
			problems[i] = err
			return nil
		}
		entries[i] = b.entry(category, seq, meta)
		return nil
	})
	if err != nil {
		return err
	}

	var published []Entry
	for i, e := range entries {
		if e == nil {
			snap.Issues = append(snap.Issues, IntegrityIssue{
				AssetID: store.AssetID(category, complete[i]),
				Problem: fmt.Sprintf("unreadable sidecar: %v", problems[i]),
			})
			snap.Skipped++
			continue
		}
		published = append(published, *e)
	}

	if len(published) > 0 {
		snap.ByCategory[category] = published
	}
	return nil
}

func (b *Builder) entry(category string, seq int, meta *store.Sidecar) *Entry {
	return &Entry{
		ID:           store.AssetID(category, seq),
		Category:     category,
		Sequence:     seq,
		Title:        meta.Title,
		Tags:         meta.Tags,
		URLs:         URLs{Raw: store.ImageURL(b.opts.BaseURL, category, seq), Thumb: store.ThumbnailURL(b.opts.BaseURL, category, seq)},
		Photographer: meta.Photographer,
		Source:       meta.Source,
		FileSize:     meta.FileSize,
		Dimensions:   meta.Dimensions,
		AddedAt:      meta.AddedAt.UTC(),
	}
}
