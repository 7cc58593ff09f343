package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NextSequence returns one past the highest sequence ever used in a
// category. It scans image, thumbnail and metadata directories, tombstones
// included, so a number freed by removal or left by a half-written asset
// is never handed out again. There is no persisted counter.
//
// Callers must hold the category's exclusive lock from allocation until the
// asset's files are written.
func (s *Store) NextSequence(category string) (int, error) {
	if _, err := LookupCategory(category); err != nil {
		return 0, err
	}

	highest := 0
	for _, dir := range s.categoryDirs(category) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			if n, ok := parseNumericStem(stem); ok && n > highest {
				highest = n
			}
		}
	}

	return highest + 1, nil
}

// Listing is the set of sequences present in each directory of a category.
type Listing struct {
	Category   string
	Images     map[int]bool
	Thumbnails map[int]bool
	Sidecars   map[int]bool
	// Unrecognized holds file names that do not follow the naming
	// convention, relative to the collection root.
	Unrecognized []string
}

// Sequences returns the union of every sequence seen in the listing,
// ascending.
func (l *Listing) Sequences() []int {
	seen := make(map[int]bool, len(l.Sidecars))
	for _, m := range []map[int]bool{l.Images, l.Thumbnails, l.Sidecars} {
		for seq := range m {
			seen[seq] = true
		}
	}
	out := make([]int, 0, len(seen))
	for seq := range seen {
		out = append(out, seq)
	}
	sort.Ints(out)
	return out
}

// List enumerates a category. Missing directories are treated as empty.
// Hidden files (temp files from atomic writes) and tombstones are ignored.
func (s *Store) List(category string) (*Listing, error) {
	if _, err := LookupCategory(category); err != nil {
		return nil, err
	}

	l := &Listing{
		Category:   category,
		Images:     map[int]bool{},
		Thumbnails: map[int]bool{},
		Sidecars:   map[int]bool{},
	}

	scan := []struct {
		dir  string
		ext  string
		into map[int]bool
	}{
		{ImagesDir, ImageExt, l.Images},
		{ThumbnailsDir, ImageExt, l.Thumbnails},
		{MetadataDir, SidecarExt, l.Sidecars},
	}

	for _, sc := range scan {
		dir := filepath.Join(s.root, sc.dir, category)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			if sc.dir == MetadataDir && strings.HasSuffix(name, TombstoneExt) {
				continue
			}
			if !strings.HasSuffix(name, sc.ext) {
				l.Unrecognized = append(l.Unrecognized, filepath.Join(sc.dir, category, name))
				continue
			}
			seq, ok := ParseSequence(strings.TrimSuffix(name, sc.ext))
			if !ok {
				l.Unrecognized = append(l.Unrecognized, filepath.Join(sc.dir, category, name))
				continue
			}
			sc.into[seq] = true
		}
	}

	return l, nil
}
