package catalog

import (
	"time"

	"wallpaper-catalog/internal/store"
)

// Version is written into the meta block of every document.
const Version = "1.0"

// URLs of an entry's image and thumbnail.
type URLs struct {
	Raw   string `json:"raw"`
	Thumb string `json:"thumb"`
}

// Entry is one asset as published in derived documents.
type Entry struct {
	ID           string           `json:"id"`
	Category     string           `json:"category"`
	Sequence     int              `json:"sequence"`
	Title        string           `json:"title"`
	Tags         []string         `json:"tags"`
	URLs         URLs             `json:"urls"`
	Photographer string           `json:"photographer,omitempty"`
	Source       string           `json:"source,omitempty"`
	FileSize     int64            `json:"file_size"`
	Dimensions   store.Dimensions `json:"dimensions"`
	AddedAt      time.Time        `json:"added_at"`
}

// IntegrityIssue is an asset, or a stray file, the builder refused to
// publish. Issues never abort a build.
type IntegrityIssue struct {
	AssetID string `json:"asset_id,omitempty"`
	Path    string `json:"path,omitempty"`
	Problem string `json:"problem"`
}

// Snapshot is the scanned state of the store.
type Snapshot struct {
	// ByCategory holds the entries of every category in sequence order.
	// Empty categories are absent.
	ByCategory map[string][]Entry
	Issues     []IntegrityIssue
	Skipped    int
}

// All returns every entry ordered by category name, then sequence.
func (s *Snapshot) All() []Entry {
	all := []Entry{}
	for _, name := range store.CategoryNames() {
		all = append(all, s.ByCategory[name]...)
	}
	return all
}

// Included is the number of entries that will be published.
func (s *Snapshot) Included() int {
	n := 0
	for _, entries := range s.ByCategory {
		n += len(entries)
	}
	return n
}

// Document is a derived file, path relative to the output root.
type Document struct {
	Path string
	Data []byte
}

// BuildReport summarizes one build.
type BuildReport struct {
	Included  int
	Skipped   int
	Issues    []IntegrityIssue
	Documents int
	Duration  time.Duration
}

type envelope struct {
	Meta any `json:"meta"`
	Data any `json:"data"`
}

type baseMeta struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
}

type allMeta struct {
	baseMeta
	TotalCount int `json:"total_count"`
	Categories int `json:"categories"`
}

type directoryMeta struct {
	baseMeta
	TotalCategories int `json:"total_categories"`
}

type categoryMeta struct {
	baseMeta
	Category    string `json:"category"`
	Description string `json:"description"`
	TotalCount  int    `json:"total_count"`
}

type featuredMeta struct {
	baseMeta
	TotalCount int `json:"total_count"`
}

// CategoryInfo is one entry of the category directory.
type CategoryInfo struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}
