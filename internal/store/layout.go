package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Directory and file naming of the collection root.
const (
	ImagesDir     = "wallpapers"
	ThumbnailsDir = "thumbnails"
	MetadataDir   = "metadata"
	locksDir      = ".locks"

	ImageExt     = ".jpg"
	SidecarExt   = ".json"
	TombstoneExt = ".removed"
)

// ErrInvalidAssetID is returned when an ID is not of the form <category>_<seq>.
var ErrInvalidAssetID = errors.New("invalid asset id")

// Store is the on-disk category store rooted at a collection directory.
// It owns path computation, sequence allocation, sidecar IO and locking.
type Store struct {
	root        string
	lockTimeout time.Duration
}

// New returns a Store rooted at root. lockTimeout bounds how long Lock and
// RLock wait for a category lock; zero means wait until the context ends.
func New(root string, lockTimeout time.Duration) *Store {
	return &Store{root: root, lockTimeout: lockTimeout}
}

// Root returns the collection root directory.
func (s *Store) Root() string {
	return s.root
}

// FormatSequence zero-pads a sequence to three digits. Larger numbers widen.
func FormatSequence(seq int) string {
	return fmt.Sprintf("%03d", seq)
}

// AssetID returns the ID for a category and sequence, e.g. "nature_007".
func AssetID(category string, seq int) string {
	return category + "_" + FormatSequence(seq)
}

// ParseAssetID splits an asset ID into its category and sequence.
// The category must be valid and the sequence in canonical form.
func ParseAssetID(id string) (string, int, error) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 || i == len(id)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidAssetID, id)
	}
	category, stem := id[:i], id[i+1:]
	if !IsCategory(category) {
		return "", 0, fmt.Errorf("%w: %q: %w", ErrInvalidAssetID, id, ErrUnknownCategory)
	}
	seq, ok := ParseSequence(stem)
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidAssetID, id)
	}
	return category, seq, nil
}

// ParseSequence parses a canonical sequence stem ("001", "1000").
// Stems that are not exactly FormatSequence of a positive number are rejected.
func ParseSequence(stem string) (int, bool) {
	n, ok := parseNumericStem(stem)
	if !ok || n < 1 || FormatSequence(n) != stem {
		return 0, false
	}
	return n, true
}

// parseNumericStem accepts any all-digit stem, canonical or not.
func parseNumericStem(stem string) (int, bool) {
	if stem == "" {
		return 0, false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(stem)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ImagePath returns wallpapers/<category>/<seq>.jpg under the root.
func (s *Store) ImagePath(category string, seq int) string {
	return filepath.Join(s.root, ImagesDir, category, FormatSequence(seq)+ImageExt)
}

// ThumbnailPath returns thumbnails/<category>/<seq>.jpg under the root.
func (s *Store) ThumbnailPath(category string, seq int) string {
	return filepath.Join(s.root, ThumbnailsDir, category, FormatSequence(seq)+ImageExt)
}

// SidecarPath returns metadata/<category>/<seq>.json under the root.
func (s *Store) SidecarPath(category string, seq int) string {
	return filepath.Join(s.root, MetadataDir, category, FormatSequence(seq)+SidecarExt)
}

// TombstonePath returns metadata/<category>/<seq>.removed under the root.
func (s *Store) TombstonePath(category string, seq int) string {
	return filepath.Join(s.root, MetadataDir, category, FormatSequence(seq)+TombstoneExt)
}

func (s *Store) categoryDirs(category string) []string {
	return []string{
		filepath.Join(s.root, ImagesDir, category),
		filepath.Join(s.root, ThumbnailsDir, category),
		filepath.Join(s.root, MetadataDir, category),
	}
}

// EnsureCategory creates the three directories of a category. Unknown
// categories are rejected before anything is created.
func (s *Store) EnsureCategory(category string) error {
	if _, err := LookupCategory(category); err != nil {
		return err
	}
	for _, dir := range s.categoryDirs(category) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// ImageURL returns the public URL of an asset's image. URLs are always
// derived from base URL, category and sequence and are never persisted.
func ImageURL(baseURL, category string, seq int) string {
	return assetURL(baseURL, ImagesDir, category, seq)
}

// ThumbnailURL returns the public URL of an asset's thumbnail.
func ThumbnailURL(baseURL, category string, seq int) string {
	return assetURL(baseURL, ThumbnailsDir, category, seq)
}

func assetURL(baseURL, dir, category string, seq int) string {
	return strings.TrimRight(baseURL, "/") + "/" + dir + "/" + category + "/" + FormatSequence(seq) + ImageExt
}
