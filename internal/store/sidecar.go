package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"wallpaper-catalog/internal/filesystem"
)

// Dimensions is the pixel size of a stored image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Sidecar is the per-asset metadata record, the only persisted data besides
// the image bytes. URLs and IDs are derived and never stored here.
type Sidecar struct {
	Title        string     `json:"title"`
	Tags         []string   `json:"tags"`
	Photographer string     `json:"photographer,omitempty"`
	FileSize     int64      `json:"file_size"`
	Dimensions   Dimensions `json:"dimensions"`
	AddedAt      time.Time  `json:"added_at"`
	Source       string     `json:"source,omitempty"`
}

// Validate checks the fields the catalog builder depends on.
func (m *Sidecar) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Title) == "" {
		errs = append(errs, errors.New("title is empty"))
	}
	if m.FileSize <= 0 {
		errs = append(errs, fmt.Errorf("file_size %d is not positive", m.FileSize))
	}
	if m.Dimensions.Width <= 0 || m.Dimensions.Height <= 0 {
		errs = append(errs, fmt.Errorf("dimensions %dx%d are not positive", m.Dimensions.Width, m.Dimensions.Height))
	}
	if m.AddedAt.IsZero() {
		errs = append(errs, errors.New("added_at is missing"))
	}
	return errors.Join(errs...)
}

// NormalizeTags trims, lower-cases, de-duplicates and sorts tags. Tags are
// a set, so the stored order carries no meaning.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ReadSidecar loads and validates the sidecar of an asset.
func (s *Store) ReadSidecar(category string, seq int) (*Sidecar, error) {
	path := s.SidecarPath(category, seq)
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}

	var m Sidecar
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sidecar %s: %w", path, err)
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return &m, nil
}

// WriteSidecar atomically writes the sidecar of an asset.
func (s *Store) WriteSidecar(category string, seq int, m *Sidecar) (int64, error) {
	if m.Tags == nil {
		m.Tags = []string{}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode sidecar: %w", err)
	}
	data = append(data, '\n')
	if err := filesystem.WriteFileAtomic(s.SidecarPath(category, seq), data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// WriteTombstone marks a sequence as permanently retired.
func (s *Store) WriteTombstone(category string, seq int, at time.Time) error {
	line := AssetID(category, seq) + " removed " + at.UTC().Format(time.RFC3339) + "\n"
	return filesystem.WriteFileAtomic(s.TombstonePath(category, seq), []byte(line), 0o644)
}
