package ingest

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strings"
)

// Hints is optional provenance supplied with a candidate, typically by the
// scraper that fetched it.
type Hints struct {
	Title        string   `json:"title"`
	Tags         []string `json:"tags"`
	Photographer string   `json:"photographer"`
	Source       string   `json:"source"`
}

// LoadHints reads hints from a JSON file.
func LoadHints(path string) (Hints, error) {
	var h Hints
	data, err := os.ReadFile(path)
	if err != nil {
		return h, fmt.Errorf("failed to read hints: %w", err)
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("failed to parse hints %s: %w", path, err)
	}
	return h, nil
}

// ParseTags splits a comma-separated tag list.
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// AcceptFunc is the pluggable quality gate. It sees the normalized image
// and the hints and returns false with a reason to reject. A nil AcceptFunc
// accepts everything.
type AcceptFunc func(img image.Image, hints Hints) (bool, string)

// AcceptAll is an AcceptFunc that accepts every candidate.
func AcceptAll(image.Image, Hints) (bool, string) {
	return true, ""
}
