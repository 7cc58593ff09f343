package catalog

import (
	"math"
	"sort"
	"time"
)

// TagCount is one row of the popular tags ranking.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// AverageDimensions is the mean size of published images, rounded to
// whole pixels.
type AverageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FileStats aggregates stored image sizes.
type FileStats struct {
	TotalFiles        int                `json:"total_files"`
	TotalFileSize     int64              `json:"total_file_size"`
	TotalSizeMB       float64            `json:"total_size_mb"`
	AverageFileSizeKB float64            `json:"average_file_size_kb"`
	AverageDimensions *AverageDimensions `json:"average_dimensions"`
}

// IntegrityStats counts what the build published and what it skipped.
type IntegrityStats struct {
	Included int `json:"included"`
	Skipped  int `json:"skipped"`
}

// Stats is the data block of stats.json.
type Stats struct {
	TotalWallpapers int                     `json:"total_wallpapers"`
	TotalCategories int                     `json:"total_categories"`
	Categories      map[string]CategoryInfo `json:"categories"`
	RecentAdditions []string                `json:"recent_additions"`
	PopularTags     []TagCount              `json:"popular_tags"`
	FileStats       FileStats               `json:"file_stats"`
	Integrity       IntegrityStats          `json:"integrity"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PopularTags counts tag occurrences over entries and returns the top
// limit, most frequent first. Equal counts keep first-seen order.
func PopularTags(entries []Entry, limit int) []TagCount {
	index := map[string]int{}
	ranking := []TagCount{}
	for _, e := range entries {
		for _, tag := range e.Tags {
			i, ok := index[tag]
			if !ok {
				i = len(ranking)
				index[tag] = i
				ranking = append(ranking, TagCount{Tag: tag})
			}
			ranking[i].Count++
		}
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Count > ranking[j].Count
	})

	if limit >= 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking
}

// Featured returns the newest limit entries by added_at, ties broken by
// category then sequence.
func Featured(entries []Entry, limit int) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.AddedAt.Equal(b.AddedAt) {
			return a.AddedAt.After(b.AddedAt)
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Sequence < b.Sequence
	})

	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func computeFileStats(entries []Entry) FileStats {
	fs := FileStats{TotalFiles: len(entries)}
	var width, height int64
	for _, e := range entries {
		fs.TotalFileSize += e.FileSize
		width += int64(e.Dimensions.Width)
		height += int64(e.Dimensions.Height)
	}

	fs.TotalSizeMB = round2(float64(fs.TotalFileSize) / (1 << 20))
	if n := len(entries); n > 0 {
		fs.AverageFileSizeKB = round2(float64(fs.TotalFileSize) / float64(n) / 1024)
		fs.AverageDimensions = &AverageDimensions{
			Width:  int(math.Round(float64(width) / float64(n))),
			Height: int(math.Round(float64(height) / float64(n))),
		}
	}
	return fs
}

func recentIDs(featured []Entry, limit int) []string {
	ids := []string{}
	for i, e := range featured {
		if i == limit {
			break
		}
		ids = append(ids, e.ID)
	}
	return ids
}

// timestamp formats the generation time the same way in every document.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
