package store

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownCategory is returned for any category outside the fixed set.
// Categories are never created on demand.
var ErrUnknownCategory = errors.New("unknown category")

// Category describes one entry of the fixed category set.
type Category struct {
	Name        string
	DisplayName string
	Description string
}

var categories = map[string]Category{
	"abstract":     {"abstract", "Abstract", "Abstract patterns, geometric designs, and artistic visualizations"},
	"nature":       {"nature", "Nature", "Landscapes, wildlife, forests, mountains, and natural scenes"},
	"space":        {"space", "Space", "Galaxies, nebulae, planets, stars, and cosmic photography"},
	"minimal":      {"minimal", "Minimal", "Clean, simple designs with minimalist aesthetics"},
	"cyberpunk":    {"cyberpunk", "Cyberpunk", "Futuristic cityscapes, neon lights, and sci-fi themes"},
	"gaming":       {"gaming", "Gaming", "Video game characters, scenes, and gaming-inspired artwork"},
	"anime":        {"anime", "Anime", "Anime characters, manga art, and Japanese animation styles"},
	"movies":       {"movies", "Movies", "Film posters, movie scenes, and cinematic artwork"},
	"music":        {"music", "Music", "Musical instruments, concert photography, and audio visualizations"},
	"cars":         {"cars", "Cars", "Automotive photography, sports cars, and vehicle designs"},
	"sports":       {"sports", "Sports", "Athletic photography, sports action, and fitness themes"},
	"technology":   {"technology", "Technology", "Gadgets, circuits, futuristic tech, and digital interfaces"},
	"architecture": {"architecture", "Architecture", "Buildings, bridges, modern structures, and urban photography"},
	"art":          {"art", "Art", "Digital art, paintings, illustrations, and creative designs"},
	"dark":         {"dark", "Dark", "Dark themes, gothic aesthetics, and mysterious atmospheres"},
	"neon":         {"neon", "Neon", "Neon lighting, synthwave aesthetics, and electric themes"},
	"pastel":       {"pastel", "Pastel", "Soft colors, gentle aesthetics, and dream-like themes"},
	"vintage":      {"vintage", "Vintage", "Retro designs, nostalgic themes, and classic aesthetics"},
	"gradient":     {"gradient", "Gradient", "Color transitions, smooth blends, and abstract flows"},
	"seasonal":     {"seasonal", "Seasonal", "Holiday themes, seasonal changes, and weather phenomena"},
	"4k":           {"4k", "4K", "Ultra high-definition wallpapers optimized for 4K displays"},
}

var categoryNames = func() []string {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// CategoryNames returns every valid category name in ascending order.
// The returned slice is a copy.
func CategoryNames() []string {
	out := make([]string, len(categoryNames))
	copy(out, categoryNames)
	return out
}

// LookupCategory returns the category with the given name, or an error
// wrapping ErrUnknownCategory.
func LookupCategory(name string) (Category, error) {
	c, ok := categories[name]
	if !ok {
		return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return c, nil
}

// IsCategory reports whether name is in the category set.
func IsCategory(name string) bool {
	_, ok := categories[name]
	return ok
}
