package catalog

import (
	"fmt"
	"path"
)

// PageMeta is the meta block of a page document.
type PageMeta struct {
	baseMeta
	Category    string  `json:"category,omitempty"`
	Page        int     `json:"page"`
	PageSize    int     `json:"page_size"`
	TotalPages  int     `json:"total_pages"`
	TotalCount  int     `json:"total_count"`
	CountOnPage int     `json:"count_on_page"`
	HasNext     bool    `json:"has_next"`
	HasPrev     bool    `json:"has_prev"`
	NextPageURL *string `json:"next_page_url"`
	PrevPageURL *string `json:"prev_page_url"`
}

// Page is one slice of a paginated list.
type Page struct {
	Meta    PageMeta
	Entries []Entry
}

// TotalPages returns ceil(n / pageSize). An empty list has no pages.
func TotalPages(n, pageSize int) int {
	if n == 0 || pageSize < 1 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// PagePath returns the document path of page k under dir, e.g.
// "pages/nature/2.json".
func PagePath(dir string, k int) string {
	return path.Join(dir, fmt.Sprintf("%d.json", k))
}

// Paginate slices entries into pages of pageSize. Page k holds entries
// [(k-1)*pageSize, k*pageSize). Link URLs are relative to the output root
// and nil at the ends.
func Paginate(entries []Entry, pageSize int, dir string) []Page {
	total := TotalPages(len(entries), pageSize)
	pages := make([]Page, 0, total)

	for k := 1; k <= total; k++ {
		lo := (k - 1) * pageSize
		hi := min(lo+pageSize, len(entries))

		meta := PageMeta{
			Page:        k,
			PageSize:    pageSize,
			TotalPages:  total,
			TotalCount:  len(entries),
			CountOnPage: hi - lo,
			HasNext:     k < total,
			HasPrev:     k > 1,
		}
		if meta.HasNext {
			next := PagePath(dir, k+1)
			meta.NextPageURL = &next
		}
		if meta.HasPrev {
			prev := PagePath(dir, k-1)
			meta.PrevPageURL = &prev
		}

		pages = append(pages, Page{Meta: meta, Entries: entries[lo:hi]})
	}

	return pages
}
