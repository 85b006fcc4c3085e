// Package view turns the blog collection into what a screen shows: filtered
// and paginated listings, facet lists and dashboard figures. Nothing here
// mutates the collection.
package view

import (
	"strings"

	"github.com/starford/inkwell/internal/models"
)

// All is the facet value that disables a category or status filter.
const All = "All"

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Status   string `json:"status"`
}

// StatusOption is one entry of the status facet.
type StatusOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Result is one page of a filtered listing plus the facets to render next
// to it.
type Result struct {
	Items      []models.Blog  `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
	Categories []string       `json:"categories"`
	Statuses   []StatusOption `json:"statuses"`
}

// Apply filters blogs and cuts out the requested page. A page outside the
// filtered range, or a non-positive page or size, gives an empty page.
func Apply(blogs []models.Blog, f Filter, page, pageSize int) Result {
	matched := Match(blogs, f)

	res := Result{
		Items:      pageOf(matched, page, pageSize),
		Total:      len(matched),
		Page:       page,
		PageSize:   pageSize,
		Categories: Categories(blogs),
		Statuses:   Statuses(),
		TotalPages: pageCount(len(matched), pageSize),
	}
	return res
}

// Match returns the active blogs that pass f, in collection order.
func Match(blogs []models.Blog, f Filter) []models.Blog {
	search := strings.ToLower(f.Search)
	out := make([]models.Blog, 0, len(blogs))
	for _, b := range blogs {
		if !b.Active() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(b.Title), search) {
			continue
		}
		if !facetMatches(f.Category, b.Category) {
			continue
		}
		if !facetMatches(f.Status, string(b.Status)) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func facetMatches(want, got string) bool {
	return want == "" || want == All || want == got
}

// pageOf never multiplies past len(blogs), so huge page or size values
// cannot overflow into a negative offset.
func pageOf(blogs []models.Blog, page, size int) []models.Blog {
	if page < 1 || size < 1 || page-1 >= pageCount(len(blogs), size) {
		return []models.Blog{}
	}
	start := (page - 1) * size
	end := len(blogs)
	if size < end-start {
		end = start + size
	}
	return blogs[start:end]
}

func pageCount(n, size int) int {
	if size < 1 {
		return 0
	}
	pages := n / size
	if n%size != 0 {
		pages++
	}
	return pages
}

// Categories lists All followed by the distinct non-empty categories of
// active blogs in the order they first appear.
func Categories(blogs []models.Blog) []string {
	out := []string{All}
	seen := make(map[string]struct{})
	for _, b := range blogs {
		if !b.Active() || b.Category == "" {
			continue
		}
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		out = append(out, b.Category)
	}
	return out
}

// Statuses is the fixed status facet.
func Statuses() []StatusOption {
	return []StatusOption{
		{Value: All, Label: "All Status"},
		{Value: string(models.StatusPublished), Label: string(models.StatusPublished)},
		{Value: string(models.StatusDraft), Label: string(models.StatusDraft)},
	}
}
