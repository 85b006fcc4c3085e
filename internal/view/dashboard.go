package view

import (
	"sort"

	"github.com/starford/inkwell/internal/models"
)

// DefaultRecent is how many blogs the recent-activity list shows.
const DefaultRecent = 5

// Stats are the dashboard figures.
type Stats struct {
	Total     int           `json:"total"`
	Published int           `json:"published"`
	Drafts    int           `json:"drafts"`
	Recent    []models.Blog `json:"recent"`
}

// Recent returns up to n active blogs, newest id first. n <= 0 means
// DefaultRecent.
func Recent(blogs []models.Blog, n int) []models.Blog {
	if n <= 0 {
		n = DefaultRecent
	}
	active := make([]models.Blog, 0, len(blogs))
	for _, b := range blogs {
		if b.Active() {
			active = append(active, b)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].ID > active[j].ID
	})
	if len(active) > n {
		active = active[:n]
	}
	return active
}

// Dashboard counts active blogs by status and collects the recent ones.
func Dashboard(blogs []models.Blog, recent int) Stats {
	var s Stats
	for _, b := range blogs {
		if !b.Active() {
			continue
		}
		s.Total++
		switch b.Status {
		case models.StatusPublished:
			s.Published++
		case models.StatusDraft:
			s.Drafts++
		}
	}
	s.Recent = Recent(blogs, recent)
	return s
}
