package api

import (
	"github.com/starford/inkwell/internal/appstate"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/view"
)

// BlogRequest is the body for creating or updating a blog. Omitted fields
// are left unchanged on update.
type BlogRequest = models.Fields

// Blog is a single blog in responses.
type Blog = models.Blog

// BlogListResponse is one page of a filtered listing with its facets.
type BlogListResponse = view.Result

// DashboardResponse holds the dashboard counts and recent blogs.
type DashboardResponse = view.Stats

// CategoriesResponse lists the facet values for the listing filters.
type CategoriesResponse struct {
	Categories []string            `json:"categories" validate:"required"`
	Statuses   []view.StatusOption `json:"statuses" validate:"required"`
}

// StateRequest replaces the navigation state.
type StateRequest struct {
	Screen     appstate.Screen `json:"screen" example:"view" validate:"required"`
	SelectedID *int64          `json:"selectedId,omitempty" example:"1767225600000"`
}

// StateResponse is the current navigation state.
type StateResponse = appstate.State
