package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/appstate"
	"github.com/starford/inkwell/internal/blogservice"
	"github.com/starford/inkwell/internal/view"
)

// maxBodyBytes fits a 1MB image after base64 plus the other fields.
const maxBodyBytes = 2 << 20

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *blogservice.Service, engine *view.Engine, nav *appstate.Navigator, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, engine, nav)

	r := chi.NewRouter()
	r.Use(BodyLimit(maxBodyBytes))

	// Blogs.
	r.Get("/blogs", h.ListBlogs)
	r.Post("/blogs", h.CreateBlog)
	r.Get("/blogs/{id}", h.GetBlog)
	r.Put("/blogs/{id}", h.UpdateBlog)
	r.Delete("/blogs/{id}", h.DeleteBlog)

	// Dashboard and facets.
	r.Get("/dashboard", h.Dashboard)
	r.Get("/categories", h.Categories)

	// Navigation state.
	r.Get("/state", h.GetState)
	r.Put("/state", h.PutState)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
