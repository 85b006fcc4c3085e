package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/inkwell/internal/appstate"
	"github.com/starford/inkwell/internal/blogservice"
	"github.com/starford/inkwell/internal/form"
	"github.com/starford/inkwell/internal/view"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *blogservice.Service
	engine *view.Engine
	nav    *appstate.Navigator
}

// NewHandler creates a new Handler.
func NewHandler(svc *blogservice.Service, engine *view.Engine, nav *appstate.Navigator) *Handler {
	return &Handler{svc: svc, engine: engine, nav: nav}
}

// blogID parses the {id} URL parameter and answers 400 when it is not a
// number.
func blogID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("id must be an integer"))
		return 0, false
	}
	return id, true
}

// ListBlogs handles GET /api/blogs.
//
// page and per_page move the shared pager before the listing is built, so
// later requests without them stay on the same page.
//
//	@Summary		List blogs with filtering and pagination
//	@Tags			blogs
//	@Produce		json
//	@Param			search		query		string	false	"Case-insensitive title substring"
//	@Param			category	query		string	false	"Category, or All"
//	@Param			status		query		string	false	"Status"	Enums(All, Published, Draft)
//	@Param			page		query		int		false	"Page number"
//	@Param			per_page	query		int		false	"Page size"
//	@Success		200			{object}	BlogListResponse
//	@Failure		400			{object}	errResponse
//	@Router			/blogs [get]
func (h *Handler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pager := h.engine.Pager()

	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > view.MaxPageSize {
			writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("per_page must be an integer between 1 and %d", view.MaxPageSize)))
			return
		}
		if _, size := pager.Position(); size != n {
			pager.SetPageSize(n)
		}
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("page must be a positive integer"))
			return
		}
		pager.SetPage(n)
	}

	res := h.engine.List(view.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
	})
	writeJSON(w, http.StatusOK, res)
}

// GetBlog handles GET /api/blogs/{id}.
//
//	@Summary		Get a single blog
//	@Tags			blogs
//	@Produce		json
//	@Param			id	path		int	true	"Blog id"
//	@Success		200	{object}	Blog
//	@Failure		404	{object}	errResponse
//	@Router			/blogs/{id} [get]
func (h *Handler) GetBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Get(id)
	if err != nil {
		writeError(w, "get blog", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// CreateBlog handles POST /api/blogs.
//
//	@Summary		Create a blog
//	@Tags			blogs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BlogRequest	true	"Blog to create"
//	@Success		201		{object}	Blog
//	@Failure		400		{object}	errResponse
//	@Router			/blogs [post]
func (h *Handler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var req BlogRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := form.ValidateCreate(req); err != nil {
		writeError(w, "create blog", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.svc.Create(req))
}

// UpdateBlog handles PUT /api/blogs/{id}.
//
//	@Summary		Update a blog
//	@Tags			blogs
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int			true	"Blog id"
//	@Param			body	body		BlogRequest	true	"Fields to change"
//	@Success		200		{object}	Blog
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/blogs/{id} [put]
func (h *Handler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}
	var req BlogRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := form.ValidateUpdate(req); err != nil {
		writeError(w, "update blog", err)
		return
	}
	b, err := h.svc.Update(id, req)
	if err != nil {
		writeError(w, "update blog", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBlog handles DELETE /api/blogs/{id}.
//
//	@Summary		Soft-delete a blog
//	@Tags			blogs
//	@Param			id	path	int	true	"Blog id"
//	@Success		204	"Blog deleted"
//	@Failure		404	{object}	errResponse
//	@Router			/blogs/{id} [delete]
func (h *Handler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, ok := blogID(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.SoftDelete(id); err != nil {
		writeError(w, "delete blog", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard handles GET /api/dashboard.
//
//	@Summary		Blog counts and recent activity
//	@Tags			dashboard
//	@Produce		json
//	@Success		200	{object}	DashboardResponse
//	@Router			/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Dashboard())
}

// Categories handles GET /api/categories.
//
//	@Summary		Filter facet values
//	@Tags			blogs
//	@Produce		json
//	@Success		200	{object}	CategoriesResponse
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CategoriesResponse{
		Categories: h.engine.Categories(),
		Statuses:   view.Statuses(),
	})
}

// GetState handles GET /api/state.
//
//	@Summary		Current navigation state
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Router			/state [get]
func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.nav.State())
}

// PutState handles PUT /api/state.
//
//	@Summary		Replace navigation state
//	@Tags			state
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StateRequest	true	"New state"
//	@Success		200		{object}	StateResponse
//	@Failure		400		{object}	errResponse
//	@Router			/state [put]
func (h *Handler) PutState(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := h.nav.Replace(appstate.State{Screen: req.Screen, SelectedID: req.SelectedID})
	if err != nil {
		writeError(w, "put state", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
