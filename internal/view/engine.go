package view

import (
	"github.com/starford/inkwell/internal/models"
)

// Source supplies the current collection.
type Source interface {
	Snapshot() []models.Blog
}

// Engine answers listing and dashboard queries against a Source using a
// shared Pager.
type Engine struct {
	src    Source
	pager  *Pager
	recent int
}

// NewEngine creates an engine. recent <= 0 means DefaultRecent.
func NewEngine(src Source, pager *Pager, recent int) *Engine {
	if recent <= 0 {
		recent = DefaultRecent
	}
	return &Engine{src: src, pager: pager, recent: recent}
}

// Pager returns the engine's pager.
func (e *Engine) Pager() *Pager {
	return e.pager
}

// List returns the current page of blogs matching f.
func (e *Engine) List(f Filter) Result {
	blogs := e.src.Snapshot()
	e.pager.Observe(activeCount(blogs))
	page, size := e.pager.Position()
	return Apply(blogs, f, page, size)
}

// Refresh lets the pager see the latest active count. Call it after every
// change to the collection.
func (e *Engine) Refresh() {
	e.pager.Observe(activeCount(e.src.Snapshot()))
}

// Dashboard returns the dashboard figures.
func (e *Engine) Dashboard() Stats {
	return Dashboard(e.src.Snapshot(), e.recent)
}

// Categories returns the category facet.
func (e *Engine) Categories() []string {
	return Categories(e.src.Snapshot())
}

func activeCount(blogs []models.Blog) int {
	n := 0
	for _, b := range blogs {
		if b.Active() {
			n++
		}
	}
	return n
}
