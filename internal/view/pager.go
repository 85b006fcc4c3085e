package view

import (
	"sync"

	"github.com/starford/inkwell/internal/persist"
)

// DefaultPageSize is the listing page size when none is configured.
const DefaultPageSize = 5

// MaxPageSize bounds a page size requested by a client.
const MaxPageSize = 100

// ScalarStore keeps the pager's two integers across restarts.
type ScalarStore interface {
	LoadInt(key string, def int) int
	SaveInt(key string, v int)
}

// Pager holds the listing position. The page goes back to 1 when the page
// size changes or when the number of active blogs changes; it is never
// clamped to the number of pages.
type Pager struct {
	store ScalarStore

	mu       sync.Mutex
	page     int
	perPage  int
	count    int
	observed bool
}

// NewPager restores the position from store, falling back to page 1 and
// defaultSize.
func NewPager(store ScalarStore, defaultSize int) *Pager {
	if defaultSize < 1 {
		defaultSize = DefaultPageSize
	}
	p := &Pager{
		store:   store,
		page:    store.LoadInt(persist.PageKey, 1),
		perPage: store.LoadInt(persist.PerPageKey, defaultSize),
	}
	if p.page < 1 {
		p.page = 1
	}
	if p.perPage < 1 {
		p.perPage = defaultSize
	}
	return p
}

// Position returns the current page and page size.
func (p *Pager) Position() (page, size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page, p.perPage
}

// SetPage moves to page n. Values below 1 become 1.
func (p *Pager) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if n == p.page {
		return
	}
	p.page = n
	p.store.SaveInt(persist.PageKey, n)
}

// SetPageSize changes the page size and returns to page 1. Non-positive
// sizes are ignored.
func (p *Pager) SetPageSize(n int) {
	if n < 1 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.perPage = n
	p.store.SaveInt(persist.PerPageKey, n)
	p.resetLocked()
}

// Observe records the active blog count. A count different from the last
// one sends the listing back to page 1. The first call only records, so a
// page restored from storage survives startup.
func (p *Pager) Observe(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.observed {
		p.observed = true
		p.count = count
		return
	}
	if count == p.count {
		return
	}
	p.count = count
	p.resetLocked()
}

func (p *Pager) resetLocked() {
	if p.page == 1 {
		return
	}
	p.page = 1
	p.store.SaveInt(persist.PageKey, 1)
}
