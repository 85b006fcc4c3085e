// Package appstate keeps which screen the operator is on and which blog it
// is about, so a restart returns to the same place.
package appstate

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/persist"
)

// Screen names a top-level view.
type Screen string

const (
	ScreenDashboard Screen = "dashboard"
	ScreenBlogs     Screen = "blogs"
	ScreenCreate    Screen = "create"
	ScreenView      Screen = "view"
	ScreenEdit      Screen = "edit"
)

// Valid reports whether s is a known screen.
func (s Screen) Valid() bool {
	switch s {
	case ScreenDashboard, ScreenBlogs, ScreenCreate, ScreenView, ScreenEdit:
		return true
	}
	return false
}

// State is the navigation position.
type State struct {
	Screen     Screen `json:"screen"`
	SelectedID *int64 `json:"selectedId"`
}

// Store keeps the two navigation keys.
type Store interface {
	LoadString(key, def string) string
	SaveString(key, v string)
	Remove(key string)
}

// Navigator owns State and writes every transition through to Store.
type Navigator struct {
	store Store

	mu    sync.Mutex
	state State
}

// New restores the last position from store. An unknown screen falls back
// to the dashboard and an unparsable selection is dropped.
func New(store Store) *Navigator {
	n := &Navigator{store: store}

	n.state.Screen = Screen(store.LoadString(persist.ScreenKey, string(ScreenDashboard)))
	if !n.state.Screen.Valid() {
		n.state.Screen = ScreenDashboard
	}
	if raw := store.LoadString(persist.SelectedKey, ""); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id != 0 {
			n.state.SelectedID = &id
		}
	}
	return n
}

// State returns the current position.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.copy()
}

// ViewBlog opens the detail screen for id.
func (n *Navigator) ViewBlog(id int64) State {
	return n.set(ScreenView, &id)
}

// EditBlog opens the edit screen for id.
func (n *Navigator) EditBlog(id int64) State {
	return n.set(ScreenEdit, &id)
}

// CreateBlog opens an empty form.
func (n *Navigator) CreateBlog() State {
	return n.set(ScreenCreate, nil)
}

// BackToBlogs returns to the listing and clears the selection.
func (n *Navigator) BackToBlogs() State {
	return n.set(ScreenBlogs, nil)
}

// Navigate switches screens and keeps the selection.
func (n *Navigator) Navigate(s Screen) (State, error) {
	if !s.Valid() {
		return State{}, fmt.Errorf("%w: unknown screen %q", apperr.ErrValidation, s)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Screen = s
	n.store.SaveString(persist.ScreenKey, string(s))
	return n.state.copy(), nil
}

// Replace sets screen and selection together.
func (n *Navigator) Replace(st State) (State, error) {
	if !st.Screen.Valid() {
		return State{}, fmt.Errorf("%w: unknown screen %q", apperr.ErrValidation, st.Screen)
	}
	return n.set(st.Screen, st.SelectedID), nil
}

func (n *Navigator) set(s Screen, id *int64) State {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.state.Screen = s
	n.store.SaveString(persist.ScreenKey, string(s))

	if id == nil || *id == 0 {
		n.state.SelectedID = nil
		n.store.Remove(persist.SelectedKey)
	} else {
		v := *id
		n.state.SelectedID = &v
		n.store.SaveString(persist.SelectedKey, strconv.FormatInt(v, 10))
	}
	return n.state.copy()
}

func (s State) copy() State {
	if s.SelectedID != nil {
		v := *s.SelectedID
		s.SelectedID = &v
	}
	return s
}
