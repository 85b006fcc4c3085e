// Package testutil provides shared test helpers for building a store over a
// temporary data directory.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/inkwell/internal/appstate"
	"github.com/starford/inkwell/internal/blogservice"
	"github.com/starford/inkwell/internal/persist"
	"github.com/starford/inkwell/internal/storage"
	"github.com/starford/inkwell/internal/view"
)

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// DataDir creates a temporary directory with a file-backed Provider.
func DataDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// SQLiteStore creates a temporary SQLite-backed Provider that is closed
// when the test ends.
func SQLiteStore(t *testing.T) *storage.SQLite {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "inkwell.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Stack is a fully wired store for surface tests.
type Stack struct {
	Provider storage.Provider
	Adapter  *persist.Adapter
	Service  *blogservice.Service
	Engine   *view.Engine
	Nav      *appstate.Navigator
}

// NewStack wires a service, view engine and navigator over provider. A nil
// clock uses time.Now.
func NewStack(t *testing.T, provider storage.Provider, clock func() time.Time) *Stack {
	t.Helper()
	logger := QuietLogger()
	adapter := persist.New(provider, logger)

	opts := []blogservice.Option{blogservice.WithLogger(logger)}
	if clock != nil {
		opts = append(opts, blogservice.WithClock(clock))
	}
	svc := blogservice.NewService(adapter, opts...)
	svc.Init()
	t.Cleanup(svc.Close)

	engine := view.NewEngine(svc, view.NewPager(adapter, view.DefaultPageSize), view.DefaultRecent)
	svc.Subscribe(func(blogservice.Change) { engine.Refresh() })
	engine.Refresh()

	return &Stack{
		Provider: provider,
		Adapter:  adapter,
		Service:  svc,
		Engine:   engine,
		Nav:      appstate.New(adapter),
	}
}
