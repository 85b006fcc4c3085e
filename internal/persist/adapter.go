// Package persist serializes the blog collection and the small UI scalars
// to a storage.Provider and reports writes made by other processes.
package persist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"sync"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/storage"
)

// Storage keys. The names match the browser build so a copied data
// directory keeps working.
const (
	BlogsKey    = "blogs"
	PageKey     = "page"
	PerPageKey  = "perPage"
	ScreenKey   = "appPage"
	SelectedKey = "selectedBlogId"
)

// Adapter owns the blogs key of a Provider.
type Adapter struct {
	provider storage.Provider
	logger   *slog.Logger

	mu       sync.Mutex
	lastSum  string // checksum of the last blob this adapter read or wrote
	handlers map[int]func()
	nextID   int
}

// New creates an adapter over provider.
func New(provider storage.Provider, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		provider: provider,
		logger:   logger,
		handlers: make(map[int]func()),
	}
}

// Load returns the stored collection. A missing, unreadable or malformed
// blob yields an empty collection; the failure is logged, never returned.
func (a *Adapter) Load() []models.Blog {
	data, err := a.provider.Get(BlogsKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			a.remember(nil)
			a.logger.Info("persist: no stored blogs")
		} else {
			a.logger.Error("persist: load failed",
				slog.String("error", fmt.Errorf("%w: %w", apperr.ErrStorageRead, err).Error()))
		}
		return []models.Blog{}
	}
	a.remember(data)

	blogs, err := decode(data)
	if err != nil {
		a.logger.Warn("persist: stored blogs unreadable, starting empty",
			slog.String("error", fmt.Errorf("%w: %w", apperr.ErrStorageRead, err).Error()))
		return []models.Blog{}
	}
	a.logger.Debug("persist: loaded blogs", slog.Int("count", len(blogs)))
	return blogs
}

// Save writes the whole collection with a single Set. A failure is logged
// and returned for reporting; the caller's in-memory state stays valid.
func (a *Adapter) Save(blogs []models.Blog) error {
	if blogs == nil {
		blogs = []models.Blog{}
	}
	data, err := json.Marshal(blogs)
	if err != nil {
		err = fmt.Errorf("%w: encode: %w", apperr.ErrStorageWrite, err)
		a.logger.Error("persist: save failed", slog.String("error", err.Error()))
		return err
	}

	// Remember before writing so the watcher event for this write is
	// recognised as our own.
	a.mu.Lock()
	prev := a.lastSum
	a.lastSum = fingerprint(data)
	a.mu.Unlock()

	if err := a.provider.Set(BlogsKey, data); err != nil {
		a.mu.Lock()
		a.lastSum = prev
		a.mu.Unlock()
		err = fmt.Errorf("%w: %w", apperr.ErrStorageWrite, err)
		a.logger.Error("persist: save failed", slog.String("error", err.Error()))
		return err
	}
	a.logger.Debug("persist: saved blogs", slog.Int("count", len(blogs)))
	return nil
}

// OnExternalChange registers fn to run after another process rewrites the
// blogs key. The returned func removes the registration.
func (a *Adapter) OnExternalChange(fn func()) (cancel func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.handlers[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.handlers, id)
		a.mu.Unlock()
	}
}

// Watch follows the provider's watcher until ctx is cancelled. Providers
// that cannot be watched make this a no-op that waits for ctx.
func (a *Adapter) Watch(ctx context.Context) error {
	w, ok := a.provider.(storage.Watcher)
	if !ok {
		a.logger.Info("persist: storage backend cannot be watched; external changes ignored")
		<-ctx.Done()
		return nil
	}
	return w.Watch(ctx, a.logger, func(key string) {
		if key == BlogsKey || key == storage.AnyKey {
			a.CheckExternal()
		}
	})
}

// CheckExternal re-reads the blogs key and fires the external-change
// handlers if its content differs from what this adapter last saw. It
// reports whether handlers fired.
func (a *Adapter) CheckExternal() bool {
	data, err := a.provider.Get(BlogsKey)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.logger.Warn("persist: external check read failed", slog.String("error", err.Error()))
		return false
	}
	sum := fingerprint(data)

	a.mu.Lock()
	if sum == a.lastSum {
		a.mu.Unlock()
		return false
	}
	a.lastSum = sum
	handlers := make([]func(), 0, len(a.handlers))
	for _, fn := range a.handlers {
		handlers = append(handlers, fn)
	}
	a.mu.Unlock()

	a.logger.Info("persist: blogs changed by another process")
	for _, fn := range handlers {
		fn()
	}
	return true
}

// LoadInt reads an integer scalar, returning def when it is missing or not
// a number.
func (a *Adapter) LoadInt(key string, def int) int {
	data, err := a.provider.Get(key)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("persist: read scalar failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return def
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		a.logger.Warn("persist: scalar is not an integer", slog.String("key", key), slog.String("value", string(data)))
		return def
	}
	return n
}

// SaveInt writes an integer scalar.
func (a *Adapter) SaveInt(key string, v int) {
	a.SaveString(key, strconv.Itoa(v))
}

// LoadString reads a string scalar, returning def when it is missing.
func (a *Adapter) LoadString(key, def string) string {
	data, err := a.provider.Get(key)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("persist: read scalar failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return def
	}
	return string(data)
}

// SaveString writes a string scalar. Failures are logged.
func (a *Adapter) SaveString(key, v string) {
	if err := a.provider.Set(key, []byte(v)); err != nil {
		a.logger.Error("persist: write scalar failed",
			slog.String("key", key),
			slog.String("error", fmt.Errorf("%w: %w", apperr.ErrStorageWrite, err).Error()))
	}
}

// Remove deletes a scalar key. Failures are logged.
func (a *Adapter) Remove(key string) {
	if err := a.provider.Remove(key); err != nil {
		a.logger.Error("persist: remove scalar failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (a *Adapter) remember(data []byte) {
	a.mu.Lock()
	a.lastSum = fingerprint(data)
	a.mu.Unlock()
}

func decode(data []byte) ([]models.Blog, error) {
	var blogs []models.Blog
	if err := json.Unmarshal(data, &blogs); err != nil {
		return nil, err
	}
	if blogs == nil {
		blogs = []models.Blog{}
	}
	return blogs, nil
}

// fingerprint identifies a blob by content. A missing key and an empty
// value share the same fingerprint.
func fingerprint(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
