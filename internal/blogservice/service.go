// Package blogservice holds the authoritative in-memory blog collection and
// the lifecycle rules applied to it.
package blogservice

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
)

// Persistence is the storage contract the service writes through.
type Persistence interface {
	Load() []models.Blog
	Save(blogs []models.Blog) error
	OnExternalChange(fn func()) (cancel func())
}

// ChangeKind names what happened to the collection.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeUpdated  ChangeKind = "updated"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeReloaded ChangeKind = "reloaded"
)

// Change is delivered to subscribers after every mutation or reload. ID is
// zero for reloads.
type Change struct {
	Kind ChangeKind
	ID   int64
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithRetention sets how long soft-deleted blogs are kept.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// Service is the only writer of the blog collection. Every mutation updates
// memory first and then saves the whole collection synchronously.
//
// Reload replaces memory wholesale with whatever another process wrote.
// Edits made here to the same blog since the last save are lost; there is
// no merge.
type Service struct {
	persist   Persistence
	logger    *slog.Logger
	now       func() time.Time
	retention time.Duration

	mu          sync.RWMutex
	blogs       []models.Blog
	initialized bool
	ids         idSource
	writeErr    error
	stopWatch   func()

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// NewService creates a service over p. Nothing is read until Init or the
// first operation.
func NewService(p Persistence, opts ...Option) *Service {
	s := &Service{
		persist:   p,
		logger:    slog.Default(),
		now:       time.Now,
		retention: DefaultRetention,
		subs:      make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the stored collection, drops expired soft-deleted blogs and
// starts following external changes. It returns how many blogs the sweep
// removed. Only the first call does any work.
func (s *Service) Init() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activate()
}

// activate must be called with mu held.
func (s *Service) activate() int {
	if s.initialized {
		return 0
	}
	loaded := s.persist.Load()
	kept, purged := Sweep(loaded, s.now(), s.retention)
	s.blogs = kept
	s.ids.observe(loaded)
	s.initialized = true
	s.stopWatch = s.persist.OnExternalChange(s.Reload)

	s.logger.Info("blogs: initialized", slog.Int("count", len(kept)), slog.Int("purged", purged))
	if purged > 0 {
		s.save()
	}
	return purged
}

// Close stops following external changes.
func (s *Service) Close() {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Create appends a new blog built from f and returns it.
func (s *Service) Create(f models.Fields) models.Blog {
	s.mu.Lock()
	s.activate()

	now := s.now()
	b := models.Blog{
		ID:      s.ids.next(now),
		Status:  models.StatusDraft,
		Created: models.NewTimestamp(now),
	}
	f.ApplyTo(&b)
	if !b.Status.Valid() {
		b.Status = models.StatusDraft
	}
	s.blogs = append(s.blogs, b)
	s.save()
	s.mu.Unlock()

	s.logger.Info("blogs: created", slog.Int64("id", b.ID))
	s.notify(Change{Kind: ChangeCreated, ID: b.ID})
	return b.Clone()
}

// Update merges f into the live blog with the given id.
func (s *Service) Update(id int64, f models.Fields) (models.Blog, error) {
	s.mu.Lock()
	s.activate()

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Blog{}, apperr.ErrNotFound
	}

	b := &s.blogs[i]
	if f.Status != nil && !f.Status.Valid() {
		s.mu.Unlock()
		return models.Blog{}, fmt.Errorf("%w: status %q", apperr.ErrValidation, *f.Status)
	}
	f.ApplyTo(b)
	updated := models.NewTimestamp(s.now())
	if !updated.After(b.Created.Time) {
		updated = models.NewTimestamp(b.Created.Add(time.Millisecond))
	}
	b.Updated = &updated
	out := b.Clone()
	s.save()
	s.mu.Unlock()

	s.logger.Info("blogs: updated", slog.Int64("id", id))
	s.notify(Change{Kind: ChangeUpdated, ID: id})
	return out, nil
}

// SoftDelete marks the live blog with the given id as deleted. It stays in
// storage until the retention sweep drops it.
func (s *Service) SoftDelete(id int64) (models.Blog, error) {
	s.mu.Lock()
	s.activate()

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Blog{}, apperr.ErrNotFound
	}

	b := &s.blogs[i]
	deletedAt := models.NewTimestamp(s.now())
	b.Deleted = true
	b.DeletedAt = &deletedAt
	out := b.Clone()
	s.save()
	s.mu.Unlock()

	s.logger.Info("blogs: soft-deleted", slog.Int64("id", id))
	s.notify(Change{Kind: ChangeDeleted, ID: id})
	return out, nil
}

// Get returns the live blog with the given id. Soft-deleted and purged
// blogs are not found.
func (s *Service) Get(id int64) (models.Blog, error) {
	s.ensureActive()
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Blog{}, apperr.ErrNotFound
	}
	return s.blogs[i].Clone(), nil
}

// Snapshot returns a copy of the whole collection, soft-deleted blogs
// included, in stored order.
func (s *Service) Snapshot() []models.Blog {
	s.ensureActive()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Blog, len(s.blogs))
	for i, b := range s.blogs {
		out[i] = b.Clone()
	}
	return out
}

// Reload replaces memory with the stored collection after another process
// wrote it. Nothing is written back.
func (s *Service) Reload() {
	s.mu.Lock()
	if !s.initialized {
		s.activate()
		s.mu.Unlock()
		return
	}
	loaded := s.persist.Load()
	kept, purged := Sweep(loaded, s.now(), s.retention)
	s.blogs = kept
	s.ids.observe(loaded)
	s.mu.Unlock()

	s.logger.Info("blogs: reloaded from storage", slog.Int("count", len(kept)), slog.Int("purged", purged))
	s.notify(Change{Kind: ChangeReloaded})
}

// Subscribe registers fn for change notifications. fn runs after the
// service lock is released and may call back into the service.
func (s *Service) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Health returns the last write failure, or nil once a write succeeds.
func (s *Service) Health() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeErr
}

func (s *Service) ensureActive() {
	s.mu.RLock()
	ready := s.initialized
	s.mu.RUnlock()
	if !ready {
		s.Init()
	}
}

// indexOf finds a live blog. Must be called with mu held.
func (s *Service) indexOf(id int64) int {
	for i := range s.blogs {
		if s.blogs[i].ID == id && s.blogs[i].Active() {
			return i
		}
	}
	return -1
}

// save writes the collection. Must be called with mu held.
func (s *Service) save() {
	if !s.initialized {
		// Writing before the first load would replace stored data with an
		// empty collection.
		s.logger.Warn("blogs: save skipped before initialization")
		return
	}
	s.writeErr = s.persist.Save(s.blogs)
}

func (s *Service) notify(c Change) {
	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}
