package persist_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/persist"
	"github.com/starford/inkwell/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFS(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return fs
}

func sampleBlogs() []models.Blog {
	updated := models.FromMillis(1700000500000)
	deletedAt := models.FromMillis(1700000900000)
	return []models.Blog{
		{
			ID: 1700000000000, Title: "Launch", Description: "v1\n\nnotes",
			Category: "News", Status: models.StatusDraft,
			Created: models.FromMillis(1700000000000), Updated: &updated,
		},
		{
			ID: 1700000000001, Title: "Old", Description: "gone",
			Status: models.StatusPublished, Created: models.FromMillis(1700000000001),
			Deleted: true, DeletedAt: &deletedAt,
		},
	}
}

func TestAdapter_RoundTrip(t *testing.T) {
	a := persist.New(newFS(t), discardLogger())
	in := sampleBlogs()

	require.NoError(t, a.Save(in))
	out := a.Load()
	require.Equal(t, in, out)

	// Saving what was just loaded changes nothing.
	require.NoError(t, a.Save(out))
	require.Equal(t, in, a.Load())
}

func TestAdapter_LoadMissingIsEmpty(t *testing.T) {
	a := persist.New(newFS(t), discardLogger())
	got := a.Load()
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestAdapter_LoadMalformedIsEmpty(t *testing.T) {
	cases := map[string]string{
		"truncated":     `[{"id":1,"title":"Laun`,
		"object":        `{"id":1}`,
		"wrong types":   `[{"id":"one"}]`,
		"empty":         ``,
		"json null":     `null`,
		"garbage bytes": "\x00\xff",
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			fs := newFS(t)
			require.NoError(t, fs.Set(persist.BlogsKey, []byte(blob)))
			a := persist.New(fs, discardLogger())

			var got []models.Blog
			require.NotPanics(t, func() { got = a.Load() })
			require.NotNil(t, got)
			require.Empty(t, got)
		})
	}
}

type failingProvider struct {
	storage.Provider
	setErr error
}

func (p failingProvider) Set(string, []byte) error { return p.setErr }

func TestAdapter_SaveFailureIsReported(t *testing.T) {
	a := persist.New(failingProvider{Provider: newFS(t), setErr: errors.New("quota exceeded")}, discardLogger())
	err := a.Save(sampleBlogs())
	require.ErrorIs(t, err, apperr.ErrStorageWrite)
}

func TestAdapter_OwnWritesAreNotExternal(t *testing.T) {
	a := persist.New(newFS(t), discardLogger())
	var fired atomic.Int32
	a.OnExternalChange(func() { fired.Add(1) })

	_ = a.Load()
	require.NoError(t, a.Save(sampleBlogs()))
	require.False(t, a.CheckExternal())
	require.Equal(t, int32(0), fired.Load())
}

func TestAdapter_ExternalWriteFiresOnce(t *testing.T) {
	fs := newFS(t)
	a := persist.New(fs, discardLogger())
	_ = a.Load()

	var fired atomic.Int32
	cancel := a.OnExternalChange(func() { fired.Add(1) })

	other := persist.New(fs, discardLogger())
	require.NoError(t, other.Save(sampleBlogs()))

	require.True(t, a.CheckExternal())
	require.False(t, a.CheckExternal())
	require.Equal(t, int32(1), fired.Load())

	cancel()
	require.NoError(t, other.Save(sampleBlogs()[:1]))
	require.True(t, a.CheckExternal())
	require.Equal(t, int32(1), fired.Load())
}

func TestAdapter_WatchDeliversExternalChange(t *testing.T) {
	fs := newFS(t)
	a := persist.New(fs, discardLogger())
	_ = a.Load()

	var fired atomic.Int32
	a.OnExternalChange(func() { fired.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Watch(ctx)
	time.Sleep(100 * time.Millisecond)

	// Own writes stay silent.
	require.NoError(t, a.Save(sampleBlogs()[:1]))
	time.Sleep(400 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())

	other := persist.New(fs, discardLogger())
	require.NoError(t, other.Save(sampleBlogs()))
	require.Eventually(t, func() bool { return fired.Load() == 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestAdapter_Scalars(t *testing.T) {
	fs := newFS(t)
	a := persist.New(fs, discardLogger())

	require.Equal(t, 5, a.LoadInt(persist.PerPageKey, 5))
	a.SaveInt(persist.PerPageKey, 10)
	require.Equal(t, 10, a.LoadInt(persist.PerPageKey, 5))

	require.NoError(t, fs.Set(persist.PageKey, []byte("two")))
	require.Equal(t, 1, a.LoadInt(persist.PageKey, 1))

	a.SaveString(persist.ScreenKey, "blogs")
	require.Equal(t, "blogs", a.LoadString(persist.ScreenKey, "dashboard"))
	a.Remove(persist.ScreenKey)
	require.Equal(t, "dashboard", a.LoadString(persist.ScreenKey, "dashboard"))
}
