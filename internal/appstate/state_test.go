package appstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/persist"
	"github.com/starford/inkwell/internal/storage"
)

func newStore(t *testing.T) (*persist.Adapter, *storage.FS) {
	t.Helper()
	fsys, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return persist.New(fsys, nil), fsys
}

func TestNew_Defaults(t *testing.T) {
	store, _ := newStore(t)
	st := New(store).State()
	require.Equal(t, ScreenDashboard, st.Screen)
	require.Nil(t, st.SelectedID)
}

func TestTransitions(t *testing.T) {
	store, fsys := newStore(t)
	n := New(store)

	st := n.ViewBlog(42)
	require.Equal(t, ScreenView, st.Screen)
	require.Equal(t, int64(42), *st.SelectedID)

	raw, err := fsys.Get(persist.SelectedKey)
	require.NoError(t, err)
	require.Equal(t, "42", string(raw))

	st = n.EditBlog(7)
	require.Equal(t, ScreenEdit, st.Screen)
	require.Equal(t, int64(7), *st.SelectedID)

	st, err = n.Navigate(ScreenDashboard)
	require.NoError(t, err)
	require.Equal(t, ScreenDashboard, st.Screen)
	require.Equal(t, int64(7), *st.SelectedID, "navigate keeps the selection")

	st = n.BackToBlogs()
	require.Equal(t, ScreenBlogs, st.Screen)
	require.Nil(t, st.SelectedID)
	_, err = fsys.Get(persist.SelectedKey)
	require.Error(t, err, "cleared selection is removed from storage")

	n.ViewBlog(3)
	st = n.CreateBlog()
	require.Equal(t, ScreenCreate, st.Screen)
	require.Nil(t, st.SelectedID)
}

func TestStateSurvivesRestart(t *testing.T) {
	store, _ := newStore(t)
	New(store).EditBlog(1700000000000)

	st := New(store).State()
	require.Equal(t, ScreenEdit, st.Screen)
	require.Equal(t, int64(1700000000000), *st.SelectedID)
}

func TestNew_IgnoresGarbage(t *testing.T) {
	store, _ := newStore(t)
	store.SaveString(persist.ScreenKey, "settings")
	store.SaveString(persist.SelectedKey, "abc")

	st := New(store).State()
	require.Equal(t, ScreenDashboard, st.Screen)
	require.Nil(t, st.SelectedID)
}

func TestNavigate_UnknownScreen(t *testing.T) {
	store, _ := newStore(t)
	_, err := New(store).Navigate("settings")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = New(store).Replace(State{Screen: "nope"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestState_ReturnsCopy(t *testing.T) {
	store, _ := newStore(t)
	n := New(store)
	st := n.ViewBlog(5)
	*st.SelectedID = 99

	require.Equal(t, int64(5), *n.State().SelectedID)
}
