package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func tempSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "inkwell.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_SetGetOverwrite(t *testing.T) {
	s := tempSQLite(t)
	if err := s.Set("blogs", []byte("[]")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("blogs", []byte(`[{"id":7}]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := s.Get("blogs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":7}]` {
		t.Errorf("value = %q", got)
	}
}

func TestSQLite_MissingAndRemove(t *testing.T) {
	s := tempSQLite(t)
	if _, err := s.Get("page"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
	_ = s.Set("page", []byte("2"))
	if err := s.Remove("page"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get("page"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("removed key still readable: %v", err)
	}
}

func TestSQLite_EmptyValueRoundTrips(t *testing.T) {
	s := tempSQLite(t)
	if err := s.Set("blogs", nil); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("blogs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("value = %q, want empty", got)
	}
}
