package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func tempData(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return store
}

func TestSetAndGet(t *testing.T) {
	s := tempData(t)
	value := []byte(`[{"id":1}]`)
	if err := s.Set("blogs", value); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("blogs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("value mismatch: got %q", got)
	}
}

func TestGetMissingIsNotExist(t *testing.T) {
	s := tempData(t)
	_, err := s.Get("nothing")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestRemove(t *testing.T) {
	s := tempData(t)
	_ = s.Set("page", []byte("3"))
	if err := s.Remove("page"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get("page"); err == nil {
		t.Error("expected error reading removed key")
	}
	if err := s.Remove("page"); err != nil {
		t.Errorf("removing a missing key should succeed: %v", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempData(t)

	cases := []string{
		"../../etc/passwd",
		"../outside",
		"/etc/shadow",
		"sub/key",
		".inkwell-tmp-123",
		"",
	}
	for _, k := range cases {
		if _, err := s.Get(k); err == nil {
			t.Errorf("expected error for key %q", k)
		}
		if err := s.Set(k, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", k)
		}
	}
}

func TestAtomicSetLeavesNoTemp(t *testing.T) {
	s := tempData(t)
	_ = s.Set("blogs", []byte("original"))

	if err := s.Set("blogs", []byte("updated")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := s.Get("blogs")
	if string(got) != "updated" {
		t.Errorf("expected updated value, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "inkwell-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
