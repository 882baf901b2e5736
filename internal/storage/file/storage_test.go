package file

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrepareCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	s := NewStorage(dir)

	if err := s.Prepare(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("probe file left behind: %v", entries)
	}
}

func TestPrepareRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taken")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewStorage(path).Prepare(); err == nil {
		t.Fatal("expected a regular file to be rejected as output directory")
	}
}

func TestSaveIsAtomic(t *testing.T) {
	s := NewStorage(t.TempDir())

	path, err := s.Save("a.jpg", []byte("payload"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(path)
	if err != nil || string(got) != "payload" {
		t.Fatalf("load = %q, %v", got, err)
	}
	if _, err := os.Stat(path + partSuffix); !os.IsNotExist(err) {
		t.Fatal("temporary file left behind")
	}
}

func TestSaveIntoMissingDirectoryFails(t *testing.T) {
	s := NewStorage(filepath.Join(t.TempDir(), "missing"))
	if _, err := s.Save("a.jpg", []byte("x")); err == nil {
		t.Fatal("expected write into a missing directory to fail")
	}
}
