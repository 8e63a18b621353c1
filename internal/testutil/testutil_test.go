package testutil

import (
	"path/filepath"
	"testing"
)

func TestWriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := WriteFile(t, dir, "cur/nested/1.eml", []byte("x"))
	if want := filepath.Join(dir, "cur", "nested", "1.eml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	MustExist(t, path)
	if got := string(ReadFile(t, path)); got != "x" {
		t.Errorf("content = %q", got)
	}
}

func TestMakeSet(t *testing.T) {
	s := MakeSet("a", "b", "a")
	if len(s) != 2 || !s["a"] || !s["b"] {
		t.Errorf("MakeSet = %v", s)
	}
}
