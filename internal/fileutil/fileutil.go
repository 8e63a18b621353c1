// Package fileutil writes files so readers never observe a partial write.
// Owner-only modes (perm&0o077 == 0) are additionally restricted to the
// current user on Windows, where Unix permission bits have no effect.
package fileutil

import (
	"io"
	"os"
	"path/filepath"
)

func ownerOnly(perm os.FileMode) bool {
	return perm&0o077 == 0
}

// MkdirAll creates path and any missing parents.
func MkdirAll(path string, perm os.FileMode) error {
	var created []string
	if ownerOnly(perm) {
		for p := filepath.Clean(path); ; p = filepath.Dir(p) {
			if _, err := os.Stat(p); err == nil {
				break
			}
			created = append(created, p)
			if filepath.Dir(p) == p {
				break
			}
		}
	}
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}
	for _, dir := range created {
		restrict(dir)
	}
	return nil
}

// WriteFile streams write into a temporary file next to path and renames it
// into place. On failure the previous contents of path are left untouched.
func WriteFile(path string, perm os.FileMode, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if ownerOnly(perm) {
		restrict(tmp)
	}
	return os.Rename(tmp, path)
}
