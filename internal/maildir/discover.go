// Package maildir reads Maildir and Maildir++ trees as a message source.
package maildir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Inbox is the name of the mailbox stored at the root of a tree.
const Inbox = "INBOX"

// Folder is one maildir within a tree.
type Folder struct {
	// Name is the mailbox name: INBOX for the root, the Maildir++ folder
	// name (".Sub.Folder" becomes "Sub.Folder") or the slash-joined relative
	// path for nested plain maildirs.
	Name string
	// Path is the directory holding cur/ and new/.
	Path string
}

// Discover returns every maildir under root, INBOX first and the rest sorted
// by name.
func Discover(root string) ([]Folder, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("maildir discover: abs path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("maildir discover: stat %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("maildir discover: %q is not a directory", abs)
	}

	var folders []Folder
	err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		switch d.Name() {
		case "cur", "new", "tmp":
			if path != abs {
				return filepath.SkipDir
			}
		}
		if !isMaildir(path) {
			return nil
		}
		folders = append(folders, Folder{Name: FolderName(abs, path), Path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("maildir discover: walk: %w", err)
	}

	sort.SliceStable(folders, func(i, j int) bool {
		if (folders[i].Name == Inbox) != (folders[j].Name == Inbox) {
			return folders[i].Name == Inbox
		}
		return folders[i].Name < folders[j].Name
	})
	return folders, nil
}

// FolderName derives the mailbox name of dir relative to root.
func FolderName(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return Inbox
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		parts[i] = strings.TrimPrefix(p, ".")
	}
	return strings.Join(parts, "/")
}

func isMaildir(dir string) bool {
	for _, sub := range []string{"cur", "new"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// listMessages returns the message files of a maildir, new/ before cur/,
// each sorted by name. Dot files are skipped.
func listMessages(dir string) ([]string, error) {
	var files []string
	for _, sub := range []string{"new", "cur"} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", sub, err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, n := range names {
			files = append(files, filepath.Join(dir, sub, n))
		}
	}
	return files, nil
}
