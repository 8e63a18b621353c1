package emlx

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Mailbox is an Apple Mail mailbox directory holding .emlx files.
type Mailbox struct {
	// Name is the mailbox name derived from the path (see MailboxName).
	Name string

	// Path is the .mbox or .imapmbox directory.
	Path string

	// MsgDir holds the .emlx files: Path/Messages in legacy layouts,
	// Path/<GUID>/Data/Messages in V10 layouts.
	MsgDir string

	// Files are the .emlx file names in MsgDir, in numeric order.
	Files []string
}

// Discover walks an Apple Mail tree and returns every mailbox that holds
// .emlx files, sorted by path. When root is itself a mailbox only that one
// is returned.
func Discover(root string) ([]Mailbox, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("emlx discover: abs path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("emlx discover: stat %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("emlx discover: %q is not a directory", abs)
	}

	if isMailboxDir(abs) {
		mb, err := loadMailbox(filepath.Dir(abs), abs)
		if err != nil {
			return nil, err
		}
		if len(mb.Files) > 0 {
			return []Mailbox{mb}, nil
		}
	}

	var out []Mailbox
	err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if d.Name() == "Messages" {
			return filepath.SkipDir
		}
		if !isMailboxDir(path) {
			return nil
		}
		mb, err := loadMailbox(abs, path)
		if err == nil && len(mb.Files) > 0 {
			out = append(out, mb)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("emlx discover: walk: %w", err)
	}
	slices.SortFunc(out, func(a, b Mailbox) int { return cmp.Compare(a.Path, b.Path) })
	return out, nil
}

func loadMailbox(root, path string) (Mailbox, error) {
	msgDir, files, err := listEmlxFiles(path)
	if err != nil {
		return Mailbox{}, err
	}
	return Mailbox{Name: MailboxName(root, path), Path: path, MsgDir: msgDir, Files: files}, nil
}

// MailboxName derives the mailbox name from its path relative to root.
// Account containers (Mailboxes, IMAP-*, POP-*, V10 account GUIDs) are
// dropped and .mbox/.imapmbox suffixes removed, so
// "Mailboxes/Classes/Accardi.mbox" becomes "Classes/Accardi".
func MailboxName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return stripMailboxSuffix(filepath.Base(path))
	}

	var parts []string
	for _, p := range strings.Split(filepath.ToSlash(rel), "/") {
		if p == "Mailboxes" || p == "." || strings.HasPrefix(p, "IMAP-") || strings.HasPrefix(p, "POP-") || isUUID(p) {
			continue
		}
		parts = append(parts, stripMailboxSuffix(p))
	}
	if len(parts) == 0 {
		return stripMailboxSuffix(filepath.Base(path))
	}
	return strings.Join(parts, "/")
}

func isMailboxDir(path string) bool {
	lower := strings.ToLower(filepath.Base(path))
	if !strings.HasSuffix(lower, ".mbox") && !strings.HasSuffix(lower, ".imapmbox") {
		return false
	}
	return findMessagesDir(path) != ""
}

func findMessagesDir(mailboxPath string) string {
	legacy := filepath.Join(mailboxPath, "Messages")
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		return legacy
	}
	entries, err := os.ReadDir(mailboxPath)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		modern := filepath.Join(mailboxPath, e.Name(), "Data", "Messages")
		if info, err := os.Stat(modern); err == nil && info.IsDir() {
			return modern
		}
	}
	return ""
}

// isUUID reports whether s has the 8-4-4-4-12 hex layout.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, c := range s {
		switch i {
		case 8, 13, 18, 23:
			if c != '-' {
				return false
			}
		default:
			if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
				return false
			}
		}
	}
	return true
}

func stripMailboxSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".imapmbox", ".mbox"} {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)]
		}
	}
	return name
}

// listEmlxFiles returns the Messages directory and its .emlx files.
// Apple Mail's .partial.emlx temp files are skipped.
func listEmlxFiles(mailboxPath string) (string, []string, error) {
	msgDir := findMessagesDir(mailboxPath)
	if msgDir == "" {
		return "", nil, nil
	}
	entries, err := os.ReadDir(msgDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("read Messages dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		lower := strings.ToLower(e.Name())
		if e.IsDir() || !strings.HasSuffix(lower, ".emlx") || strings.HasSuffix(lower, ".partial.emlx") {
			continue
		}
		files = append(files, e.Name())
	}
	slices.SortFunc(files, compareFileNames)
	return msgDir, files, nil
}

// compareFileNames orders "2.emlx" before "10.emlx"; non-numeric names sort
// after numeric ones, by name.
func compareFileNames(a, b string) int {
	na, errA := strconv.ParseInt(strings.TrimSuffix(strings.ToLower(a), ".emlx"), 10, 64)
	nb, errB := strconv.ParseInt(strings.TrimSuffix(strings.ToLower(b), ".emlx"), 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(na, nb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
