// Package treewalk walks a directory tree into a deterministic, sorted list
// of entries. Adapted from internal/walkwalk's filesystem walker,
// stripped of its gitignore/extension/size-budget filtering — a patch tree
// walk visits everything under the root.
package treewalk

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/Vadimus1983/patcher/internal/pathutil"
)

// Kind discriminates a directory entry from a regular file.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// DirEntry is one entry discovered under a walked root.
type DirEntry struct {
	RelativePath string // wire-convention relative path, forward-slash separated
	Kind         Kind
	FullPath     string // absolute/OS-native path, for opening the underlying file
	Size         int64  // regular files only; zero for directories
}

// Walk walks root and returns every file and directory beneath it (root
// itself excluded), sorted by RelativePath. Symlinks are not followed: their
// Lstat mode is not regular, so they are skipped along with other
// non-regular entries (devices, sockets, pipes).
func Walk(root string) ([]DirEntry, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	var entries []DirEntry

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if path == rootAbs {
			return nil
		}

		rel, rerr := filepath.Rel(rootAbs, path)
		if rerr != nil {
			return fmt.Errorf("computing relative path for %s: %w", path, rerr)
		}
		wire := pathutil.ToWire(rel)

		if d.IsDir() {
			entries = append(entries, DirEntry{RelativePath: wire, Kind: KindDir, FullPath: path})
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			return fmt.Errorf("stat %s: %w", path, ierr)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		entries = append(entries, DirEntry{
			RelativePath: wire,
			Kind:         KindFile,
			FullPath:     path,
			Size:         info.Size(),
		})
		return nil
	}

	if err := filepath.WalkDir(rootAbs, walkFn); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelativePath < entries[j].RelativePath })
	return entries, nil
}
