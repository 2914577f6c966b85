package applier

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Vadimus1983/patcher/internal/contenthash"
	"github.com/Vadimus1983/patcher/internal/patchformat"
)

// kindChangeCounts tracks operations resolveKindChanges executed itself, so
// ApplyPatch's final Summary still accounts for them after they're pulled out
// of grouped's slices.
type kindChangeCounts struct {
	dirsCreated  int
	filesAdded   int
	filesDeleted int
	dirsDeleted  int
}

// resolveKindChanges handles paths whose kind changed between old and new
// tree (file->dir or dir->file): classify emits these as a delete of the old
// kind plus a create/add of the new kind on the same path, but the normal
// phase ordering (all CreateDir before any DeleteFile; AddFile concurrent
// with, not after, directory removal) can't execute that pair safely — it
// either tries to MkdirAll over the still-present file, or races WriteFile
// against RemoveAll. Resolve every such path here, sequentially and in the
// correct order, before the normal phases run, then strip the resolved ops
// out of grouped so they aren't processed twice.
func resolveKindChanges(target string, grouped *groupedOps) (kindChangeCounts, error) {
	var counts kindChangeCounts

	fileToDirDeletes := make(map[string]struct{})
	for _, op := range grouped.createDirs {
		for _, del := range grouped.deleteFiles {
			if del.Path == op.Path {
				fileToDirDeletes[op.Path] = struct{}{}
				break
			}
		}
	}

	for path := range fileToDirDeletes {
		full := filepath.Join(target, filepath.FromSlash(path))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return counts, fmt.Errorf("removing %s before converting to directory: %w", full, err)
		}
		if err := os.MkdirAll(full, 0o755); err != nil {
			return counts, fmt.Errorf("creating directory %s: %w", full, err)
		}
		counts.filesDeleted++
		counts.dirsCreated++
	}

	dirToFileDeletes := make(map[string]struct{})
	for _, op := range grouped.addFiles {
		for _, del := range grouped.deleteDirs {
			if del.Path == op.Path {
				dirToFileDeletes[op.Path] = struct{}{}
				break
			}
		}
	}

	var addFilesByPath map[string]patchformat.PatchOp
	if len(dirToFileDeletes) > 0 {
		addFilesByPath = make(map[string]patchformat.PatchOp, len(dirToFileDeletes))
		for _, op := range grouped.addFiles {
			if _, ok := dirToFileDeletes[op.Path]; ok {
				addFilesByPath[op.Path] = op
			}
		}
	}

	for path := range dirToFileDeletes {
		full := filepath.Join(target, filepath.FromSlash(path))
		if err := os.RemoveAll(full); err != nil {
			return counts, fmt.Errorf("removing directory %s before converting to file: %w", full, err)
		}

		op := addFilesByPath[path]
		if err := os.WriteFile(full, op.Data, 0o644); err != nil {
			return counts, fmt.Errorf("writing file %s: %w", full, err)
		}
		if actual := contenthash.HashBytes(op.Data); actual != op.ContentHash {
			return counts, fmt.Errorf("%w: added file %s", patchformat.ErrHashMismatch, op.Path)
		}
		counts.dirsDeleted++
		counts.filesAdded++
	}

	if len(fileToDirDeletes) > 0 {
		grouped.createDirs = dropOps(grouped.createDirs, fileToDirDeletes, isExact)
		grouped.deleteFiles = dropOps(grouped.deleteFiles, fileToDirDeletes, isExact)
	}
	if len(dirToFileDeletes) > 0 {
		// RemoveAll already took every descendant of the converted directory
		// with it, so drop their now-stale delete ops too, not just the
		// converted path itself.
		grouped.addFiles = dropOps(grouped.addFiles, dirToFileDeletes, isExact)
		nDirs, nFiles := len(grouped.deleteDirs), len(grouped.deleteFiles)
		grouped.deleteDirs = dropOps(grouped.deleteDirs, dirToFileDeletes, isExactOrDescendant)
		grouped.deleteFiles = dropOps(grouped.deleteFiles, dirToFileDeletes, isExactOrDescendant)
		// The converted paths were counted above; count the descendant
		// deletes RemoveAll carried out as well.
		counts.dirsDeleted += nDirs - len(grouped.deleteDirs) - len(dirToFileDeletes)
		counts.filesDeleted += nFiles - len(grouped.deleteFiles)
	}

	return counts, nil
}

func isExact(opPath, resolvedPath string) bool {
	return opPath == resolvedPath
}

func isExactOrDescendant(opPath, resolvedPath string) bool {
	return opPath == resolvedPath || strings.HasPrefix(opPath, resolvedPath+"/")
}

// dropOps filters out every op whose Path matches an entry in resolved under
// match, in place.
func dropOps(ops []patchformat.PatchOp, resolved map[string]struct{}, match func(opPath, resolvedPath string) bool) []patchformat.PatchOp {
	out := ops[:0]
	for _, op := range ops {
		drop := false
		for resolvedPath := range resolved {
			if match(op.Path, resolvedPath) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, op)
		}
	}
	return out
}
