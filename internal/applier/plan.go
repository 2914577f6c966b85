package applier

import (
	"strings"

	"github.com/Vadimus1983/patcher/internal/patchformat"
)

// deletionPlan replaces per-file unlinks under a deleted directory with a
// single bulk removal on the subtree root.
type deletionPlan struct {
	rootDirs    []string
	orphanFiles []patchformat.PatchOp
}

// planDeletions finds the deleted directories with no deleted ancestor
// (the bulk-removal roots) and the deleted files not already covered by one
// of those roots.
func planDeletions(deleteDirOps, deleteFileOps []patchformat.PatchOp) deletionPlan {
	deletedDirs := make(map[string]struct{}, len(deleteDirOps))
	for _, op := range deleteDirOps {
		deletedDirs[op.Path] = struct{}{}
	}

	var rootDirs []string
	for dir := range deletedDirs {
		if !hasDeletedAncestor(dir, deletedDirs) {
			rootDirs = append(rootDirs, dir)
		}
	}

	var orphanFiles []patchformat.PatchOp
	for _, op := range deleteFileOps {
		if !hasDeletedAncestor(op.Path, deletedDirs) {
			orphanFiles = append(orphanFiles, op)
		}
	}

	return deletionPlan{rootDirs: rootDirs, orphanFiles: orphanFiles}
}

// hasDeletedAncestor reports whether any parent of path (not path itself) is
// in deletedDirs, walking up the '/' boundaries directly rather than testing
// path against every entry in deletedDirs.
func hasDeletedAncestor(path string, deletedDirs map[string]struct{}) bool {
	for {
		idx := strings.LastIndex(path, "/")
		if idx < 0 {
			return false
		}
		path = path[:idx]
		if _, ok := deletedDirs[path]; ok {
			return true
		}
	}
}
