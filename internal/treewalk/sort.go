package treewalk

import (
	"sort"
	"strings"
)

// SortDirsParentFirst orders directory paths so that a parent always
// precedes its children — required before emitting CreateDir operations, so
// the applier never tries to create a child inside a directory that does
// not exist yet. Generalizes internal/sortutil's StablePathSort, which only
// provided a flat lexicographic order.
func SortDirsParentFirst(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	sort.Slice(out, func(i, j int) bool {
		di := strings.Count(out[i], "/")
		dj := strings.Count(out[j], "/")
		if di != dj {
			return di < dj
		}
		return out[i] < out[j]
	})
	return out
}

// SortDirsDeepestFirst orders directory paths so that a child always
// precedes its parent — required before emitting DeleteDir operations.
func SortDirsDeepestFirst(paths []string) []string {
	out := SortDirsParentFirst(paths)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
