package builder

import (
	"github.com/Vadimus1983/patcher/internal/treewalk"
)

// classification is the output of comparing an old and new tree walk: a
// set difference/intersection over relative paths.
type classification struct {
	dirsToCreate []string
	filesToAdd   []treewalk.DirEntry
	// modifiedPairs holds (old, new) entries whose kind is File in both
	// trees — candidates for content confirmation and diffing.
	modifiedPairs []modifiedPair
	filesToDelete []string
	dirsToDelete  []string
}

type modifiedPair struct {
	relPath string
	old     treewalk.DirEntry
	newer   treewalk.DirEntry
}

// classify compares oldEntries and newEntries and buckets every path into
// one of the five operation kinds. A path present in both trees whose kind
// changed (file become dir or vice versa) is resolved as a delete of the old
// kind plus a create/add of the new kind, rather than silently dropped —
// this keeps CreateDir/DeleteDir and the file-op sets disjoint.
func classify(oldEntries, newEntries []treewalk.DirEntry) classification {
	oldByPath := make(map[string]treewalk.DirEntry, len(oldEntries))
	for _, e := range oldEntries {
		oldByPath[e.RelativePath] = e
	}
	newByPath := make(map[string]treewalk.DirEntry, len(newEntries))
	for _, e := range newEntries {
		newByPath[e.RelativePath] = e
	}

	var c classification

	for _, ne := range newEntries {
		oe, inOld := oldByPath[ne.RelativePath]
		if !inOld {
			switch ne.Kind {
			case treewalk.KindDir:
				c.dirsToCreate = append(c.dirsToCreate, ne.RelativePath)
			case treewalk.KindFile:
				c.filesToAdd = append(c.filesToAdd, ne)
			}
			continue
		}

		if oe.Kind == ne.Kind {
			continue
		}

		// Kind changed: delete the old kind, create/add the new kind.
		switch oe.Kind {
		case treewalk.KindFile:
			c.filesToDelete = append(c.filesToDelete, oe.RelativePath)
		case treewalk.KindDir:
			c.dirsToDelete = append(c.dirsToDelete, oe.RelativePath)
		}
		switch ne.Kind {
		case treewalk.KindDir:
			c.dirsToCreate = append(c.dirsToCreate, ne.RelativePath)
		case treewalk.KindFile:
			c.filesToAdd = append(c.filesToAdd, ne)
		}
	}

	for _, oe := range oldEntries {
		ne, inNew := newByPath[oe.RelativePath]
		if inNew {
			if oe.Kind == treewalk.KindFile && ne.Kind == treewalk.KindFile {
				c.modifiedPairs = append(c.modifiedPairs, modifiedPair{
					relPath: oe.RelativePath,
					old:     oe,
					newer:   ne,
				})
			}
			continue
		}

		switch oe.Kind {
		case treewalk.KindDir:
			c.dirsToDelete = append(c.dirsToDelete, oe.RelativePath)
		case treewalk.KindFile:
			c.filesToDelete = append(c.filesToDelete, oe.RelativePath)
		}
	}

	return c
}
