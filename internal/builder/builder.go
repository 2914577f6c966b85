// Package builder implements the patch builder: walk both trees,
// classify the differences, confirm and diff modified files, collect added
// files, and assemble the ordered operation list into a patch container,
// using golang.org/x/sync/errgroup for the concurrent stages.
package builder

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Vadimus1983/patcher/internal/blockdiff"
	"github.com/Vadimus1983/patcher/internal/contenthash"
	"github.com/Vadimus1983/patcher/internal/mmaputil"
	"github.com/Vadimus1983/patcher/internal/patchformat"
	"github.com/Vadimus1983/patcher/internal/treewalk"
)

// CreatePatch compares oldDir and newDir and writes a patch container to
// outputPath describing how to turn oldDir into newDir.
func CreatePatch(oldDir, newDir, outputPath string) (patchformat.Summary, error) {
	oldEntries, newEntries, err := walkBoth(oldDir, newDir)
	if err != nil {
		return patchformat.Summary{}, err
	}

	c := classify(oldEntries, newEntries)

	modifyOps, addOps, err := diffAndCollect(c)
	if err != nil {
		return patchformat.Summary{}, err
	}

	operations := assemble(c, addOps, modifyOps)

	manifest := patchformat.PatchManifest{
		Version:    patchformat.FormatVersion,
		Operations: operations,
	}

	if err := writeContainer(outputPath, manifest); err != nil {
		return patchformat.Summary{}, err
	}

	return patchformat.Summary{
		DirsCreated:   len(c.dirsToCreate),
		FilesAdded:    len(c.filesToAdd),
		FilesModified: len(modifyOps),
		FilesDeleted:  len(c.filesToDelete),
		DirsDeleted:   len(c.dirsToDelete),
	}, nil
}

func walkBoth(oldDir, newDir string) (oldEntries, newEntries []treewalk.DirEntry, err error) {
	g := new(errgroup.Group)

	g.Go(func() error {
		entries, werr := treewalk.Walk(oldDir)
		if werr != nil {
			return fmt.Errorf("walking old tree %s: %w", oldDir, werr)
		}
		oldEntries = entries
		return nil
	})
	g.Go(func() error {
		entries, werr := treewalk.Walk(newDir)
		if werr != nil {
			return fmt.Errorf("walking new tree %s: %w", newDir, werr)
		}
		newEntries = entries
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return oldEntries, newEntries, nil
}

// diffAndCollect runs the modified-file confirm+diff pass and the
// add-file collection pass concurrently, each internally bounded to
// GOMAXPROCS workers so neither pass spawns a goroutine per file.
func diffAndCollect(c classification) ([]patchformat.PatchOp, []patchformat.PatchOp, error) {
	var modifyOps, addOps []patchformat.PatchOp

	outer := new(errgroup.Group)

	outer.Go(func() error {
		ops, err := diffModified(c.modifiedPairs)
		if err != nil {
			return err
		}
		modifyOps = ops
		return nil
	})
	outer.Go(func() error {
		ops, err := collectAdds(c.filesToAdd)
		if err != nil {
			return err
		}
		addOps = ops
		return nil
	})

	if err := outer.Wait(); err != nil {
		return nil, nil, err
	}
	return modifyOps, addOps, nil
}

func diffModified(pairs []modifiedPair) ([]patchformat.PatchOp, error) {
	results := make([]*patchformat.PatchOp, len(pairs))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			op, err := diffOne(pair)
			if err != nil {
				return err
			}
			results[i] = op
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ops := make([]patchformat.PatchOp, 0, len(results))
	for _, op := range results {
		if op != nil {
			ops = append(ops, *op)
		}
	}
	return ops, nil
}

// diffOne confirms whether pair actually changed and, if so, computes its
// diff chunks. It returns (nil, nil) when the file is unchanged.
func diffOne(pair modifiedPair) (*patchformat.PatchOp, error) {
	newHash, err := contenthash.HashFile(pair.newer.FullPath)
	if err != nil {
		return nil, err
	}

	sizesDiffer := pair.old.Size != pair.newer.Size
	if !sizesDiffer {
		oldHash, err := contenthash.HashFile(pair.old.FullPath)
		if err != nil {
			return nil, err
		}
		if oldHash == newHash {
			return nil, nil
		}
	}

	var chunks []patchformat.DiffChunk

	if isIncompressible(pair.newer.FullPath) {
		data, closeFn, err := mmaputil.ReadFile(pair.newer.FullPath)
		if err != nil {
			return nil, err
		}
		chunks = []patchformat.DiffChunk{{Kind: patchformat.ChunkInsert, Data: append([]byte(nil), data...)}}
		if cerr := closeFn(); cerr != nil {
			return nil, fmt.Errorf("unmapping %s: %w", pair.newer.FullPath, cerr)
		}
	} else {
		oldData, oldClose, err := mmaputil.ReadFile(pair.old.FullPath)
		if err != nil {
			return nil, err
		}
		newData, newClose, err := mmaputil.ReadFile(pair.newer.FullPath)
		if err != nil {
			oldClose()
			return nil, err
		}

		chunks = blockdiff.Compute(oldData, newData)

		if cerr := oldClose(); cerr != nil {
			newClose()
			return nil, fmt.Errorf("unmapping %s: %w", pair.old.FullPath, cerr)
		}
		if cerr := newClose(); cerr != nil {
			return nil, fmt.Errorf("unmapping %s: %w", pair.newer.FullPath, cerr)
		}
	}

	op := patchformat.ModifyFileOp(pair.relPath, chunks, newHash)
	return &op, nil
}

func collectAdds(entries []treewalk.DirEntry) ([]patchformat.PatchOp, error) {
	results := make([]patchformat.PatchOp, len(entries))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			data, closeFn, err := mmaputil.ReadFile(e.FullPath)
			if err != nil {
				return err
			}
			hash := contenthash.HashBytes(data)
			owned := append([]byte(nil), data...)
			if cerr := closeFn(); cerr != nil {
				return fmt.Errorf("unmapping %s: %w", e.FullPath, cerr)
			}
			results[i] = patchformat.AddFileOp(e.RelativePath, owned, hash)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// assemble orders operations so the applier never touches a path before its
// parent exists or after its children are gone: CreateDir (parent-first),
// AddFile, ModifyFile, DeleteFile, DeleteDir (deepest-first).
func assemble(c classification, addOps, modifyOps []patchformat.PatchOp) []patchformat.PatchOp {
	var ops []patchformat.PatchOp

	for _, path := range treewalk.SortDirsParentFirst(c.dirsToCreate) {
		ops = append(ops, patchformat.CreateDirOp(path))
	}
	ops = append(ops, addOps...)
	ops = append(ops, modifyOps...)
	for _, path := range c.filesToDelete {
		ops = append(ops, patchformat.DeleteFileOp(path))
	}
	for _, path := range treewalk.SortDirsDeepestFirst(c.dirsToDelete) {
		ops = append(ops, patchformat.DeleteDirOp(path))
	}

	return ops
}
