// Package applier implements the patch applier: parse the patch
// container, group operations by kind, create directories, plan bulk
// deletions, then add/modify/delete files concurrently using
// golang.org/x/sync/errgroup.
package applier

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Vadimus1983/patcher/internal/blockdiff"
	"github.com/Vadimus1983/patcher/internal/contenthash"
	"github.com/Vadimus1983/patcher/internal/mmaputil"
	"github.com/Vadimus1983/patcher/internal/patchformat"
	"github.com/Vadimus1983/patcher/internal/pathutil"
)

// ApplyPatch applies the patch container at patchPath to targetDir.
func ApplyPatch(targetDir, patchPath string) (patchformat.Summary, error) {
	manifest, err := readManifest(patchPath)
	if err != nil {
		return patchformat.Summary{}, err
	}

	if err := validateOpPaths(manifest.Operations); err != nil {
		return patchformat.Summary{}, fmt.Errorf("reading patch %s: %w", patchPath, err)
	}

	grouped := groupByKind(manifest.Operations)

	target, err := filepath.Abs(targetDir)
	if err != nil {
		return patchformat.Summary{}, fmt.Errorf("resolving target directory %s: %w", targetDir, err)
	}
	target, err = filepath.EvalSymlinks(target)
	if err != nil {
		return patchformat.Summary{}, fmt.Errorf("canonicalizing target directory %s: %w", targetDir, err)
	}

	kc, err := resolveKindChanges(target, &grouped)
	if err != nil {
		return patchformat.Summary{}, err
	}

	if err := createDirs(target, grouped.createDirs); err != nil {
		return patchformat.Summary{}, err
	}

	plan := planDeletions(grouped.deleteDirs, grouped.deleteFiles)

	g := new(errgroup.Group)
	g.Go(func() error { return addFiles(target, grouped.addFiles) })
	g.Go(func() error { return modifyFiles(target, grouped.modifyFiles) })
	g.Go(func() error { return runDeletions(target, plan) })

	if err := g.Wait(); err != nil {
		return patchformat.Summary{}, err
	}

	return patchformat.Summary{
		DirsCreated:   len(grouped.createDirs) + kc.dirsCreated,
		FilesAdded:    len(grouped.addFiles) + kc.filesAdded,
		FilesModified: len(grouped.modifyFiles),
		FilesDeleted:  len(grouped.deleteFiles) + kc.filesDeleted,
		DirsDeleted:   len(grouped.deleteDirs) + kc.dirsDeleted,
	}, nil
}

func readManifest(patchPath string) (patchformat.PatchManifest, error) {
	data, closeFn, err := mmaputil.ReadFile(patchPath)
	if err != nil {
		return patchformat.PatchManifest{}, err
	}
	defer closeFn()

	manifest, err := patchformat.ReadContainer(bytes.NewReader(data))
	if err != nil {
		return patchformat.PatchManifest{}, fmt.Errorf("reading patch %s: %w", patchPath, err)
	}
	return manifest, nil
}

// validateOpPaths rejects a manifest whose operations carry a path outside
// the wire convention before any operation touches the filesystem — in
// particular, a ".." segment must never be allowed to write or delete
// outside the target directory.
func validateOpPaths(ops []patchformat.PatchOp) error {
	for _, op := range ops {
		if err := pathutil.Validate(op.Path); err != nil {
			return err
		}
	}
	return nil
}

type groupedOps struct {
	createDirs  []patchformat.PatchOp
	addFiles    []patchformat.PatchOp
	modifyFiles []patchformat.PatchOp
	deleteFiles []patchformat.PatchOp
	deleteDirs  []patchformat.PatchOp
}

func groupByKind(ops []patchformat.PatchOp) groupedOps {
	var g groupedOps
	for _, op := range ops {
		switch op.Kind {
		case patchformat.OpCreateDir:
			g.createDirs = append(g.createDirs, op)
		case patchformat.OpAddFile:
			g.addFiles = append(g.addFiles, op)
		case patchformat.OpModifyFile:
			g.modifyFiles = append(g.modifyFiles, op)
		case patchformat.OpDeleteFile:
			g.deleteFiles = append(g.deleteFiles, op)
		case patchformat.OpDeleteDir:
			g.deleteDirs = append(g.deleteDirs, op)
		}
	}
	return g
}

// createDirs runs sequentially: the manifest already orders CreateDir
// operations parent-first, and os.MkdirAll makes the order moot anyway.
func createDirs(target string, ops []patchformat.PatchOp) error {
	for _, op := range ops {
		full := filepath.Join(target, filepath.FromSlash(op.Path))
		if err := os.MkdirAll(full, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", full, err)
		}
	}
	return nil
}

func addFiles(target string, ops []patchformat.PatchOp) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, op := range ops {
		op := op
		g.Go(func() error {
			full := filepath.Join(target, filepath.FromSlash(op.Path))
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return fmt.Errorf("creating parent directory for %s: %w", full, err)
			}
			if err := os.WriteFile(full, op.Data, 0o644); err != nil {
				return fmt.Errorf("writing file %s: %w", full, err)
			}

			actual := contenthash.HashBytes(op.Data)
			if actual != op.ContentHash {
				return fmt.Errorf("%w: added file %s", patchformat.ErrHashMismatch, op.Path)
			}
			return nil
		})
	}

	return g.Wait()
}

func modifyFiles(target string, ops []patchformat.PatchOp) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, op := range ops {
		op := op
		g.Go(func() error { return modifyOne(target, op) })
	}

	return g.Wait()
}

// modifyOne maps the existing file, computes the patched bytes, unmaps,
// verifies the hash of the patched bytes, then writes them. The mapping must be
// released strictly before the write — some platforms reject writing to a
// file with an open read mapping.
func modifyOne(target string, op patchformat.PatchOp) error {
	full := filepath.Join(target, filepath.FromSlash(op.Path))

	oldData, closeFn, err := mmaputil.ReadFile(full)
	if err != nil {
		return err
	}
	newData, err := blockdiff.Apply(oldData, op.Diff)
	if cerr := closeFn(); cerr != nil {
		return fmt.Errorf("unmapping %s: %w", full, cerr)
	}
	if err != nil {
		return fmt.Errorf("patching %s: %w", full, err)
	}

	actual := contenthash.HashBytes(newData)
	if actual != op.TargetContentHash {
		return fmt.Errorf("%w: patched file %s", patchformat.ErrHashMismatch, op.Path)
	}

	if err := os.WriteFile(full, newData, 0o644); err != nil {
		return fmt.Errorf("writing patched file %s: %w", full, err)
	}
	return nil
}

func runDeletions(target string, plan deletionPlan) error {
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, dir := range plan.rootDirs {
		dir := dir
		g.Go(func() error {
			full := filepath.Join(target, filepath.FromSlash(dir))
			if err := os.RemoveAll(full); err != nil {
				return fmt.Errorf("removing directory tree %s: %w", full, err)
			}
			return nil
		})
	}

	for _, op := range plan.orphanFiles {
		op := op
		g.Go(func() error {
			full := filepath.Join(target, filepath.FromSlash(op.Path))
			if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("deleting file %s: %w", full, err)
			}
			return nil
		})
	}

	return g.Wait()
}
