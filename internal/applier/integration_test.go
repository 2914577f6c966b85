package applier_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Vadimus1983/patcher/internal/applier"
	"github.com/Vadimus1983/patcher/internal/builder"
	"github.com/Vadimus1983/patcher/internal/patchformat"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func repeatByte(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// copyTree makes target a byte-identical copy of src, used to start an
// apply run from the pre-patch state.
func copyTree(t *testing.T, src, target string) {
	t.Helper()
	entries, err := os.ReadDir(src)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		srcPath := filepath.Join(src, e.Name())
		dstPath := filepath.Join(target, e.Name())
		if e.IsDir() {
			if err := os.MkdirAll(dstPath, 0o755); err != nil {
				t.Fatalf("MkdirAll: %v", err)
			}
			copyTree(t, srcPath, dstPath)
			continue
		}
		data, err := os.ReadFile(srcPath)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		writeFile(t, dstPath, data)
	}
}

func assertTreesEqual(t *testing.T, want, got string) {
	t.Helper()

	wantFiles := map[string][]byte{}
	filepath.Walk(want, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(want, path)
		data, _ := os.ReadFile(path)
		wantFiles[rel] = data
		return nil
	})

	gotFiles := map[string][]byte{}
	filepath.Walk(got, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(got, path)
		data, _ := os.ReadFile(path)
		gotFiles[rel] = data
		return nil
	})

	if len(wantFiles) != len(gotFiles) {
		t.Fatalf("file count mismatch: want %d (%v), got %d (%v)", len(wantFiles), keys(wantFiles), len(gotFiles), keys(gotFiles))
	}
	for rel, wantData := range wantFiles {
		gotData, ok := gotFiles[rel]
		if !ok {
			t.Fatalf("missing file after apply: %s", rel)
		}
		if !bytes.Equal(wantData, gotData) {
			t.Fatalf("content mismatch for %s", rel)
		}
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestEndToEndAddModifyDelete(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()

	writeFile(t, filepath.Join(oldDir, "readme.txt"), []byte("Hello, World! This is version 1."))
	writeFile(t, filepath.Join(oldDir, "config/settings.json"), []byte(`{"version": 1, "debug": false}`))
	writeFile(t, filepath.Join(oldDir, "data/records.bin"), repeatByte(0xAA, 8192))
	writeFile(t, filepath.Join(oldDir, "data/old_file.txt"), []byte("This file will be deleted"))
	writeFile(t, filepath.Join(oldDir, "obsolete/remove_me.txt"), []byte("Going away"))

	writeFile(t, filepath.Join(newDir, "readme.txt"), []byte("Hello, World! This is version 2 with new features."))
	writeFile(t, filepath.Join(newDir, "config/settings.json"), []byte(`{"version": 2, "debug": true, "newField": 42}`))
	recordsV2 := append(repeatByte(0xAA, 4096), repeatByte(0xBB, 4096)...)
	writeFile(t, filepath.Join(newDir, "data/records.bin"), recordsV2)
	writeFile(t, filepath.Join(newDir, "data/new_file.txt"), []byte("Brand new file in version 2"))
	writeFile(t, filepath.Join(newDir, "extras/bonus.dat"), repeatByte(0xFF, 1024))

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	summary, err := builder.CreatePatch(oldDir, newDir, patchPath)
	if err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}

	if summary.DirsCreated < 1 {
		t.Errorf("expected at least 1 dir created, got %d", summary.DirsCreated)
	}
	if summary.FilesAdded != 2 {
		t.Errorf("expected 2 files added, got %d", summary.FilesAdded)
	}
	if summary.FilesModified != 3 {
		t.Errorf("expected 3 files modified, got %d", summary.FilesModified)
	}
	if summary.FilesDeleted != 2 {
		t.Errorf("expected 2 files deleted, got %d", summary.FilesDeleted)
	}
	if summary.DirsDeleted != 1 {
		t.Errorf("expected 1 dir deleted, got %d", summary.DirsDeleted)
	}

	target := t.TempDir()
	copyTree(t, oldDir, target)

	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	assertTreesEqual(t, newDir, target)

	if _, err := os.Stat(filepath.Join(target, "obsolete")); !os.IsNotExist(err) {
		t.Fatalf("expected obsolete/ to be removed, stat err=%v", err)
	}
}

func TestEndToEndNoChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("same"))
	writeFile(t, filepath.Join(dir, "b/c.txt"), []byte("also same"))

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	summary, err := builder.CreatePatch(dir, dir, patchPath)
	if err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}

	if summary.Total() != 0 {
		t.Fatalf("expected an empty summary for identical trees, got %+v", summary)
	}

	target := t.TempDir()
	copyTree(t, dir, target)

	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	assertTreesEqual(t, dir, target)
}

func TestEndToEndEmptyToPopulated(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, filepath.Join(newDir, "file1.txt"), []byte("one"))
	writeFile(t, filepath.Join(newDir, "sub/file2.txt"), []byte("two"))

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	summary, err := builder.CreatePatch(oldDir, newDir, patchPath)
	if err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}
	if summary.FilesDeleted != 0 || summary.DirsDeleted != 0 {
		t.Fatalf("expected no deletions for an empty-to-populated patch, got %+v", summary)
	}

	target := t.TempDir()
	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	assertTreesEqual(t, newDir, target)
}

func TestEndToEndPopulatedToEmpty(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()
	writeFile(t, filepath.Join(oldDir, "file1.txt"), []byte("one"))
	writeFile(t, filepath.Join(oldDir, "sub/file2.txt"), []byte("two"))

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	summary, err := builder.CreatePatch(oldDir, newDir, patchPath)
	if err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}
	if summary.FilesAdded != 0 || summary.DirsCreated != 0 {
		t.Fatalf("expected no additions for a populated-to-empty patch, got %+v", summary)
	}

	target := t.TempDir()
	copyTree(t, oldDir, target)
	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	remaining, err := os.ReadDir(target)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected target to be empty after applying a populated-to-empty patch, got %v", remaining)
	}
}

func TestEndToEndPrefixOnlyChange(t *testing.T) {
	const blockSize = 4096
	oldDir := t.TempDir()
	newDir := t.TempDir()

	original := make([]byte, blockSize*4)
	for i := range original {
		original[i] = byte(i % 256)
	}
	writeFile(t, filepath.Join(oldDir, "big.bin"), original)

	modified := append([]byte(nil), original...)
	for i := 0; i < blockSize; i++ {
		modified[i] = 0xFF
	}
	writeFile(t, filepath.Join(newDir, "big.bin"), modified)

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	summary, err := builder.CreatePatch(oldDir, newDir, patchPath)
	if err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}
	if summary.FilesModified != 1 {
		t.Fatalf("expected exactly 1 modified file, got %d", summary.FilesModified)
	}

	target := t.TempDir()
	copyTree(t, oldDir, target)
	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	assertTreesEqual(t, newDir, target)
}

func TestEndToEndMiddleInsertion(t *testing.T) {
	const blockSize = 4096
	oldDir := t.TempDir()
	newDir := t.TempDir()

	original := make([]byte, blockSize*4)
	for i := range original {
		original[i] = byte(i % 256)
	}
	writeFile(t, filepath.Join(oldDir, "big.bin"), original)

	insertPos := blockSize * 2
	insertion := repeatByte(0xAA, 100)
	modified := make([]byte, 0, len(original)+len(insertion))
	modified = append(modified, original[:insertPos]...)
	modified = append(modified, insertion...)
	modified = append(modified, original[insertPos:]...)
	writeFile(t, filepath.Join(newDir, "big.bin"), modified)

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	if _, err := builder.CreatePatch(oldDir, newDir, patchPath); err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}

	target := t.TempDir()
	copyTree(t, oldDir, target)
	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	assertTreesEqual(t, newDir, target)
}

func TestEndToEndIncompressibleExtensionEmitsSingleInsert(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()

	writeFile(t, filepath.Join(oldDir, "photo.png"), repeatByte(0x01, 5000))
	writeFile(t, filepath.Join(newDir, "photo.png"), repeatByte(0x02, 5000))

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	if _, err := builder.CreatePatch(oldDir, newDir, patchPath); err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}

	f, err := os.Open(patchPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	manifest, err := patchformat.ReadContainer(f)
	f.Close()
	if err != nil {
		t.Fatalf("ReadContainer: %v", err)
	}
	if len(manifest.Operations) != 1 || manifest.Operations[0].Kind != patchformat.OpModifyFile {
		t.Fatalf("expected a single ModifyFile op, got %d ops", len(manifest.Operations))
	}
	diff := manifest.Operations[0].Diff
	if len(diff) != 1 || diff[0].Kind != patchformat.ChunkInsert || !bytes.Equal(diff[0].Data, repeatByte(0x02, 5000)) {
		t.Fatalf("expected exactly one Insert chunk carrying the new bytes, got %d chunks", len(diff))
	}

	target := t.TempDir()
	copyTree(t, oldDir, target)
	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	assertTreesEqual(t, newDir, target)
}

func TestEndToEndFileToDirectoryConversion(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()

	writeFile(t, filepath.Join(oldDir, "thing"), []byte("it used to be a file"))
	writeFile(t, filepath.Join(newDir, "thing/inner.txt"), []byte("now it's a directory"))

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	summary, err := builder.CreatePatch(oldDir, newDir, patchPath)
	if err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}
	if summary.FilesDeleted != 1 || summary.DirsCreated != 1 || summary.FilesAdded != 1 {
		t.Fatalf("unexpected summary for file->dir conversion: %+v", summary)
	}

	target := t.TempDir()
	copyTree(t, oldDir, target)
	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	info, err := os.Stat(filepath.Join(target, "thing"))
	if err != nil {
		t.Fatalf("stat thing: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected thing to be a directory after apply")
	}
	assertTreesEqual(t, newDir, target)
}

func TestEndToEndDirectoryToFileConversion(t *testing.T) {
	oldDir := t.TempDir()
	newDir := t.TempDir()

	writeFile(t, filepath.Join(oldDir, "thing/inner.txt"), []byte("it used to be a directory"))
	writeFile(t, filepath.Join(newDir, "thing"), []byte("now it's a file"))

	patchPath := filepath.Join(t.TempDir(), "patch.bin")
	summary, err := builder.CreatePatch(oldDir, newDir, patchPath)
	if err != nil {
		t.Fatalf("CreatePatch: %v", err)
	}
	if summary.DirsDeleted != 1 || summary.FilesAdded != 1 {
		t.Fatalf("unexpected summary for dir->file conversion: %+v", summary)
	}

	target := t.TempDir()
	copyTree(t, oldDir, target)
	if _, err := applier.ApplyPatch(target, patchPath); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	info, err := os.Stat(filepath.Join(target, "thing"))
	if err != nil {
		t.Fatalf("stat thing: %v", err)
	}
	if info.IsDir() {
		t.Fatalf("expected thing to be a file after apply")
	}
	assertTreesEqual(t, newDir, target)
}

func TestApplyRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	patchPath := filepath.Join(t.TempDir(), "bad.patch")
	if err := os.WriteFile(patchPath, []byte("not a real patch file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := applier.ApplyPatch(dir, patchPath); err == nil {
		t.Fatal("expected an error for a patch with a bad magic header")
	}
}
