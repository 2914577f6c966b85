// Package patchformat defines the wire types for a patch container — the
// patch manifest, its operations and diff chunks, the apply summary — and
// the binary codec that (de)serializes them.
package patchformat

// Magic is the fixed 8-byte header identifying a patch container.
const Magic = "PATCHV01"

// FormatVersion is the current PatchManifest wire version.
const FormatVersion uint32 = 1

// OpKind discriminates the five PatchOperation shapes. Values match the
// uint32 wire discriminant, in declaration order below.
type OpKind uint32

const (
	OpCreateDir OpKind = iota
	OpAddFile
	OpModifyFile
	OpDeleteFile
	OpDeleteDir
)

// ChunkKind discriminates the two DiffChunk shapes.
type ChunkKind uint32

const (
	ChunkCopy ChunkKind = iota
	ChunkInsert
)

// DiffChunk is one instruction in a ModifyFile's diff: either copy a byte
// range from the old file, or insert literal bytes.
type DiffChunk struct {
	Kind   ChunkKind
	Offset uint64 // Copy only
	Length uint64 // Copy only
	Data   []byte // Insert only
}

// PatchOp is one operation in a PatchManifest. Which fields are meaningful
// depends on Kind.
type PatchOp struct {
	Kind OpKind
	Path string

	// AddFile
	Data        []byte
	ContentHash [32]byte

	// ModifyFile
	Diff              []DiffChunk
	TargetContentHash [32]byte
}

// CreateDirOp builds a CreateDir operation.
func CreateDirOp(path string) PatchOp { return PatchOp{Kind: OpCreateDir, Path: path} }

// AddFileOp builds an AddFile operation.
func AddFileOp(path string, data []byte, hash [32]byte) PatchOp {
	return PatchOp{Kind: OpAddFile, Path: path, Data: data, ContentHash: hash}
}

// ModifyFileOp builds a ModifyFile operation.
func ModifyFileOp(path string, diff []DiffChunk, targetHash [32]byte) PatchOp {
	return PatchOp{Kind: OpModifyFile, Path: path, Diff: diff, TargetContentHash: targetHash}
}

// DeleteFileOp builds a DeleteFile operation.
func DeleteFileOp(path string) PatchOp { return PatchOp{Kind: OpDeleteFile, Path: path} }

// DeleteDirOp builds a DeleteDir operation.
func DeleteDirOp(path string) PatchOp { return PatchOp{Kind: OpDeleteDir, Path: path} }

// PatchManifest is the full, ordered operation list written to a patch
// container.
type PatchManifest struct {
	Version    uint32
	Operations []PatchOp
}

// Summary reports how many directories/files were created, added, modified,
// or deleted by a create or apply run.
type Summary struct {
	DirsCreated   int
	FilesAdded    int
	FilesModified int
	FilesDeleted  int
	DirsDeleted   int
}

// Total returns the sum of all counters; zero means no change was recorded.
func (s Summary) Total() int {
	return s.DirsCreated + s.FilesAdded + s.FilesModified + s.FilesDeleted + s.DirsDeleted
}
