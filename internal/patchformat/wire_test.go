package patchformat

import (
	"bytes"
	"testing"
)

func sampleManifest() PatchManifest {
	var h1, h2 [32]byte
	h1[0] = 0xAA
	h2[0] = 0xBB

	return PatchManifest{
		Version: FormatVersion,
		Operations: []PatchOp{
			CreateDirOp("a/b"),
			AddFileOp("a/b/new.txt", []byte("hello"), h1),
			ModifyFileOp("a/existing.bin", []DiffChunk{
				{Kind: ChunkCopy, Offset: 0, Length: 4096},
				{Kind: ChunkInsert, Data: []byte("patched")},
			}, h2),
			DeleteFileOp("a/gone.txt"),
			DeleteDirOp("a/old-dir"),
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := sampleManifest()

	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Version != m.Version {
		t.Fatalf("version mismatch: got %d want %d", decoded.Version, m.Version)
	}
	if len(decoded.Operations) != len(m.Operations) {
		t.Fatalf("operation count mismatch: got %d want %d", len(decoded.Operations), len(m.Operations))
	}

	for i, op := range m.Operations {
		got := decoded.Operations[i]
		if got.Kind != op.Kind || got.Path != op.Path {
			t.Fatalf("op %d mismatch: got %+v want %+v", i, got, op)
		}
		switch op.Kind {
		case OpAddFile:
			if !bytes.Equal(got.Data, op.Data) || got.ContentHash != op.ContentHash {
				t.Fatalf("AddFile op %d mismatch: got %+v want %+v", i, got, op)
			}
		case OpModifyFile:
			if got.TargetContentHash != op.TargetContentHash || len(got.Diff) != len(op.Diff) {
				t.Fatalf("ModifyFile op %d mismatch: got %+v want %+v", i, got, op)
			}
			for j, c := range op.Diff {
				gc := got.Diff[j]
				if gc.Kind != c.Kind || gc.Offset != c.Offset || gc.Length != c.Length || !bytes.Equal(gc.Data, c.Data) {
					t.Fatalf("ModifyFile op %d chunk %d mismatch: got %+v want %+v", i, j, gc, c)
				}
			}
		}
	}
}

func TestContainerRoundTrip(t *testing.T) {
	m := sampleManifest()

	var buf bytes.Buffer
	if err := WriteContainer(&buf, m); err != nil {
		t.Fatalf("WriteContainer: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte(Magic)) {
		t.Fatalf("container missing magic header")
	}

	decoded, err := ReadContainer(&buf)
	if err != nil {
		t.Fatalf("ReadContainer: %v", err)
	}
	if len(decoded.Operations) != len(m.Operations) {
		t.Fatalf("operation count mismatch after container round trip: got %d want %d", len(decoded.Operations), len(m.Operations))
	}
}

func TestReadContainerRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("NOTAPATCH-body")
	if _, err := ReadContainer(buf); err == nil {
		t.Fatal("expected an error for a bad magic header")
	}
}
