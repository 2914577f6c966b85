package contenthash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashFileMatchesHashBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	data := []byte("the quick brown fox jumps over the lazy dog")

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	fromBytes := HashBytes(data)

	if fromFile != fromBytes {
		t.Fatalf("HashFile and HashBytes disagree: %x vs %x", fromFile, fromBytes)
	}
}

func TestHashBytesDeterministic(t *testing.T) {
	data := []byte("deterministic")
	if HashBytes(data) != HashBytes(data) {
		t.Fatal("HashBytes is not deterministic")
	}
}

func TestHashBytesDiffersForDifferentContent(t *testing.T) {
	if HashBytes([]byte("a")) == HashBytes([]byte("b")) {
		t.Fatal("expected different hashes for different content")
	}
}
