// Package contenthash computes BLAKE3 content hashes for patch building and
// apply-time verification, following the streaming-hasher shape of
// internal/walkwalk.sha256File, swapped to BLAKE3.
package contenthash

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// streamBufferSize cuts syscall overhead versus io.Copy's default small
// internal buffer when hashing large files.
const streamBufferSize = 256 * 1024

// HashFile streams path through BLAKE3 without loading it fully into memory.
func HashFile(path string) ([32]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, streamBufferSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return [32]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// HashBytes hashes an in-memory buffer, for files already mmap'd for diffing
// or assembly where a second streaming pass would be wasted I/O.
func HashBytes(data []byte) [32]byte {
	return blake3.Sum256(data)
}
