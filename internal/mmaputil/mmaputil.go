// Package mmaputil provides scoped read-only memory-mapped file access,
// built on github.com/edsrzf/mmap-go. Every mapping opened here must be
// unmapped before any write touches the same path — see callers in
// internal/builder and internal/applier.
package mmaputil

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ReadFile memory-maps path for read-only access and returns its bytes
// along with a close func that unmaps it. The caller must call close before
// writing to the same path.
func ReadFile(path string) (data []byte, close func() error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s for mapping: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	// mmap-go rejects zero-length mappings; treat an empty file as an empty
	// in-memory buffer rather than mapping it.
	if info.Size() == 0 {
		return []byte{}, func() error { return nil }, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("memory-mapping %s: %w", path, err)
	}

	return m, m.Unmap, nil
}
