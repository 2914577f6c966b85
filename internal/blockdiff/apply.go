package blockdiff

import (
	"fmt"

	"github.com/Vadimus1983/patcher/internal/patchformat"
)

// Apply reconstructs the new buffer from old and a chunk sequence.
// A Copy chunk referencing bytes outside old is a CopyOutOfRange error.
func Apply(old []byte, chunks []patchformat.DiffChunk) ([]byte, error) {
	var total uint64
	for _, c := range chunks {
		switch c.Kind {
		case patchformat.ChunkCopy:
			total += c.Length
		case patchformat.ChunkInsert:
			total += uint64(len(c.Data))
		}
	}

	result := make([]byte, 0, total)

	for _, c := range chunks {
		switch c.Kind {
		case patchformat.ChunkCopy:
			start := c.Offset
			end := c.Offset + c.Length
			if end > uint64(len(old)) {
				return nil, fmt.Errorf("%w: copy [%d,%d) exceeds old buffer of %d bytes", patchformat.ErrCopyOutOfRange, start, end, len(old))
			}
			result = append(result, old[start:end]...)
		case patchformat.ChunkInsert:
			result = append(result, c.Data...)
		}
	}

	return result, nil
}
