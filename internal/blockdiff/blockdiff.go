// Package blockdiff implements the rsync-style content differ and its
// matching applier: block signatures over the old buffer, a rolling hash
// scan over the new buffer, and strong-hash confirmation of candidate
// matches.
package blockdiff

import (
	"github.com/zeebo/blake3"

	"github.com/Vadimus1983/patcher/internal/patchformat"
	"github.com/Vadimus1983/patcher/internal/rollinghash"
)

// BlockSize is the fixed non-overlapping block size used for both old-buffer
// signatures and the new-buffer scan window.
const BlockSize = 4096

type blockSignature struct {
	rollingHash uint32
	strongHash  [32]byte
	offset      uint64
}

func strongHash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// Compute produces the ordered chunk sequence that turns old into new. The
// returned chunks never alias old or newData — callers are free to release
// (e.g. munmap) either buffer as soon as Compute returns.
func Compute(old, newData []byte) []patchformat.DiffChunk {
	if len(old) == 0 {
		if len(newData) == 0 {
			return nil
		}
		return []patchformat.DiffChunk{{Kind: patchformat.ChunkInsert, Data: append([]byte(nil), newData...)}}
	}

	sigs := buildSignatures(old)
	table := buildHashTable(sigs)

	return matchBlocks(old, newData, table, sigs)
}

func buildSignatures(data []byte) []blockSignature {
	numBlocks := (len(data) + BlockSize - 1) / BlockSize
	sigs := make([]blockSignature, 0, numBlocks)

	for i := 0; i < numBlocks; i++ {
		start := i * BlockSize
		end := start + BlockSize
		if end > len(data) {
			end = len(data)
		}
		block := data[start:end]

		rh := rollinghash.New()
		rh.Init(block)

		sigs = append(sigs, blockSignature{
			rollingHash: rh.Digest(),
			strongHash:  strongHash(block),
			offset:      uint64(start),
		})
	}

	return sigs
}

func buildHashTable(sigs []blockSignature) map[uint32][]int {
	table := make(map[uint32][]int, len(sigs))
	for idx, sig := range sigs {
		table[sig.rollingHash] = append(table[sig.rollingHash], idx)
	}
	return table
}

func matchBlocks(old, newData []byte, table map[uint32][]int, sigs []blockSignature) []patchformat.DiffChunk {
	if len(newData) < BlockSize {
		return []patchformat.DiffChunk{{Kind: patchformat.ChunkInsert, Data: append([]byte(nil), newData...)}}
	}

	var chunks []patchformat.DiffChunk
	var insertBuf []byte

	rh := rollinghash.New()
	rh.Init(newData[:BlockSize])

	pos := 0
	for pos+BlockSize <= len(newData) {
		digest := rh.Digest()

		if offset, length, ok := findMatch(digest, newData[pos:pos+BlockSize], old, table, sigs); ok {
			if len(insertBuf) > 0 {
				chunks = append(chunks, patchformat.DiffChunk{Kind: patchformat.ChunkInsert, Data: insertBuf})
				insertBuf = nil
			}
			chunks = append(chunks, patchformat.DiffChunk{Kind: patchformat.ChunkCopy, Offset: offset, Length: length})

			pos += int(length)

			if pos+BlockSize <= len(newData) {
				rh = rollinghash.New()
				rh.Init(newData[pos : pos+BlockSize])
			}
		} else {
			insertBuf = append(insertBuf, newData[pos])
			pos++

			if pos+BlockSize <= len(newData) {
				rh.Rotate(newData[pos-1], newData[pos+BlockSize-1])
			}
		}
	}

	if pos < len(newData) {
		insertBuf = append(insertBuf, newData[pos:]...)
	}
	if len(insertBuf) > 0 {
		chunks = append(chunks, patchformat.DiffChunk{Kind: patchformat.ChunkInsert, Data: insertBuf})
	}

	return chunks
}

// findMatch looks up rollingDigest among old's block signatures and confirms
// the first candidate whose strong hash matches. No extension beyond one
// block, no second-best tracking — the first strong-hash match wins.
func findMatch(rollingDigest uint32, newBlock []byte, old []byte, table map[uint32][]int, sigs []blockSignature) (offset, length uint64, ok bool) {
	candidates, present := table[rollingDigest]
	if !present {
		return 0, 0, false
	}

	newStrong := strongHash(newBlock)

	for _, idx := range candidates {
		sig := sigs[idx]
		if sig.strongHash == newStrong {
			end := int(sig.offset) + BlockSize
			if end > len(old) {
				end = len(old)
			}
			return sig.offset, uint64(end - int(sig.offset)), true
		}
	}

	return 0, 0, false
}
