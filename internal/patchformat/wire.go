package patchformat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Encode writes m to w using a little-endian wire layout: uint32-length-
// prefixed strings and byte sequences, uint32-count-prefixed sequences,
// uint32 sum-type discriminants in declaration order. Grounded in the
// byte-tag-prefixed record shape of kovidgoyal/kitty's tools/rsync
// Operation.Serialize.
func Encode(w io.Writer, m PatchManifest) error {
	bw := bufio.NewWriter(w)

	if err := writeUint32(bw, m.Version); err != nil {
		return err
	}
	if err := writeUint32(bw, uint32(len(m.Operations))); err != nil {
		return err
	}
	for _, op := range m.Operations {
		if err := encodeOp(bw, op); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func encodeOp(w *bufio.Writer, op PatchOp) error {
	if err := writeUint32(w, uint32(op.Kind)); err != nil {
		return err
	}

	switch op.Kind {
	case OpCreateDir:
		return writeString(w, op.Path)
	case OpAddFile:
		if err := writeString(w, op.Path); err != nil {
			return err
		}
		if err := writeBytes(w, op.Data); err != nil {
			return err
		}
		return writeHash(w, op.ContentHash)
	case OpModifyFile:
		if err := writeString(w, op.Path); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(op.Diff))); err != nil {
			return err
		}
		for _, c := range op.Diff {
			if err := encodeChunk(w, c); err != nil {
				return err
			}
		}
		return writeHash(w, op.TargetContentHash)
	case OpDeleteFile:
		return writeString(w, op.Path)
	case OpDeleteDir:
		return writeString(w, op.Path)
	default:
		return fmt.Errorf("%w: unknown operation kind %d", ErrDeserializationFailed, op.Kind)
	}
}

func encodeChunk(w *bufio.Writer, c DiffChunk) error {
	if err := writeUint32(w, uint32(c.Kind)); err != nil {
		return err
	}
	switch c.Kind {
	case ChunkCopy:
		if err := writeUint64(w, c.Offset); err != nil {
			return err
		}
		return writeUint64(w, c.Length)
	case ChunkInsert:
		return writeBytes(w, c.Data)
	default:
		return fmt.Errorf("%w: unknown chunk kind %d", ErrDeserializationFailed, c.Kind)
	}
}

// Decode reads a PatchManifest from r. r is consumed incrementally — the
// caller may wrap a streaming decompressor directly, without materializing
// the full decompressed payload first.
func Decode(r io.Reader) (PatchManifest, error) {
	br := bufio.NewReaderSize(r, 256*1024)

	version, err := readUint32(br)
	if err != nil {
		return PatchManifest{}, err
	}

	count, err := readUint32(br)
	if err != nil {
		return PatchManifest{}, err
	}

	ops := make([]PatchOp, 0, count)
	for i := uint32(0); i < count; i++ {
		op, err := decodeOp(br)
		if err != nil {
			return PatchManifest{}, err
		}
		ops = append(ops, op)
	}

	return PatchManifest{Version: version, Operations: ops}, nil
}

func decodeOp(r *bufio.Reader) (PatchOp, error) {
	kindRaw, err := readUint32(r)
	if err != nil {
		return PatchOp{}, err
	}
	kind := OpKind(kindRaw)

	switch kind {
	case OpCreateDir:
		path, err := readString(r)
		if err != nil {
			return PatchOp{}, err
		}
		return CreateDirOp(path), nil
	case OpAddFile:
		path, err := readString(r)
		if err != nil {
			return PatchOp{}, err
		}
		data, err := readBytes(r)
		if err != nil {
			return PatchOp{}, err
		}
		hash, err := readHash(r)
		if err != nil {
			return PatchOp{}, err
		}
		return AddFileOp(path, data, hash), nil
	case OpModifyFile:
		path, err := readString(r)
		if err != nil {
			return PatchOp{}, err
		}
		chunkCount, err := readUint32(r)
		if err != nil {
			return PatchOp{}, err
		}
		chunks := make([]DiffChunk, 0, chunkCount)
		for i := uint32(0); i < chunkCount; i++ {
			c, err := decodeChunk(r)
			if err != nil {
				return PatchOp{}, err
			}
			chunks = append(chunks, c)
		}
		hash, err := readHash(r)
		if err != nil {
			return PatchOp{}, err
		}
		return ModifyFileOp(path, chunks, hash), nil
	case OpDeleteFile:
		path, err := readString(r)
		if err != nil {
			return PatchOp{}, err
		}
		return DeleteFileOp(path), nil
	case OpDeleteDir:
		path, err := readString(r)
		if err != nil {
			return PatchOp{}, err
		}
		return DeleteDirOp(path), nil
	default:
		return PatchOp{}, fmt.Errorf("%w: unknown operation kind %d", ErrDeserializationFailed, kindRaw)
	}
}

func decodeChunk(r *bufio.Reader) (DiffChunk, error) {
	kindRaw, err := readUint32(r)
	if err != nil {
		return DiffChunk{}, err
	}
	kind := ChunkKind(kindRaw)

	switch kind {
	case ChunkCopy:
		offset, err := readUint64(r)
		if err != nil {
			return DiffChunk{}, err
		}
		length, err := readUint64(r)
		if err != nil {
			return DiffChunk{}, err
		}
		return DiffChunk{Kind: ChunkCopy, Offset: offset, Length: length}, nil
	case ChunkInsert:
		data, err := readBytes(r)
		if err != nil {
			return DiffChunk{}, err
		}
		return DiffChunk{Kind: ChunkInsert, Data: data}, nil
	default:
		return DiffChunk{}, fmt.Errorf("%w: unknown chunk kind %d", ErrDeserializationFailed, kindRaw)
	}
}

// ---- primitive encode/decode helpers ----

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeBytes(w io.Writer, data []byte) error {
	if err := writeUint32(w, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func writeString(w io.Writer, s string) error {
	return writeBytes(w, []byte(s))
}

func writeHash(w io.Writer, h [32]byte) error {
	_, err := w.Write(h[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	return buf, nil
}

func readString(r io.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readHash(r io.Reader) ([32]byte, error) {
	var h [32]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return h, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	return h, nil
}
