package patchformat

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// WriteContainer writes m to w as a patch container: the 8-byte magic header
// followed by a Zstandard-compressed encoding of m. SpeedDefault approximates
// zstd level 3, the nearest of klauspost's four speed tiers.
func WriteContainer(w io.Writer, m PatchManifest) error {
	if _, err := io.WriteString(w, Magic); err != nil {
		return fmt.Errorf("writing patch header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("initializing patch compressor: %w", err)
	}

	if err := Encode(enc, m); err != nil {
		enc.Close()
		return fmt.Errorf("encoding patch manifest: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing patch compressor: %w", err)
	}

	return nil
}

// ReadContainer reads a patch container from r: validates the magic header,
// then streams the Zstandard-decompressed body directly into the manifest
// decoder, never materializing the full decompressed payload at once.
func ReadContainer(r io.Reader) (PatchManifest, error) {
	header := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return PatchManifest{}, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if !bytes.Equal(header, []byte(Magic)) {
		return PatchManifest{}, ErrBadMagic
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return PatchManifest{}, fmt.Errorf("initializing patch decompressor: %w", err)
	}
	defer dec.Close()

	m, err := Decode(dec)
	if err != nil {
		return PatchManifest{}, err
	}

	if m.Version != FormatVersion {
		return PatchManifest{}, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, m.Version, FormatVersion)
	}

	return m, nil
}
