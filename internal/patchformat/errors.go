package patchformat

import "errors"

// Sentinel errors for a patch's failure modes. Callers use errors.Is against
// these; the human-readable context chain is built with
// fmt.Errorf("...: %w", ...) at each wrapping layer.
var (
	// ErrBadMagic: patch header mismatch.
	ErrBadMagic = errors.New("invalid patch file: missing magic header")
	// ErrUnsupportedVersion: manifest version != FormatVersion.
	ErrUnsupportedVersion = errors.New("unsupported patch version")
	// ErrDeserializationFailed: malformed compressed payload or manifest.
	ErrDeserializationFailed = errors.New("failed to deserialize patch manifest")
	// ErrHashMismatch: post-write (Add) or pre-write (Modify) hash check failed.
	ErrHashMismatch = errors.New("content hash mismatch")
	// ErrNonUtf8Path: a filesystem entry's path is not UTF-8.
	ErrNonUtf8Path = errors.New("path is not valid UTF-8")
	// ErrCopyOutOfRange: a Copy chunk references bytes outside the old file.
	ErrCopyOutOfRange = errors.New("copy chunk out of range")
	// ErrInvalidPath: a wire path violates the path convention.
	ErrInvalidPath = errors.New("invalid patch path")
)
