// Package pathutil enforces the wire path convention for patch paths:
// UTF-8, forward-slash separated, relative, no "." or ".." segments, no
// empty components. Adapted from the path checks in internal/validate and
// the normalization in internal/ziputil.
package pathutil

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Vadimus1983/patcher/internal/patchformat"
)

// Validate checks that p satisfies the wire path convention. It does not
// normalize — a path that fails any check is rejected outright rather than
// silently repaired, since a patch's paths must match byte-for-byte between
// builder and applier.
func Validate(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", patchformat.ErrInvalidPath)
	}
	if !utf8.ValidString(p) {
		return fmt.Errorf("%w: %q", patchformat.ErrNonUtf8Path, p)
	}
	if strings.Contains(p, "\\") {
		return fmt.Errorf("%w: backslash in %q, expected forward slashes", patchformat.ErrInvalidPath, p)
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w: %q must not start with a slash", patchformat.ErrInvalidPath, p)
	}
	if len(p) > 1 && p[1] == ':' {
		return fmt.Errorf("%w: %q looks like a drive-qualified path", patchformat.ErrInvalidPath, p)
	}

	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "":
			return fmt.Errorf("%w: %q has an empty path segment", patchformat.ErrInvalidPath, p)
		case ".":
			return fmt.Errorf("%w: %q contains a '.' segment", patchformat.ErrInvalidPath, p)
		case "..":
			return fmt.Errorf("%w: %q contains a '..' segment", patchformat.ErrInvalidPath, p)
		}
	}

	return nil
}

// ToWire normalizes an OS-native relative path (as produced by filepath.Walk)
// into the wire convention: forward slashes, no leading slash.
func ToWire(osRelative string) string {
	return strings.TrimLeft(strings.ReplaceAll(osRelative, `\`, "/"), "/")
}

// IsAncestorOrSelf reports whether ancestor is dir itself or a path prefix
// of dir at a '/' boundary. The applier's bulk-deletion planning does not
// call it; it walks each path's parent chain instead (hasDeletedAncestor).
func IsAncestorOrSelf(ancestor, dir string) bool {
	if ancestor == dir {
		return true
	}
	return strings.HasPrefix(dir, ancestor+"/")
}
