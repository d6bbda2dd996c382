// Package horosafe holds the file and I/O guards used when figdiff writes
// artefacts named after remote data: path traversal checks, file-safe stems
// for Figma node IDs, and bounded reads of remote image bodies.
package horosafe

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxImageBody caps reference image downloads (32 MiB).
const MaxImageBody int64 = 32 << 20

// ErrPathTraversal is returned when a derived path escapes its base.
var ErrPathTraversal = errors.New("horosafe: path traversal detected")

// ErrTooLarge is returned by LimitedReadAll when the limit is exceeded.
var ErrTooLarge = errors.New("horosafe: body exceeds limit")

// SafePath joins base and name and verifies the result stays under base.
func SafePath(base, name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrPathTraversal
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+name))
	root := filepath.Clean(base)
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// FileStem maps a Figma node ID such as "12:345" or "I1:2;3:4" to a stem
// usable in file names on every platform. ':' becomes '-' and ';' becomes
// '_'. Any other rune outside [A-Za-z0-9], including '-', '_', '.' and 'x'
// itself, is written as x<hex>x, so distinct non-empty IDs give distinct
// stems and a stem never contains "..".
func FileStem(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r == ':':
			b.WriteByte('-')
		case r == ';':
			b.WriteByte('_')
		case isStemChar(r):
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "x%xx", r)
		}
	}
	if b.Len() == 0 {
		return "node"
	}
	return b.String()
}

// LimitedReadAll reads at most maxBytes from r and fails with ErrTooLarge
// beyond that.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxBytes)
	}
	return data, nil
}

func isStemChar(r rune) bool {
	return (r >= 'a' && r <= 'z' && r != 'x') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
