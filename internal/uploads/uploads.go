package uploads

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// Store abstracts where uploaded images live. Keys are flat file names; no
// backend interprets slashes in a key.
type Store interface {
	// Save streams the content to the backend under key and returns the key.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Open returns the stored bytes. ErrNotFound when the key is unknown.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove deletes the stored object.
	Remove(ctx context.Context, key string) error
}

var (
	// ErrNotFound indicates no object is stored under the requested key.
	ErrNotFound = errors.New("upload not found")
	// ErrBadKey indicates a key that could escape the upload namespace.
	ErrBadKey = errors.New("invalid upload key")
)

// Sanitize reduces a client-supplied file name to a safe flat name: the base
// name only, with anything outside [A-Za-z0-9._-] replaced by underscores.
func Sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

// validKey rejects keys that contain path separators or traversal components.
func validKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, "/\\")
}
