package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Disk stores uploads as plain files in a single directory.
type Disk struct {
	dir string
}

// NewDisk creates the upload directory when missing and returns a disk store.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if !validKey(key) {
		return "", ErrBadKey
	}
	f, err := os.Create(filepath.Join(d.dir, key))
	if err != nil {
		return "", fmt.Errorf("create upload %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write upload %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload %s: %w", key, err)
	}
	return key, nil
}

func (d *Disk) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !validKey(key) {
		return nil, ErrBadKey
	}
	f, err := os.Open(filepath.Join(d.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (d *Disk) Remove(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrBadKey
	}
	if err := os.Remove(filepath.Join(d.dir, key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
