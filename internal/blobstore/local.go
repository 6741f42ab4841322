package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore is a filesystem-backed implementation of Store rooted at Dir.
// Writes are atomic per path: data is staged to a sibling temp file and
// renamed into place, so readers never observe a partially written blob.
type LocalStore struct {
	Dir string
}

// Compile-time check that LocalStore implements Store.
var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a filesystem-backed store rooted at dir. The
// directory is created if it does not already exist.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root %q: %w", dir, err)
	}
	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) resolve(path string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(path))
}

// FileExists implements Store.
func (s *LocalStore) FileExists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(s.resolve(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ReadToBytes implements Store.
func (s *LocalStore) ReadToBytes(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return data, err
}

// ReadRange implements Store.
func (s *LocalStore) ReadRange(_ context.Context, path string, start, end int64) ([]byte, error) {
	f, err := os.Open(s.resolve(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	if end > info.Size() {
		end = info.Size()
	}
	if start >= end {
		return []byte{}, nil
	}
	buf := make([]byte, end-start)
	if _, err := f.ReadAt(buf, start); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteBytes implements Store. It stages the payload in a uniquely named
// temp file beside the destination, then renames it into place; rename is
// atomic on POSIX filesystems and on NTFS for same-volume targets.
func (s *LocalStore) WriteBytes(_ context.Context, path string, data []byte) error {
	dest := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("blobstore: create parent dir for %q: %w", path, err)
	}
	tmp := dest + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("blobstore: stage %q: %w", path, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("blobstore: commit %q: %w", path, err)
	}
	return nil
}

// List implements Store. It walks the store root and returns every file
// path (relative, slash-separated) that begins with prefix.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(s.Dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasSuffix(rel, ".tmp") || strings.Contains(rel, ".tmp-") {
			return nil
		}
		if strings.HasPrefix(rel, prefix) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
