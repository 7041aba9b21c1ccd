package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBucket stores objects as files under root/bucket. Keys map to
// slash-separated relative paths.
type LocalBucket struct {
	dir string
}

var (
	_ Bucket  = (*LocalBucket)(nil)
	_ Ensurer = (*LocalBucket)(nil)
)

// NewLocalBucket returns the bucket directory root/bucket.
func NewLocalBucket(root, bucket string) (*LocalBucket, error) {
	if root == "" || bucket == "" {
		return nil, fmt.Errorf("local bucket needs a root and a bucket name")
	}
	return &LocalBucket{dir: filepath.Join(root, bucket)}, nil
}

// Dir returns the directory objects are stored in.
func (b *LocalBucket) Dir() string { return b.dir }

// EnsureBucket creates the bucket directory.
func (b *LocalBucket) EnsureBucket(context.Context) error {
	return os.MkdirAll(b.dir, 0o755)
}

// List implements Bucket.
func (b *LocalBucket) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(b.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(b.dir, p)
		if err != nil {
			return err
		}
		if key := filepath.ToSlash(rel); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Upload implements Bucket.
func (b *LocalBucket) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	full, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	f, err := os.Create(full)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Delete implements Bucket.
func (b *LocalBucket) Delete(_ context.Context, key string) error {
	full, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Close implements Bucket.
func (b *LocalBucket) Close() error { return nil }

// path maps key to a file, refusing keys that escape the bucket.
func (b *LocalBucket) path(key string) (string, error) {
	full := filepath.Join(b.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(b.dir, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return full, nil
}
