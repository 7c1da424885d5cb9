package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes media files under a directory on disk. The files are
// served by the HTTP server at urlPrefix, so ResolveURL returns
// site-relative paths.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocal(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir is the directory the HTTP server should serve at the URL prefix.
func (l *LocalStore) Dir() string {
	return l.dir
}

func (l *LocalStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := validKey(key); err != nil {
		return err
	}

	dest := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("write file %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", key, err)
	}
	return nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, filepath.FromSlash(key))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file %s: %w", key, err)
	}
	return nil
}

func (l *LocalStore) ResolveURL(key string) string {
	return l.urlPrefix + "/" + key
}
