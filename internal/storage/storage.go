// Package storage abstracts the media object store used for uploaded images.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage is the narrow contract the services depend on. Put persists an
// object and returns its public URL; Delete is best-effort and callers must
// treat failures as non-fatal to already-committed database state.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// FileStorage stores media objects under a local directory, mirroring the
// object-store layout (keys with slash-separated prefixes).
type FileStorage struct {
	root    string
	baseURL string
}

// NewFileStorage returns a FileStorage rooted at dir, serving under baseURL.
func NewFileStorage(dir, baseURL string) *FileStorage {
	if baseURL == "" {
		baseURL = "/media"
	}
	return &FileStorage{root: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Root returns the directory media objects are stored under.
func (s *FileStorage) Root() string {
	return s.root
}

func (s *FileStorage) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

func (s *FileStorage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStorage) URL(key string) string {
	return s.baseURL + "/" + key
}

// resolve joins key under root and rejects path traversal.
func (s *FileStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	cleaned := filepath.Clean("/" + filepath.FromSlash(key))
	path := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(path, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return path, nil
}
