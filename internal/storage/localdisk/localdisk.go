// Package localdisk provides a storage backend that writes photo files to
// the local filesystem. Files are served back by the HTTP server under
// the /photos/ prefix.
package localdisk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/roamio/roamio/internal/storage"
)

// Storage implements storage.Storage on a local directory.
type Storage struct {
	root    string
	baseURL string
}

// New creates a local-disk storage rooted at dir. The directory is
// created if it does not exist.
func New(dir, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{root: dir, baseURL: baseURL}, nil
}

// resolve maps a key to an absolute path under the storage root,
// rejecting keys that would escape it.
func (s *Storage) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return path, nil
}

// Upload writes the file bytes to disk and returns the public URL.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	path, err := s.resolve(input.Key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create photo file: %w", err)
	}

	if _, err := io.Copy(f, input.Data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write photo file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close photo file: %w", err)
	}

	return &storage.UploadResult{
		Key: input.Key,
		URL: fmt.Sprintf("%s/photos/%s", s.baseURL, input.Key),
	}, nil
}

// Delete removes the file for the given key.
func (s *Storage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", key)
		}
		return fmt.Errorf("delete photo file: %w", err)
	}
	return nil
}

// GetURL returns the public URL for the given key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not found: %s", key)
	}
	return fmt.Sprintf("%s/photos/%s", s.baseURL, key), nil
}
