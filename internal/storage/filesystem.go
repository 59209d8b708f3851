package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fleveque/thumbnail-service/internal/model"
)

// FileSystemStore is an ObjectStore rooted at a local directory. Used for
// local development when storage.provider is "filesystem"; object paths
// map one-to-one onto files under baseDir.
type FileSystemStore struct {
	baseDir string
	baseURL string
}

// NewFileSystemStore creates the base directory if needed.
func NewFileSystemStore(baseDir, baseURL string) (*FileSystemStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating storage directory: %v", model.ErrConfiguration, err)
	}
	return &FileSystemStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// objectPath resolves path under baseDir, refusing anything that escapes it.
func (fs *FileSystemStore) objectPath(path string) (string, error) {
	full := filepath.Join(fs.baseDir, filepath.FromSlash(path))
	rel, err := filepath.Rel(fs.baseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: invalid object path %q", model.ErrStorage, path)
	}
	return full, nil
}

// Write stores data at path. The MIME type is implied by the extension on disk.
func (fs *FileSystemStore) Write(ctx context.Context, path string, data []byte, _ model.MimeType) error {
	full, err := fs.objectPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("%w: creating directory: %v", model.ErrStorage, err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", model.ErrStorage, path, err)
	}
	return nil
}

// PublicURL returns baseURL/path for an existing object.
func (fs *FileSystemStore) PublicURL(ctx context.Context, path string) (string, error) {
	full, err := fs.objectPath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(full); err != nil {
		return "", fmt.Errorf("%w: %s: %v", model.ErrStorage, path, ErrNotFound)
	}
	return fs.baseURL + "/" + path, nil
}

// Read returns the stored bytes.
func (fs *FileSystemStore) Read(path string) ([]byte, error) {
	full, err := fs.objectPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
