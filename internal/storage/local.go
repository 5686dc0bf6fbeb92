package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage keeps files on disk under basePath/{folder}
type LocalStorage struct {
	basePath  string
	publicURL string
}

var _ Provider = (*LocalStorage)(nil)

// NewLocalStorage creates the base directory and returns a LocalStorage.
// publicURL is the prefix under which basePath is served, e.g. http://host/static.
func NewLocalStorage(basePath, publicURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return &LocalStorage{basePath: absPath, publicURL: publicURL}, nil
}

// BasePath returns the directory that must be served at the public URL
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

func (s *LocalStorage) path(folder, filename string) string {
	return filepath.Join(s.basePath, filepath.Base(folder), filepath.Base(filename))
}

// Save writes r to a temp file and renames it into place
func (s *LocalStorage) Save(ctx context.Context, r io.Reader, originalName, folder string) (string, error) {
	dir := filepath.Join(s.basePath, filepath.Base(folder))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filename := newFilename(originalName)
	if err := os.Rename(tmpPath, filepath.Join(dir, filename)); err != nil {
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return filename, nil
}

// Delete removes a stored file. Removing a missing file is not an error.
func (s *LocalStorage) Delete(ctx context.Context, filename, folder string) error {
	err := os.Remove(s.path(folder, filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(folder, filename string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, folder, filename)
}
