// Package storage saves and removes uploaded avatars and post medias.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Folders
const (
	FolderAvatars = "avatars"
	FolderMedias  = "medias"
)

// Upload limits
const (
	MaxAvatarSize   = 1 << 20
	MaxMediaSize    = 10 << 20
	MaxMediaPerPost = 5
)

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".bmp":  true,
}

// Provider stores files under a folder. Save returns a filename unique within the folder.
type Provider interface {
	Save(ctx context.Context, r io.Reader, originalName, folder string) (string, error)
	Delete(ctx context.Context, filename, folder string) error
	URL(folder, filename string) string
}

// newFilename keeps the lowercased extension of the uploaded name
func newFilename(originalName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}

// ValidateImage checks the extension and size of an uploaded image
func ValidateImage(fh *multipart.FileHeader, maxSize int64) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%s: only jpeg, jpg, png and bmp images are allowed", fh.Filename)
	}
	if fh.Size > maxSize {
		return fmt.Errorf("%s: file exceeds %d bytes", fh.Filename, maxSize)
	}
	return nil
}
