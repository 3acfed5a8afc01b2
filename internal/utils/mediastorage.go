package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MediaStorage stores uploaded media (profile pictures, evaluation report
// files). Implemented by FileStorage (local disk) and R2Storage.
type MediaStorage interface {
	SaveFile(ctx context.Context, subDir, originalFilename string, reader io.Reader) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// FileStorage handles saving and deleting files on local disk. Used in dev
// and as the fallback when R2 credentials are not configured.
type FileStorage struct {
	BaseDir string // e.g. "./uploads"
}

func NewFileStorage(baseDir string) *FileStorage {
	return &FileStorage{BaseDir: baseDir}
}

// SaveFile writes the contents of reader to <BaseDir>/<subDir>/<uniqueFilename>.
// It returns the key (relative path from BaseDir) that can be stored in DB.
// subDir examples: "profile-pictures", "eval-reports/USR00ABCDE"
func (fs *FileStorage) SaveFile(_ context.Context, subDir, originalFilename string, reader io.Reader) (string, error) {
	dir := filepath.Join(fs.BaseDir, subDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	ext := filepath.Ext(originalFilename)
	uniqueName := NewUUID() + ext
	fullPath := filepath.Join(dir, uniqueName)

	out, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	// key is the path relative to BaseDir, using forward slashes
	return filepath.ToSlash(filepath.Join(subDir, uniqueName)), nil
}

// DeleteFile removes the file at <BaseDir>/<key>.
// It is safe to call if the file does not exist.
func (fs *FileStorage) DeleteFile(_ context.Context, key string) error {
	fullPath := filepath.Join(fs.BaseDir, filepath.FromSlash(key))
	err := os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}
