package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps generated report files on disk under one base directory.
// Relative paths are confined to that directory, since download paths arrive
// from user-supplied tokens.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data to the given relative path, creating parent directories
// as needed.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return relPath, nil
}

// Open returns a read-only handle for a stored file.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	return file, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStorage) Remove(relPath string) error {
	path, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete report file: %w", err)
	}
	return nil
}

// CleanupOlderThan deletes files whose modification time predates the TTL
// and returns the relative paths it removed.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var deleted []string
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, relErr := filepath.Rel(s.baseDir, path)
		if relErr != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup reports: %w", err)
	}
	return deleted, nil
}

func (s *LocalStorage) resolve(relPath string) (string, error) {
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid report path %q", relPath)
	}
	return filepath.Join(s.baseDir, clean), nil
}
