package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nutriscan/backend/internal/domain"
)

// LocalStore keeps images as files below a root directory. Paths are
// relative to the root and can never escape it.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

// Read returns the bytes stored at path or ErrImageNotFound
func (s *LocalStore) Read(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrImageNotFound, path)
		}
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return data, nil
}

// Put writes data under name and returns the relative path
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	full, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image %s: %w", name, err)
	}

	rel, err := filepath.Rel(s.root, full)
	if err != nil {
		return "", fmt.Errorf("failed to resolve image path: %w", err)
	}
	log.Printf("[STORAGE] Stored %d bytes at %s", len(data), rel)
	return filepath.ToSlash(rel), nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("%w: empty image path", domain.ErrInvalidRequest)
	}
	return filepath.Join(s.root, clean), nil
}

// ObjectName builds a unique storage name below prefix, keeping the
// extension of the original file name.
func ObjectName(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 8 {
		ext = ""
	}
	return fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), ext)
}
