package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps objects on the local filesystem as <root>/<bucket>/<key>.
// Used for local development and tests.
type FSStore struct {
	basePath string
}

// NewFSStore creates a new FSStore and ensures the base directory exists.
func NewFSStore(basePath string) (*FSStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &FSStore{basePath: basePath}, nil
}

func (s *FSStore) objectPath(bucket, key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if bucket == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object location %q/%q", bucket, key)
	}
	return filepath.Join(s.basePath, bucket, clean), nil
}

// Upload stores data, creating intermediate directories. The content type is not persisted.
func (s *FSStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("failed to write object file: %w", err)
	}
	return nil
}

// Download reads the stored object.
func (s *FSStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object file: %w", err)
	}
	return data, nil
}
