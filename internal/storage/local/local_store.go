// Package local resolves file references against a directory on disk.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"paperledger/internal/port"
)

// Store serves files from the uploads directory shared with the OCR service.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

var _ port.FileStore = (*Store)(nil)

// Resolve maps ref to a path. Absolute references are used as-is; relative
// references cannot escape the root.
func (s *Store) Resolve(ref string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Join(s.root, filepath.Clean(string(filepath.Separator)+ref))
}

func (s *Store) Localize(_ context.Context, ref string) (string, func(), error) {
	if ref == "" {
		return "", func() {}, errors.New("empty file reference")
	}
	return s.Resolve(ref), func() {}, nil
}

func (s *Store) Exists(_ context.Context, ref string) (bool, error) {
	_, err := os.Stat(s.Resolve(ref))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("localStore.Exists: %w", err)
	}
}
