// Package storage implements the file-backed collection store: each
// named collection is one JSON file under a configured data directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store reads and writes whole collection files under a root directory.
type Store struct {
	root string // absolute path to the data directory
}

// NewStore creates a Store rooted at the given directory.
// The directory must already exist.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute data directory path.
func (s *Store) Root() string {
	return s.root
}

// filePath maps a collection name to its on-disk file and rejects
// names that would escape the data directory.
func (s *Store) filePath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: empty collection name")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Clean(name) {
		return "", fmt.Errorf("storage: invalid collection name: %s", name)
	}
	return filepath.Join(s.root, name+".json"), nil
}

// Read returns the raw bytes of a collection file.
func (s *Store) Read(name string) ([]byte, error) {
	path, err := s.filePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write atomically replaces a collection file: tmp file → fsync → rename.
// A failed write leaves the prior durable state untouched.
func (s *Store) Write(name string, data []byte) error {
	path, err := s.filePath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.root, ".laguz-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
