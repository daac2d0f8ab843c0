package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps blobs on the local filesystem, one directory per owner
// under a single root. Files are stored under their original filename.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed and returns the store.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// path validates the key pair and resolves it below the root. Filenames with
// path separators or traversal elements are rejected rather than cleaned.
func (s *DiskStore) path(owner, filename string) (string, error) {
	if owner == "" || filename == "" {
		return "", fmt.Errorf("empty blob key")
	}
	if filename != filepath.Base(filename) || strings.ContainsAny(filename, "/\\") {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return filepath.Join(s.root, owner, filename), nil
}

func (s *DiskStore) Create(owner, filename string, data []byte) error {
	path, err := s.path(owner, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create owner directory: %w", err)
	}
	// O_EXCL is the concurrency primitive: the loser of a simultaneous
	// create observes ErrExists instead of clobbering the winner's bytes.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("create blob: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close blob: %w", err)
	}
	return nil
}

func (s *DiskStore) Read(owner, filename string) ([]byte, error) {
	path, err := s.path(owner, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

func (s *DiskStore) Remove(owner, filename string) error {
	path, err := s.path(owner, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

func (s *DiskStore) RemoveAll(owner string) error {
	if owner == "" {
		return fmt.Errorf("empty owner")
	}
	if err := os.RemoveAll(filepath.Join(s.root, owner)); err != nil {
		return fmt.Errorf("remove owner directory: %w", err)
	}
	return nil
}
