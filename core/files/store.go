// Package files provides the file-content providers that transactions
// execute against.
package files

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrFileExists      = errors.New("file already exists")
	ErrPathTraversal   = errors.New("path traversal detected")
	ErrOutsideBoundary = errors.New("path outside allowed boundary")
	ErrFileTooLarge    = errors.New("file size exceeds limit")
)

// Store is the file-content provider mutated by transaction execution.
// Paths are opaque keys; implementations decide how they map to storage.
type Store interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Exists(path string) (bool, error)
}

// MemStore is a map-backed Store.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

// NewMemStoreWith seeds a MemStore with the given contents.
func NewMemStoreWith(contents map[string]string) *MemStore {
	s := NewMemStore()
	for path, content := range contents {
		s.files[path] = []byte(content)
	}
	return s
}

func (s *MemStore) Read(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return cloneBytes(data), nil
}

func (s *MemStore) Write(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[path] = cloneBytes(data)
	return nil
}

func (s *MemStore) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[path]; !ok {
		return ErrFileNotFound
	}
	delete(s.files, path)
	return nil
}

func (s *MemStore) Rename(oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.files[oldPath]
	if !ok {
		return ErrFileNotFound
	}
	if _, exists := s.files[newPath]; exists {
		return ErrFileExists
	}
	delete(s.files, oldPath)
	s.files[newPath] = data
	return nil
}

func (s *MemStore) Exists(path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[path]
	return ok, nil
}

// Paths returns the stored paths in sorted order.
func (s *MemStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	result := make([]byte, len(b))
	copy(result, b)
	return result
}
