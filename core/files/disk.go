package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultMaxFileSize = 100 * 1024 * 1024
	DefaultCacheSize   = 256
)

type DiskConfig struct {
	Root        string
	MaxFileSize int64
	CacheSize   int
	Logger      *slog.Logger
}

// DiskStore is a Store rooted at a directory. Relative paths resolve
// against the root and nothing outside the root is reachable.
type DiskStore struct {
	root        string
	maxFileSize int64
	cache       *lru.Cache[string, []byte]
	logger      *slog.Logger
}

func NewDiskStore(cfg DiskConfig) (*DiskStore, error) {
	root, err := resolveRoot(cfg.Root)
	if err != nil {
		return nil, err
	}
	applyDiskDefaults(&cfg)

	cache, err := lru.New[string, []byte](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create read cache: %w", err)
	}

	return &DiskStore{
		root:        root,
		maxFileSize: cfg.MaxFileSize,
		cache:       cache,
		logger:      cfg.Logger,
	}, nil
}

func applyDiskDefaults(cfg *DiskConfig) {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}

func resolveRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("store root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("store root %s is not a directory", abs)
	}
	return filepath.Clean(abs), nil
}

func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) resolvePath(path string) (string, error) {
	if containsTraversal(path) {
		return "", ErrPathTraversal
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	resolved := filepath.Clean(path)
	if !isWithinRoot(resolved, s.root) {
		return "", ErrOutsideBoundary
	}
	return resolved, nil
}

func containsTraversal(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, part := range parts {
		if part == ".." {
			return true
		}
	}
	return false
}

func isWithinRoot(path, root string) bool {
	return strings.HasPrefix(path, root+string(filepath.Separator)) || path == root
}

func (s *DiskStore) Read(path string) ([]byte, error) {
	resolved, err := s.resolvePath(path)
	if err != nil {
		return nil, err
	}

	if data, ok := s.cache.Get(resolved); ok {
		return cloneBytes(data), nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, classifyNotExist(err)
	}
	s.cache.Add(resolved, cloneBytes(data))
	return data, nil
}

func (s *DiskStore) Write(path string, data []byte) error {
	if int64(len(data)) > s.maxFileSize {
		return ErrFileTooLarge
	}

	resolved, err := s.resolvePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(resolved, data, 0644); err != nil {
		s.cache.Remove(resolved)
		return err
	}

	s.cache.Add(resolved, cloneBytes(data))
	s.logger.Debug("file written", "path", resolved, "bytes", len(data))
	return nil
}

func (s *DiskStore) Remove(path string) error {
	resolved, err := s.resolvePath(path)
	if err != nil {
		return err
	}

	s.cache.Remove(resolved)
	if err := os.Remove(resolved); err != nil {
		return classifyNotExist(err)
	}

	s.logger.Debug("file removed", "path", resolved)
	return nil
}

func (s *DiskStore) Rename(oldPath, newPath string) error {
	src, err := s.resolvePath(oldPath)
	if err != nil {
		return err
	}
	dst, err := s.resolvePath(newPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dst); err == nil {
		return ErrFileExists
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	s.cache.Remove(src)
	s.cache.Remove(dst)
	if err := os.Rename(src, dst); err != nil {
		return classifyNotExist(err)
	}

	s.logger.Debug("file renamed", "from", src, "to", dst)
	return nil
}

func (s *DiskStore) Exists(path string) (bool, error) {
	resolved, err := s.resolvePath(path)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(resolved)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate drops any cached content for path.
func (s *DiskStore) Invalidate(path string) {
	resolved, err := s.resolvePath(path)
	if err != nil {
		return
	}
	s.cache.Remove(resolved)
}

func (s *DiskStore) cached(resolved string) bool {
	return s.cache.Contains(resolved)
}

func classifyNotExist(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return ErrFileNotFound
	}
	return err
}
