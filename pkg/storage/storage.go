package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scheme prefixes storage-relative references recorded in run results.
const Scheme = "storage://"

// Storage resolves paths under a single local root and writes run
// artifacts there. References handed to callers are storage:// URIs so
// the root can move without rewriting rows.
type Storage struct {
	root string
}

// New resolves the root to an absolute path and ensures it exists.
func New(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Storage{root: abs}, nil
}

// Root returns the absolute storage root.
func (s *Storage) Root() string {
	return s.root
}

// Healthy reports whether the root is present and writable.
func (s *Storage) Healthy() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage root %s is not a directory", s.root)
	}
	probe, err := os.CreateTemp(s.root, ".health-*")
	if err != nil {
		return fmt.Errorf("storage root not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}

// WriteArtifact writes data at relPath under the root and returns its
// storage:// reference. relPath must stay inside the root.
func (s *Storage) WriteArtifact(relPath string, data []byte) (string, error) {
	full, err := s.Resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return Scheme + filepath.ToSlash(relPath), nil
}

// Resolve maps a relative path or storage:// URI to an absolute path,
// rejecting traversal out of the root.
func (s *Storage) Resolve(ref string) (string, error) {
	rel := strings.TrimPrefix(ref, Scheme)
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if full != s.root && !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q escapes the storage root", ref)
	}
	return full, nil
}
