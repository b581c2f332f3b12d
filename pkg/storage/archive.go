package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive keeps rendered exports on disk under one directory.
type Archive struct {
	dir string
}

// NewArchive creates dir when missing.
func NewArchive(dir string) (*Archive, error) {
	if dir == "" {
		dir = "./exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Save writes data to name inside the archive and returns the full path.
// Names may not leave the archive directory.
func (a *Archive) Save(name string, data []byte) (string, error) {
	path, err := a.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export %s: %w", name, err)
	}
	return path, nil
}

// Prune removes files last modified before now-ttl and returns their names.
func (a *Archive) Prune(ttl time.Duration, now time.Time) ([]string, error) {
	cutoff := now.Add(-ttl)
	removed := make([]string, 0)
	err := filepath.WalkDir(a.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(a.dir, path)
		if err != nil {
			rel = path
		}
		removed = append(removed, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("prune exports: %w", err)
	}
	return removed, nil
}

// Dir is the archive root.
func (a *Archive) Dir() string { return a.dir }

func (a *Archive) resolve(name string) (string, error) {
	clean := filepath.Clean(name)
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid export name %q", name)
	}
	return filepath.Join(a.dir, clean), nil
}
