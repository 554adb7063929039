package fs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"arris/internal/arris"
)

// SupportedExtensions lists the image file extensions that are discovered,
// without the leading dot. Matching is case-insensitive.
var SupportedExtensions = []string{"cr2", "jpg", "jpeg", "rw2"}

// RawExtensions are the supported formats that cannot be rotated losslessly
// and only carry an orientation tag.
var RawExtensions = []string{"cr2", "rw2"}

// IsSupported reports whether name has a supported image extension.
func IsSupported(name string) bool {
	return hasExtension(name, SupportedExtensions)
}

// IsRaw reports whether name has a raw image extension.
func IsRaw(name string) bool {
	return hasExtension(name, RawExtensions)
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return ext != "" && slices.Contains(exts, ext)
}

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
type OSFilesystemManager struct {
	patterns []string
}

// NewOSFilesystemManager creates a filesystem manager that skips files
// matching the given ignore patterns, in addition to the patterns listed in
// a directory's .arrisignore file.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	return &OSFilesystemManager{patterns: ignorePatterns}
}

// FindFiles discovers the supported image files in dir, sorted by full
// path. A recursive search descends into subdirectories, skipping entries
// whose name starts with a dot. Symbolic links to regular files are
// included. An unreadable directory aborts the search.
func (m *OSFilesystemManager) FindFiles(dir string, recursive bool) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	matcher, err := m.matcher(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	if recursive {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if rel, err := filepath.Rel(root, p); err == nil && matcher.MatchDir(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if m.accept(root, p, d, matcher) {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, entry := range entries {
			p := filepath.Join(root, entry.Name())
			if m.accept(root, p, entry, matcher) {
				paths = append(paths, p)
			}
		}
	}

	slices.Sort(paths)
	return paths, nil
}

func (m *OSFilesystemManager) accept(root, p string, d fs.DirEntry, matcher *IgnoreMatcher) bool {
	if !IsSupported(d.Name()) {
		return false
	}
	if !d.Type().IsRegular() {
		if d.Type()&fs.ModeSymlink == 0 {
			return false
		}
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return false
		}
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return !matcher.Match(rel)
}

func (m *OSFilesystemManager) matcher(root string) (*IgnoreMatcher, error) {
	filePatterns, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	patterns := slices.Concat(defaultIgnorePatterns, m.patterns, filePatterns)
	return NewIgnoreMatcher(patterns), nil
}

// Exists reports whether path exists.
func (m *OSFilesystemManager) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// Remove deletes path. A file that is already gone is not an error.
func (m *OSFilesystemManager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Compile-time check that OSFilesystemManager implements arris.FilesystemManager interface
var _ arris.FilesystemManager = (*OSFilesystemManager)(nil)
