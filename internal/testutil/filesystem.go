package testutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"arris/internal/arris"
	arrisfs "arris/internal/fs"
)

// MockFile represents an image in the mock filesystem, including the tags
// embedded in it.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	XMP         *arris.Metadata
	EXIF        map[string]string
	// Rotation is the clockwise rotation applied by the mock transformer.
	Rotation  int
	Optimized bool
}

// MockFilesystemManager is an in-memory filesystem for testing. The mock
// codec and transformer operate on its files. Safe for concurrent use.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string]*MockFile
	// Unreadable directories make FindFiles fail with fs.ErrPermission.
	unreadable map[string]bool
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files:      make(map[string]*MockFile),
		unreadable: make(map[string]bool),
	}
}

// AddFile adds an image without metadata and returns it for further setup.
func (m *MockFilesystemManager) AddFile(path string) *MockFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &MockFile{
		Content:     []byte("image"),
		Permissions: 0600,
		ModTime:     time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		XMP:         &arris.Metadata{},
		EXIF:        make(map[string]string),
	}
	m.files[path] = f
	return f
}

// AddImage adds an image with the given XMP metadata.
func (m *MockFilesystemManager) AddImage(path string, md *arris.Metadata) *MockFile {
	f := m.AddFile(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if md != nil {
		f.XMP = md.Clone()
	}
	return f
}

// SetUnreadable makes FindFiles fail for dir.
func (m *MockFilesystemManager) SetUnreadable(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unreadable[dir] = true
}

// File returns the file at path, or nil.
func (m *MockFilesystemManager) File(path string) *MockFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[path]
}

// Paths returns all file paths, sorted.
func (m *MockFilesystemManager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// FindFiles lists the supported files under dir the way the OS manager does.
func (m *MockFilesystemManager) FindFiles(dir string, recursive bool) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unreadable[dir] {
		return nil, fmt.Errorf("reading directory %s: %w", dir, fs.ErrPermission)
	}

	var paths []string
	for p := range m.files {
		rel, err := filepath.Rel(dir, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if !arrisfs.IsSupported(p) {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) > 1 {
			if !recursive {
				continue
			}
			hidden := slices.ContainsFunc(parts, func(s string) bool { return strings.HasPrefix(s, ".") })
			if hidden {
				continue
			}
			for _, d := range parts[:len(parts)-1] {
				if m.unreadable[filepath.Join(dir, d)] {
					return nil, fmt.Errorf("walking directory: %w", fs.ErrPermission)
				}
			}
		}
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, nil
}

func (m *MockFilesystemManager) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok, nil
}

func (m *MockFilesystemManager) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

// lookup returns the file at path or an error wrapping fs.ErrNotExist.
// The caller must hold m.mu.
func (m *MockFilesystemManager) lookup(path string) (*MockFile, error) {
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return f, nil
}

// Compile-time check
var _ arris.FilesystemManager = (*MockFilesystemManager)(nil)
