package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-directory file listing extra ignore patterns.
const IgnoreFileName = ".arrisignore"

// defaultIgnorePatterns keep clutter that photo tools leave in picture
// folders out of the file list. They apply regardless of config or the
// ignore file.
var defaultIgnorePatterns = []string{
	// temporary copies written while a rotation is in progress
	".arris-*",
	// macOS resource forks
	"._*",
	// previews generated by Synology Photos
	"SYNOPHOTO_THUMB_*",
	"@eaDir/",
	// originals kept by Picasa after an edit
	".picasaoriginals/",
}

// ignoreRule is one parsed pattern of an ignore list.
type ignoreRule struct {
	glob string
	// inPath rules match the path relative to the directory being listed;
	// the others match the last element only.
	inPath bool
	// dirOnly rules, written with a trailing '/', match directories.
	dirOnly bool
}

func (r ignoreRule) match(relativePath string) bool {
	subject := filepath.Base(relativePath)
	if r.inPath {
		subject = filepath.ToSlash(relativePath)
	}
	ok, err := filepath.Match(r.glob, subject)
	// Malformed patterns never match.
	return err == nil && ok
}

// IgnoreMatcher decides which pictures and folders a listing skips.
// A pattern without '/' matches a name. A pattern ending in '/' matches
// folders only. Any other pattern with '/' matches the path relative to the
// listed directory. A skipped folder hides everything below it.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	var rules []ignoreRule
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		glob, dirOnly := strings.CutSuffix(raw, "/")
		if glob == "" {
			continue
		}
		rules = append(rules, ignoreRule{
			glob:    glob,
			inPath:  strings.Contains(glob, "/"),
			dirOnly: dirOnly,
		})
	}
	return &IgnoreMatcher{rules: rules}
}

// Match reports whether the picture at relativePath is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if relativePath == "" {
		return false
	}
	for _, r := range m.rules {
		if !r.dirOnly && r.match(relativePath) {
			return true
		}
	}
	return false
}

// MatchDir reports whether the folder at relativePath is skipped during a
// recursive listing.
func (m *IgnoreMatcher) MatchDir(relativePath string) bool {
	if relativePath == "" {
		return false
	}
	for _, r := range m.rules {
		if r.match(relativePath) {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads an ignore file and returns the raw pattern strings.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
