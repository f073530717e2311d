// Package content provides read access to the Markdown documents named by the
// Document Registry.
package content

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// Source defines how documents are loaded by registry path.
//
// Implementations:
//   - FSSource: any fs.FS (a docs directory on disk, or the embedded docs)
//   - MemorySource: in-memory map, for tests and generated content
type Source interface {
	// ReadFile reads the named document and returns its contents.
	// The name is the registry path (e.g., "guides/llm.md").
	ReadFile(name string) ([]byte, error)
}

// FSSource implements Source on top of an fs.FS
type FSSource struct {
	fsys fs.FS
}

// NewFSSource wraps an fs.FS
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// NewDirSource creates a Source rooted at a directory on disk
func NewDirSource(root string) (*FSSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open docs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path %s is not a directory", root)
	}
	return NewFSSource(os.DirFS(root)), nil
}

// ReadFile reads a document from the wrapped filesystem.
// Names escaping the root are rejected with fs.ErrInvalid.
func (s *FSSource) ReadFile(name string) ([]byte, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(s.fsys, cleaned)
}

// cleanName turns a registry path into a valid fs.FS name
func cleanName(name string) (string, error) {
	cleaned := path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "./"))
	if !fs.ValidPath(cleaned) || cleaned == "." {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return cleaned, nil
}
