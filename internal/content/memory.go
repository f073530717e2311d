package content

import (
	"io/fs"
	"sync"
)

// MemorySource implements Source with an in-memory map.
// It is safe for concurrent use.
type MemorySource struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySource creates an empty in-memory source
func NewMemorySource() *MemorySource {
	return &MemorySource{
		files: make(map[string][]byte),
	}
}

// AddFile stores a document under name, replacing any previous content
func (m *MemorySource) AddFile(name string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), content...)
}

// RemoveFile deletes a document
func (m *MemorySource) RemoveFile(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
}

// ReadFile returns a copy of the stored document, or fs.ErrNotExist
func (m *MemorySource) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, exists := m.files[name]
	if !exists {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), content...), nil
}
