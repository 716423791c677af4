package serializer

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the raw byte I/O a Document reads from and flushes to.
type Storage interface {
	// ReadFile returns the whole content of path. Missing files must be
	// reported with an error matching fs.ErrNotExist.
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces the content of path.
	WriteFile(path string, data []byte) error
}

// OSStorage implements Storage on the local file system. Writes go to a
// temporary file in the target directory which is then renamed over the
// target, so readers see either the old or the new content.
type OSStorage struct{}

// ReadFile reads the entire file at path.
func (OSStorage) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile atomically replaces path with data.
func (OSStorage) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// DefaultStorage returns the storage used when none is configured.
func DefaultStorage() Storage {
	return OSStorage{}
}

// MemStorage is an in-memory Storage, safe for concurrent use.
type MemStorage struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemStorage creates an empty in-memory storage.
func NewMemStorage() *MemStorage {
	return &MemStorage{files: make(map[string][]byte)}
}

// ReadFile returns a copy of the stored content.
func (m *MemStorage) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores a copy of data.
func (m *MemStorage) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[path] = append([]byte(nil), data...)
	return nil
}

// Remove deletes path. Missing paths are ignored.
func (m *MemStorage) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}
