package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/dshills/scaffold/internal/serializer"
)

// YMLLoader loads state files written by the serializer into untyped maps.
// Sections become nested maps keyed by section name.
type YMLLoader struct {
	fs      FileSystem
	path    string
	lenient bool
}

// NewYMLLoader creates a loader for the state file at path.
func NewYMLLoader(path string) *YMLLoader {
	return &YMLLoader{fs: DefaultFS(), path: path}
}

// NewYMLLoaderWithFS creates a state file loader with a custom file system.
func NewYMLLoaderWithFS(fsys FileSystem, path string) *YMLLoader {
	return &YMLLoader{fs: fsys, path: path}
}

// Lenient makes the loader skip malformed lines.
func (l *YMLLoader) Lenient() *YMLLoader {
	l.lenient = true
	return l
}

// Load reads the configured path.
func (l *YMLLoader) Load() (map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom reads a specific path. A missing file yields nil, nil.
func (l *YMLLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state file %s: %w", path, err)
	}
	return serializer.Decode(path, data, l.options()...)
}

// LoadFromReader reads state file content from r.
func (l *YMLLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	return serializer.Decode("<reader>", data, l.options()...)
}

func (l *YMLLoader) options() []serializer.DocOption {
	if l.lenient {
		return []serializer.DocOption{serializer.WithLenient()}
	}
	return nil
}
