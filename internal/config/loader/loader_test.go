package loader

import (
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/settings.toml", `
[logging]
level = "debug"

[watch]
enabled = false
debounce = "250ms"

[app]
frameRate = 60
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/settings.toml").Load()
	require.NoError(t, err)

	level, ok := GetPath(config, "logging.level")
	require.True(t, ok)
	assert.Equal(t, "debug", level)

	enabled, _ := GetPath(config, "watch.enabled")
	assert.Equal(t, false, enabled)

	rate, _ := GetPath(config, "app.frameRate")
	assert.Equal(t, int64(60), rate)
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/missing.toml").Load()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/invalid.toml", "[logging\nlevel = 1\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/invalid.toml").Load()
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/invalid.toml", pe.Path)
	assert.Positive(t, pe.Line)
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := (&TOMLLoader{}).LoadFromReader(strings.NewReader("theme = \"light\"\nfontSize = 12\n"))
	require.NoError(t, err)
	assert.Equal(t, "light", config["theme"])
	assert.Equal(t, int64(12), config["fontSize"])

	config, err = (&TOMLLoader{}).LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.NotNil(t, config)
}

func TestEncodeTOML_RoundTrip(t *testing.T) {
	in := map[string]any{
		"window": map[string]any{
			"width": int64(1280),
			"title": "Main: editor",
			"tags":  []any{"left", "pinned"},
		},
		"version": int64(2),
	}

	data, err := EncodeTOML(in)
	require.NoError(t, err)

	out, err := (&TOMLLoader{}).LoadFromReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseError_Error(t *testing.T) {
	assert.Equal(t, "parse error in a.toml at line 2, column 3: bad",
		(&ParseError{Path: "a.toml", Line: 2, Column: 3, Message: "bad"}).Error())
	assert.Equal(t, "parse error in a.toml at line 2: bad",
		(&ParseError{Path: "a.toml", Line: 2, Message: "bad"}).Error())
	assert.Equal(t, "parse error in a.toml: bad",
		(&ParseError{Path: "a.toml", Message: "bad"}).Error())
}
