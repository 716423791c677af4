package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/scaffold/internal/logging"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	if s, ok := m[path]; ok {
		return []byte(s), nil
	}
	return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
}

func (m memFS) Stat(path string) (fs.FileInfo, error) {
	return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
}

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings(SettingsSource{FS: memFS{}, Dir: "/cfg"})
	require.NoError(t, err)

	want := DefaultSettings()
	want.ConfigDir = "/cfg"
	assert.Equal(t, want, s)
}

func TestLoadSettings_File(t *testing.T) {
	fsys := memFS{
		"/cfg/settings.toml": `
[logging]
level = "debug"

[watch]
enabled = false
debounce = "250ms"

[app]
frameRate = 60
`,
	}

	s, err := LoadSettings(SettingsSource{FS: fsys, Dir: "/cfg"})
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, s.LogLevel)
	assert.False(t, s.Watch)
	assert.Equal(t, 250*time.Millisecond, s.Debounce)
	assert.Equal(t, 60, s.FrameRate)
	assert.Equal(t, "dark", s.Theme)
}

func TestLoadSettings_EnvOverridesFile(t *testing.T) {
	fsys := memFS{"/cfg/settings.toml": "[app]\ntheme = \"light\"\nframeRate = 60\n"}
	t.Setenv("SCAFFOLD_THEME", "solarized")
	t.Setenv("SCAFFOLD_DEBOUNCE", "40")
	t.Setenv("SCAFFOLD_LENIENT", "yes")

	s, err := LoadSettings(SettingsSource{FS: fsys, Dir: "/cfg"})
	require.NoError(t, err)
	assert.Equal(t, "solarized", s.Theme)
	assert.Equal(t, 60, s.FrameRate)
	assert.Equal(t, 40*time.Millisecond, s.Debounce)
	assert.True(t, s.Lenient)
}

func TestLoadSettings_ConfigDirFromEnv(t *testing.T) {
	fsys := memFS{"/other/settings.toml": "[app]\ntheme = \"light\"\n"}
	t.Setenv("SCAFFOLD_CONFIG_DIR", "/other")

	s, err := LoadSettings(SettingsSource{FS: fsys, Dir: "/cfg"})
	require.NoError(t, err)
	assert.Equal(t, "/other", s.ConfigDir)
	assert.Equal(t, "light", s.Theme)
}

func TestLoadSettings_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SCAFFOLD_LOG_LEVEL=warn\nSCAFFOLD_THEME=dotenv\n"), 0o644))
	t.Setenv("SCAFFOLD_THEME", "process")

	s, err := LoadSettings(SettingsSource{FS: memFS{}, Dir: "/cfg", DotEnv: []string{envFile, filepath.Join(dir, "missing.env")}})
	require.NoError(t, err)
	assert.Equal(t, logging.LevelWarn, s.LogLevel)
	assert.Equal(t, "process", s.Theme)
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		is   error
	}{
		{"wrong type", "[watch]\nenabled = \"sometimes\"\n", ErrTypeMismatch},
		{"zero frame rate", "[app]\nframeRate = 0\n", nil},
		{"bad duration", "[watch]\ndebounce = \"soon\"\n", nil},
		{"invalid toml", "[app\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(SettingsSource{FS: memFS{"/cfg/settings.toml": tt.toml}, Dir: "/cfg"})
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestSettings_Options(t *testing.T) {
	s := DefaultSettings()
	s.ConfigDir = "/cfg"
	s.Lenient = true

	m := New(append(s.Options(), WithLogger(logging.Nop()))...)
	defer m.Close()

	assert.Equal(t, "/cfg", m.Dir())
	assert.True(t, m.enableWatcher)
	assert.True(t, m.lenient)
	assert.Equal(t, 100*time.Millisecond, m.debounce)
}
