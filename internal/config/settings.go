package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dshills/scaffold/internal/config/loader"
	"github.com/dshills/scaffold/internal/logging"
)

// SettingsFile is the name of the optional TOML settings file inside the
// configuration directory.
const SettingsFile = "settings.toml"

// Settings are the tool's own options, as opposed to application state.
type Settings struct {
	// ConfigDir is the directory holding the state files.
	ConfigDir string
	// LogLevel is the minimum level logged.
	LogLevel logging.Level
	// Watch enables live reload of state files.
	Watch bool
	// Debounce is the quiet period before a file change is reported.
	Debounce time.Duration
	// FrameRate is the shell's redraw rate in frames per second.
	FrameRate int
	// Theme is the theme applied when the theme file has none.
	Theme string
	// Lenient skips malformed lines when loading state files.
	Lenient bool
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		ConfigDir: DefaultDir(),
		LogLevel:  logging.LevelInfo,
		Watch:     true,
		Debounce:  100 * time.Millisecond,
		FrameRate: 30,
		Theme:     "dark",
	}
}

// Options returns the Manager options these settings imply.
func (s Settings) Options() []Option {
	return []Option{
		WithDir(s.ConfigDir),
		WithWatcher(s.Watch),
		WithDebounce(s.Debounce),
		WithLenient(s.Lenient),
	}
}

// SettingsSource says where LoadSettings looks.
type SettingsSource struct {
	// FS reads the settings file. Defaults to the OS file system.
	FS loader.FileSystem
	// Dir is the configuration directory when SCAFFOLD_CONFIG_DIR is unset.
	// Defaults to DefaultDir.
	Dir string
	// DotEnv lists .env files consulted before the process environment.
	DotEnv []string
}

// LoadSettings merges built-in defaults, <dir>/settings.toml and
// SCAFFOLD_ environment variables, in increasing priority.
func LoadSettings(src SettingsSource) (Settings, error) {
	fsys := src.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	env, err := loader.NewEnvLoader(loader.EnvPrefix).WithDotEnv(src.DotEnv...).Load()
	if err != nil {
		return Settings{}, err
	}

	dir := src.Dir
	if v, ok := loader.GetPath(env, "paths.configDir"); ok {
		if s, ok := v.(string); ok && s != "" {
			dir = s
		}
	}
	if dir == "" {
		dir = DefaultDir()
	}

	merged := defaultSettingsMap()
	file, err := loader.NewTOMLLoaderWithFS(fsys, filepath.Join(dir, SettingsFile)).Load()
	if err != nil {
		return Settings{}, err
	}
	merged = loader.DeepMerge(merged, file)
	merged = loader.DeepMerge(merged, env)

	s, err := settingsFromMap(merged)
	if err != nil {
		return Settings{}, err
	}
	s.ConfigDir = dir
	return s, nil
}

func defaultSettingsMap() map[string]any {
	d := DefaultSettings()
	return map[string]any{
		"logging": map[string]any{"level": d.LogLevel.String()},
		"watch":   map[string]any{"enabled": d.Watch, "debounce": d.Debounce},
		"app":     map[string]any{"frameRate": int64(d.FrameRate), "theme": d.Theme},
		"state":   map[string]any{"lenient": d.Lenient},
	}
}

func settingsFromMap(data map[string]any) (Settings, error) {
	var s Settings

	level, err := getString(data, "logging.level")
	if err != nil {
		return s, err
	}
	s.LogLevel = logging.ParseLevel(level)

	if s.Watch, err = getBool(data, "watch.enabled"); err != nil {
		return s, err
	}
	if s.Debounce, err = getDuration(data, "watch.debounce"); err != nil {
		return s, err
	}
	if s.FrameRate, err = getInt(data, "app.frameRate"); err != nil {
		return s, err
	}
	if s.FrameRate <= 0 {
		return s, fmt.Errorf("app.frameRate must be positive, got %d", s.FrameRate)
	}
	if s.Theme, err = getString(data, "app.theme"); err != nil {
		return s, err
	}
	if s.Lenient, err = getBool(data, "state.lenient"); err != nil {
		return s, err
	}
	return s, nil
}

func getString(data map[string]any, path string) (string, error) {
	v, _ := loader.GetPath(data, path)
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

func getBool(data map[string]any, path string) (bool, error) {
	v, _ := loader.GetPath(data, path)
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

func getInt(data map[string]any, path string) (int, error) {
	v, _ := loader.GetPath(data, path)
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

func getDuration(data map[string]any, path string) (time.Duration, error) {
	v, _ := loader.GetPath(data, path)
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		return d, nil
	case int64:
		// Bare numbers are milliseconds.
		return time.Duration(val) * time.Millisecond, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}
