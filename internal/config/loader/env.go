package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of every environment variable the tool reads.
const EnvPrefix = "SCAFFOLD_"

// EnvLoader loads configuration from environment variables. Variables can
// also come from .env files; real environment variables take precedence.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "SCAFFOLD_")
	mapping map[string]string // Env var -> config path
	dotenv  []string          // .env files, later files override earlier ones
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "SCAFFOLD_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(prefix),
	}
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
	}
}

func defaultEnvMapping(prefix string) map[string]string {
	return map[string]string{
		prefix + "CONFIG_DIR":  "paths.configDir",
		prefix + "LOG_LEVEL":   "logging.level",
		prefix + "WATCH":       "watch.enabled",
		prefix + "DEBOUNCE":    "watch.debounce",
		prefix + "FRAME_RATE":  "app.frameRate",
		prefix + "THEME":       "app.theme",
		prefix + "LENIENT":     "state.lenient",
		prefix + "STATE_DEBUG": "state.debug",
	}
}

// WithDotEnv adds .env files read before the process environment. Missing
// files are skipped.
func (l *EnvLoader) WithDotEnv(files ...string) *EnvLoader {
	l.dotenv = append(l.dotenv, files...)
	return l
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	vars := make(map[string]string)

	for _, file := range l.dotenv {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		for k, v := range values {
			vars[k] = v
		}
	}

	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		vars[name] = value
	}

	return l.build(vars), nil
}

// LoadFromReader parses .env formatted content without consulting the
// process environment.
func (l *EnvLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	vars, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing env: %w", err)
	}
	return l.build(vars), nil
}

func (l *EnvLoader) build(vars map[string]string) map[string]any {
	config := make(map[string]any)
	for name, value := range vars {
		if !strings.HasPrefix(name, l.prefix) {
			continue
		}
		path, ok := l.mapping[name]
		if !ok {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		SetPath(config, path, l.parseValue(value))
	}
	return config
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// envToPath converts SCAFFOLD_APP_FRAME_RATE to app.frameRate.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "_")
	result := []string{strings.ToLower(parts[0])}

	if len(parts) > 1 {
		settingName := strings.ToLower(parts[1])
		for _, part := range parts[2:] {
			if len(part) > 0 {
				settingName += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
			}
		}
		result = append(result, settingName)
	}

	return strings.Join(result, ".")
}

// parseValue attempts to parse the string value into an appropriate type.
func (l *EnvLoader) parseValue(s string) any {
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)
	if lower == "true" || lower == "yes" || lower == "on" || s == "1" {
		return true
	}
	if lower == "false" || lower == "no" || lower == "off" || s == "0" {
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only values with a decimal point are floats.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}
