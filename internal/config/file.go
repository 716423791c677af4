package config

import (
	"fmt"
	"strings"
)

// File identifies one of the state files.
type File uint8

const (
	// FileUI holds window, panel and layout state.
	FileUI File = iota
	// FileTheme holds colors and fonts.
	FileTheme
	// FileInput holds key bindings and input preferences.
	FileInput

	fileCount
)

var fileNames = [fileCount]string{"ui", "theme", "input"}

// Extension is the file name extension of every state file.
const Extension = ".yml"

// Files returns every state file in order.
func Files() []File {
	files := make([]File, fileCount)
	for i := range files {
		files[i] = File(i)
	}
	return files
}

// String returns the short name of the file.
func (f File) String() string {
	if !f.Valid() {
		return fmt.Sprintf("File(%d)", f)
	}
	return fileNames[f]
}

// FileName returns the base name of the file on disk.
func (f File) FileName() string {
	return f.String() + Extension
}

// Valid reports whether f is a known file.
func (f File) Valid() bool {
	return f < fileCount
}

// ParseFile resolves a short name ("ui") or base name ("ui.yml").
func ParseFile(name string) (File, error) {
	name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), Extension)
	for i, n := range fileNames {
		if n == name {
			return File(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFile, name)
}
