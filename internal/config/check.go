package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dshills/scaffold/internal/serializer"
)

// Check looks up key in section of file f.
//
// If the key exists and override is false, *value receives the stored text
// and Check returns true. If the key exists and override is true, the stored
// value is replaced by *value and Check returns true. If the key does not
// exist, *value is added to the section and Check returns false. Missing
// files and sections are created.
//
// Writing rewrites the section with its keys in sorted order. Values other
// than key keep their on-disk text.
func (m *Manager) Check(f File, section, key string, value *string, override bool) (bool, error) {
	if !f.Valid() {
		return false, fmt.Errorf("%w: %s", ErrUnknownFile, f)
	}
	if value == nil {
		return false, errors.New("config: nil value")
	}
	if m.isClosed() {
		return false, ErrClosed
	}

	m.locks[f].Lock()
	defer m.locks[f].Unlock()

	var (
		found   bool
		stored  string
		current map[string]any
	)
	err := m.serializeLocked(f, section, serializer.LoadFromFile, func(d *serializer.Document) {
		found = d.Has(key)
		if found && !override {
			d.Entry(key, &stored)
		}
		d.RawFields(&current)
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if found && !override {
		*value = stored
		return true, nil
	}

	if current == nil {
		current = make(map[string]any)
	}
	current[key] = *value
	err = m.serializeLocked(f, section, serializer.SaveToFile, func(d *serializer.Document) {
		d.Fields(&current)
	})
	if err != nil {
		return false, err
	}
	return found, nil
}
