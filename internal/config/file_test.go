package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	assert.Equal(t, []File{FileUI, FileTheme, FileInput}, Files())
	assert.Equal(t, "ui", FileUI.String())
	assert.Equal(t, "theme.yml", FileTheme.FileName())
	assert.Equal(t, "input.yml", FileInput.FileName())
	assert.True(t, FileInput.Valid())
	assert.False(t, File(7).Valid())
	assert.Equal(t, "File(7)", File(7).String())
}

func TestParseFile(t *testing.T) {
	tests := []struct {
		name string
		want File
	}{
		{"ui", FileUI},
		{"ui.yml", FileUI},
		{" Theme ", FileTheme},
		{"INPUT.yml", FileInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFile(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, name := range []string{"", "keys", "ui.toml"} {
		_, err := ParseFile(name)
		assert.ErrorIs(t, err, ErrUnknownFile, name)
	}
}
