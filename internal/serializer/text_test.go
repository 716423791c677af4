package serializer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureIndent(t *testing.T) {
	tests := []struct {
		line    string
		want    int
		wantErr bool
	}{
		{"key: value", 0, false},
		{"  key: value", 2, false},
		{"      - x", 6, false},
		{"   odd", 3, false},
		{"\tkey: value", 0, true},
		{"  \tkey: value", 2, true},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, err := measureIndent(tt.line)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrIndentation, "line %q", tt.line)
			continue
		}
		require.NoError(t, err, "line %q", tt.line)
		assert.Equal(t, tt.want, got, "line %q", tt.line)
	}
}

func TestDepthOf(t *testing.T) {
	assert.Equal(t, 0, depthOf(0))
	assert.Equal(t, 1, depthOf(2))
	assert.Equal(t, 3, depthOf(6))
	// Odd widths truncate; the scanner rejects them before this is reached.
	assert.Equal(t, 1, depthOf(3))
}

func TestSplitKeyValue(t *testing.T) {
	tests := []struct {
		text  string
		key   string
		value string
		kind  lineKind
	}{
		{"name: hello", "name", "hello", lineEntry},
		{"name: a: b", "name", "a: b", lineEntry},
		{`name: "a: b"`, "name", `"a: b"`, lineEntry},
		{"url: http://example.com", "url", "http://example.com", lineEntry},
		{"name:   spaced", "name", "spaced", lineEntry},
		{"section:", "section", "", lineHeader},
		{"no separator", "", "", lineMalformed},
		{"key:value", "", "", lineMalformed},
		{":", "", "", lineMalformed},
		{": value", "", "", lineMalformed},
		{"- item", "", "", lineMalformed},
		{`"quoted": x`, "", "", lineMalformed},
	}

	for _, tt := range tests {
		key, value, kind := splitKeyValue(tt.text)
		assert.Equal(t, tt.kind, kind, "text %q", tt.text)
		assert.Equal(t, tt.key, key, "text %q", tt.text)
		assert.Equal(t, tt.value, value, "text %q", tt.text)
	}
}

func TestIsSkippable(t *testing.T) {
	assert.True(t, isSkippable(""))
	assert.True(t, isSkippable("    "))
	assert.True(t, isSkippable("# comment"))
	assert.True(t, isSkippable("    # indented comment"))
	assert.False(t, isSkippable("key: # not a comment line"))
	assert.False(t, isSkippable("  - x"))
}

func TestQuote_RoundTrip(t *testing.T) {
	values := []string{
		"hello",
		"",
		" leading",
		"trailing ",
		"Line\nBreak\tTab\\Backslash\"Quote",
		"a: b",
		"ends with colon:",
		"#hash",
		"value #comment",
		"- dash",
		"-",
		"-5",
		"unicode ✓ text",
		"bell\a",
		`"already quoted"`,
	}

	for _, v := range values {
		raw := quote(v)
		got, err := unquote(raw)
		require.NoError(t, err, "value %q", v)
		assert.Equal(t, v, got, "raw %s", raw)
	}

	assert.Equal(t, "hello", quote("hello"))
	assert.Equal(t, "-5", quote("-5"))
	assert.Equal(t, "unicode ✓ text", quote("unicode ✓ text"))
	assert.Equal(t, `"a: b"`, quote("a: b"))
	assert.Equal(t, `""`, quote(""))
}

func TestUnquote_Invalid(t *testing.T) {
	_, err := unquote(`"unterminated`)
	assert.Error(t, err)

	got, err := unquote(`bare "inner" quotes`)
	require.NoError(t, err)
	assert.Equal(t, `bare "inner" quotes`, got)
}

func TestValidKey(t *testing.T) {
	for _, k := range []string{"width", "test_int", "level2", "a.b", "with space"} {
		assert.True(t, validKey(k), "key %q", k)
	}
	for _, k := range []string{"", " padded", "a: b", "colon:", "#x", "-x", `"q"`, "new\nline"} {
		assert.False(t, validKey(k), "key %q", k)
	}
}

func TestErrorTypes(t *testing.T) {
	pe := &ParseError{Path: "state.yml", Line: 3, Message: "boom", Err: ErrMalformedLine}
	assert.Equal(t, "parse error in state.yml at line 3: boom", pe.Error())
	assert.True(t, errors.Is(pe, ErrMalformedLine))

	pe = &ParseError{Message: "boom", Err: ErrIndentation}
	assert.Equal(t, "parse error in <input>: boom", pe.Error())

	ve := &ValueError{Key: "a.b", Type: "int", Line: 2, Err: ErrUnsupportedType}
	assert.Equal(t, "value error for a.b (int) at line 2: unsupported type", ve.Error())
	assert.True(t, errors.Is(ve, ErrUnsupportedType))

	se := structureError("f.yml", "items[1]", 4, "expected a record, found scalar")
	assert.True(t, errors.Is(se, ErrStructuralMismatch))
	assert.Contains(t, se.Error(), "items[1]: expected a record")
}
