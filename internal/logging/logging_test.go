package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf, Prefix: "test"})
	l.sink.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 30, 45, 123e6, time.UTC)
	}
	return l, &buf
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" Info ", LevelInfo},
		{"warn", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestLogger_Format(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.Info("loaded %d sections", 3)
	assert.Equal(t, "2024-03-01T12:30:45.123 [INFO] test: loaded 3 sections\n", buf.String())
}

func TestLogger_LevelFilter(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)

	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN]")
	assert.Contains(t, lines[1], "[ERROR]")

	assert.False(t, l.Enabled(LevelInfo))
	l.SetLevel(LevelDebug)
	assert.True(t, l.Enabled(LevelDebug))
	assert.Equal(t, LevelDebug, l.Level())
}

func TestLogger_FieldsSorted(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.WithComponent("config").WithFields(map[string]any{"file": "ui.yml", "attempt": 2}).Warn("retrying")
	assert.True(t, strings.HasSuffix(buf.String(), "retrying {attempt=2, component=config, file=ui.yml}\n"), buf.String())
}

func TestLogger_DerivedSharesSink(t *testing.T) {
	l, buf := newTestLogger(LevelInfo)
	child := l.WithField("k", "v")

	l.SetLevel(LevelError)
	child.Info("dropped")
	assert.Empty(t, buf.String())

	var other bytes.Buffer
	child.SetOutput(&other)
	l.Error("moved")
	assert.Contains(t, other.String(), "moved")

	// Parent fields are not changed by children.
	l.Error("plain")
	assert.NotContains(t, strings.Split(strings.TrimSpace(other.String()), "\n")[1], "k=v")
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	assert.False(t, l.Enabled(LevelError))
}

func TestDefault(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	custom, _ := newTestLogger(LevelDebug)
	SetDefault(custom)
	assert.Same(t, custom, Default())
	assert.Same(t, custom, OrDefault(nil))

	other := Nop()
	assert.Same(t, other, OrDefault(other))

	SetDefault(nil)
	assert.NotNil(t, Default())
}
