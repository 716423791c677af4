package serializer

import (
	"strconv"
	"strings"
	"unicode"
)

// IndentUnit is the number of spaces per nesting level.
const IndentUnit = 2

// elementMarker starts the first line of every sequence element.
const elementMarker = "- "

// lineKind classifies the content of a single line.
type lineKind uint8

const (
	lineMalformed lineKind = iota
	lineEntry              // key: value
	lineHeader             // key:
)

// countIndent returns the number of leading spaces in a line.
func countIndent(line string) int {
	n := 0
	for n < len(line) && line[n] == ' ' {
		n++
	}
	return n
}

// measureIndent returns the indentation of line in columns. Tabs inside the
// leading whitespace are rejected.
func measureIndent(line string) (int, error) {
	n := countIndent(line)
	if n < len(line) && line[n] == '\t' {
		return n, ErrIndentation
	}
	return n, nil
}

// depthOf converts a column count into a nesting depth. Callers must only
// pass multiples of IndentUnit; the scanner rejects anything else.
func depthOf(cols int) int {
	return cols / IndentUnit
}

// indentation returns the leading whitespace for depth.
func indentation(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat(" ", depth*IndentUnit)
}

// isSkippable reports whether a line carries no data (blank or comment).
func isSkippable(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return trimmed == "" || trimmed[0] == '#'
}

// isMarker reports whether text (already stripped of indentation) starts a
// sequence element.
func isMarker(text string) bool {
	return text == "-" || strings.HasPrefix(text, elementMarker)
}

// isKeyLine reports whether text is shaped like an entry or a header. Quoted
// text is always a scalar.
func isKeyLine(text string) bool {
	if strings.HasPrefix(text, `"`) {
		return false
	}
	return strings.Contains(text, ": ") || strings.HasSuffix(text, ":")
}

// splitKeyValue splits an unindented line on its first ": ". A line ending in
// ":" is a header whose value is empty.
func splitKeyValue(text string) (key, value string, kind lineKind) {
	if strings.HasPrefix(text, `"`) || isMarker(text) {
		return "", "", lineMalformed
	}
	if i := strings.Index(text, ": "); i > 0 {
		return text[:i], strings.TrimLeft(text[i+2:], " "), lineEntry
	}
	if len(text) > 1 && strings.HasSuffix(text, ":") {
		return text[:len(text)-1], "", lineHeader
	}
	return "", "", lineMalformed
}

// validKey reports whether key can be written and read back unchanged.
func validKey(key string) bool {
	if key == "" || key != strings.TrimSpace(key) {
		return false
	}
	if strings.Contains(key, ": ") || strings.HasSuffix(key, ":") {
		return false
	}
	if strings.ContainsAny(key, "\n\r\t") {
		return false
	}
	switch key[0] {
	case '#', '"', '-':
		return false
	}
	return true
}

// needsQuote reports whether s would be misread if written bare.
func needsQuote(s string) bool {
	if s == "" || s != strings.TrimSpace(s) {
		return true
	}
	if strings.ContainsAny(s, "\"\\\n\r\t") {
		return true
	}
	if strings.Contains(s, ": ") || strings.Contains(s, " #") || strings.HasSuffix(s, ":") {
		return true
	}
	if s[0] == '#' || s == "-" || strings.HasPrefix(s, elementMarker) {
		return true
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

// quote returns s in its on-disk form.
func quote(s string) string {
	if needsQuote(s) {
		return strconv.Quote(s)
	}
	return s
}

// unquote reverses quote. Bare text is returned as is.
func unquote(raw string) (string, error) {
	if !strings.HasPrefix(raw, `"`) {
		return raw, nil
	}
	return strconv.Unquote(raw)
}
