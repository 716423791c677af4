package serializer

import (
	"strings"
)

// writer accumulates the lines of one section.
type writer struct {
	buf strings.Builder
}

// line appends text at depth. A marked line has its last indentation unit
// replaced by the element marker, which puts the text at the same column as
// an unmarked line of the same depth.
func (w *writer) line(depth int, marked bool, text string) {
	indent := indentation(depth)
	if marked && len(indent) >= IndentUnit {
		indent = indent[:len(indent)-IndentUnit] + elementMarker
	}
	w.buf.WriteString(indent)
	w.buf.WriteString(text)
	w.buf.WriteByte('\n')
}

// emptyElement writes a bare marker for a record that has no fields.
func (w *writer) emptyElement(depth int) {
	w.buf.WriteString(indentation(depth - 1))
	w.buf.WriteString("-\n")
}

func (w *writer) String() string {
	return w.buf.String()
}

// sectionSpan is the half-open line range [start, end) a top-level section
// occupies in a file.
type sectionSpan struct {
	start, end int
}

// findSections returns every span whose header is exactly name.
func findSections(lines []string, name string) []sectionSpan {
	header := name + ":"
	var spans []sectionSpan
	for i := 0; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \r\n") != header {
			continue
		}
		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if isTopLevel(lines[j]) {
				end = j
				break
			}
		}
		// Comments and blank lines after the last entry stay outside the span.
		for end > i+1 && isSkippable(strings.TrimRight(lines[end-1], "\r\n")) {
			end--
		}
		spans = append(spans, sectionSpan{start: i, end: end})
		i = end - 1
	}
	return spans
}

// isTopLevel reports whether a line starts a new top-level block.
func isTopLevel(line string) bool {
	l := strings.TrimRight(line, "\r\n")
	return l != "" && l[0] != ' ' && l[0] != '#' && l[0] != '\t'
}

// isolateSection blanks every line outside the top-level blocks called
// name. Line numbers are unchanged, so errors inside name still point at
// the right line while errors in other sections are never seen.
func isolateSection(src, name string) string {
	var b strings.Builder
	b.Grow(len(src))
	keep := false
	for _, l := range strings.SplitAfter(src, "\n") {
		if text := strings.TrimRight(l, " \r\n"); isTopLevel(text) {
			key, _, kind := splitKeyValue(text)
			keep = kind != lineMalformed && key == name
		}
		switch {
		case keep:
			b.WriteString(l)
		case strings.HasSuffix(l, "\n"):
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// spliceSection replaces the section called name in existing with body,
// keeping every other line. Duplicate sections are collapsed into the first.
// A section that does not exist yet is appended.
func spliceSection(existing, name, body string) string {
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}

	lines := strings.SplitAfter(existing, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	spans := findSections(lines, name)
	if len(spans) == 0 {
		var out strings.Builder
		out.WriteString(existing)
		if existing != "" && !strings.HasSuffix(existing, "\n") {
			out.WriteByte('\n')
		}
		out.WriteString(body)
		return out.String()
	}

	var out strings.Builder
	prev := 0
	for i, s := range spans {
		for _, l := range lines[prev:s.start] {
			out.WriteString(l)
		}
		if i == 0 {
			out.WriteString(body)
		}
		prev = s.end
	}
	for _, l := range lines[prev:] {
		out.WriteString(l)
	}

	result := out.String()
	if result != "" && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}
