package serializer

import (
	"fmt"
	"strings"
)

// nodeKind identifies the shape of a parsed block.
type nodeKind uint8

const (
	// kindEmpty is a header with no children. It reads as an empty
	// section, an empty sequence, or an empty record list.
	kindEmpty nodeKind = iota
	kindScalar
	kindMapping
	kindSequence
)

// String returns the kind name used in error messages.
func (k nodeKind) String() string {
	switch k {
	case kindEmpty:
		return "empty block"
	case kindScalar:
		return "scalar"
	case kindMapping:
		return "section"
	case kindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// noNode is the handle of a scope that has no backing node.
const noNode = -1

// node is one element of the parsed document. Nodes live in tree.nodes and
// refer to each other by index.
type node struct {
	kind  nodeKind
	line  int
	value string // raw scalar text, still quoted if it was quoted on disk

	fields []field        // kindMapping, in file order
	index  map[string]int // key -> position in fields, last duplicate wins
	items  []int          // kindSequence
}

type field struct {
	key  string
	node int
}

// tree is a whole state file parsed once into an arena of nodes.
type tree struct {
	nodes    []node
	root     int
	warnings []string
}

// lookup returns the child of mapping node n stored under key.
func (t *tree) lookup(n int, key string) (int, bool) {
	if n == noNode {
		return noNode, false
	}
	nd := &t.nodes[n]
	if nd.kind != kindMapping {
		return noNode, false
	}
	i, ok := nd.index[key]
	if !ok {
		return noNode, false
	}
	return nd.fields[i].node, true
}

func (t *tree) add(nd node) int {
	t.nodes = append(t.nodes, nd)
	return len(t.nodes) - 1
}

// scanLine is a data-carrying line with its indentation split off.
type scanLine struct {
	num    int // 1-based
	indent int // columns
	text   string
}

// parser builds a tree from scanned lines.
type parser struct {
	path    string
	lenient bool
	t       *tree
}

// parseTree parses a whole state file. In lenient mode malformed lines are
// skipped together with anything nested under them and recorded as warnings.
func parseTree(path, src string, lenient bool) (*tree, error) {
	lines, err := scan(path, src)
	if err != nil {
		return nil, err
	}

	p := &parser{path: path, lenient: lenient, t: &tree{}}
	if len(lines) == 0 {
		p.t.root = p.t.add(node{kind: kindEmpty})
		return p.t, nil
	}
	if lines[0].indent != 0 {
		return nil, p.errorf(lines[0], ErrIndentation, "unexpected indentation at top level")
	}

	root, err := p.parseMapping(lines, 0)
	if err != nil {
		return nil, err
	}
	p.t.root = root
	return p.t, nil
}

// scan splits src into data lines, dropping blanks and comments and
// validating indentation.
func scan(path, src string) ([]scanLine, error) {
	raw := strings.Split(src, "\n")
	lines := make([]scanLine, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimRight(l, " \r")
		if isSkippable(l) {
			continue
		}
		indent, err := measureIndent(l)
		if err != nil {
			return nil, &ParseError{Path: path, Line: i + 1, Message: "tab in indentation", Err: err}
		}
		if indent%IndentUnit != 0 {
			return nil, &ParseError{
				Path:    path,
				Line:    i + 1,
				Message: fmt.Sprintf("indentation of %d is not a multiple of %d", indent, IndentUnit),
				Err:     ErrIndentation,
			}
		}
		lines = append(lines, scanLine{num: i + 1, indent: indent, text: l[indent:]})
	}
	return lines, nil
}

func (p *parser) errorf(l scanLine, sentinel error, format string, args ...any) error {
	return &ParseError{Path: p.path, Line: l.num, Message: fmt.Sprintf(format, args...), Err: sentinel}
}

// childrenOf returns the end of the block of lines nested deeper than col
// starting at lines[from].
func childrenOf(lines []scanLine, from, col int) int {
	j := from
	for j < len(lines) && lines[j].indent > col {
		j++
	}
	return j
}

// parseBlock parses the lines under a header. The first line decides whether
// the block is a sequence or a section.
func (p *parser) parseBlock(lines []scanLine, col int) (int, error) {
	if lines[0].indent != col {
		return noNode, p.errorf(lines[0], ErrIndentation, "expected indentation of %d, got %d", col, lines[0].indent)
	}
	if isMarker(lines[0].text) {
		return p.parseSequence(lines, col)
	}
	return p.parseMapping(lines, col)
}

func (p *parser) parseMapping(lines []scanLine, col int) (int, error) {
	nd := node{kind: kindMapping, line: lines[0].num, index: make(map[string]int)}

	for i := 0; i < len(lines); {
		l := lines[i]
		end := childrenOf(lines, i+1, col)
		children := lines[i+1 : end]
		i = end

		if l.indent != col {
			return noNode, p.errorf(l, ErrIndentation, "expected indentation of %d, got %d", col, l.indent)
		}
		if isMarker(l.text) {
			return noNode, p.errorf(l, ErrStructuralMismatch, "sequence element inside a section")
		}

		key, value, kind := splitKeyValue(l.text)
		var child int
		switch kind {
		case lineEntry:
			if len(children) > 0 {
				if !p.lenient {
					return noNode, p.errorf(children[0], ErrIndentation, "unexpected indentation under entry %q", key)
				}
				p.warn(children[0], "skipped lines nested under entry %q", key)
			}
			child = p.t.add(node{kind: kindScalar, line: l.num, value: value})
		case lineHeader:
			if len(children) == 0 {
				child = p.t.add(node{kind: kindEmpty, line: l.num})
				break
			}
			var err error
			child, err = p.parseBlock(children, col+IndentUnit)
			if err != nil {
				return noNode, err
			}
			p.t.nodes[child].line = l.num
		default:
			if !p.lenient {
				return noNode, p.errorf(l, ErrMalformedLine, "missing \": \" separator in %q", l.text)
			}
			p.warn(l, "skipped malformed line %q", l.text)
			continue
		}

		if pos, dup := nd.index[key]; dup {
			nd.fields[pos].node = child
			continue
		}
		nd.index[key] = len(nd.fields)
		nd.fields = append(nd.fields, field{key: key, node: child})
	}

	return p.t.add(nd), nil
}

// parseSequence parses "- " elements at col. Each element is either a bare
// scalar or a record whose fields are aligned just after the marker.
func (p *parser) parseSequence(lines []scanLine, col int) (int, error) {
	nd := node{kind: kindSequence, line: lines[0].num}

	for i := 0; i < len(lines); {
		l := lines[i]
		end := childrenOf(lines, i+1, col)
		children := lines[i+1 : end]
		i = end

		if l.indent != col {
			return noNode, p.errorf(l, ErrIndentation, "expected indentation of %d, got %d", col, l.indent)
		}
		if !isMarker(l.text) {
			return noNode, p.errorf(l, ErrStructuralMismatch, "expected %q element marker", strings.TrimSpace(elementMarker))
		}

		rest := strings.TrimPrefix(strings.TrimPrefix(l.text, "-"), " ")
		var item int
		switch {
		case rest == "" && len(children) == 0:
			item = p.t.add(node{kind: kindEmpty, line: l.num})
		case rest == "":
			var err error
			item, err = p.parseBlock(children, col+IndentUnit)
			if err != nil {
				return noNode, err
			}
		case isKeyLine(rest):
			first := scanLine{num: l.num, indent: col + IndentUnit, text: rest}
			record := make([]scanLine, 0, len(children)+1)
			record = append(record, first)
			record = append(record, children...)
			var err error
			item, err = p.parseMapping(record, col+IndentUnit)
			if err != nil {
				return noNode, err
			}
		default:
			if len(children) > 0 {
				return noNode, p.errorf(children[0], ErrIndentation, "unexpected indentation under scalar element")
			}
			item = p.t.add(node{kind: kindScalar, line: l.num, value: rest})
		}
		nd.items = append(nd.items, item)
	}

	return p.t.add(nd), nil
}

func (p *parser) warn(l scanLine, format string, args ...any) {
	p.t.warnings = append(p.t.warnings, fmt.Sprintf("line %d: ", l.num)+fmt.Sprintf(format, args...))
}
