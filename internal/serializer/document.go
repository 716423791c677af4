package serializer

import (
	"errors"
	"fmt"
	"io/fs"
)

// Option selects the direction of a Document.
type Option uint8

const (
	// SaveToFile stages the described data and writes it on Close.
	SaveToFile Option = iota
	// LoadFromFile reads the file once and fills the described data.
	LoadFromFile
)

// String returns the option name.
func (o Option) String() string {
	switch o {
	case SaveToFile:
		return "save"
	case LoadFromFile:
		return "load"
	default:
		return "unknown"
	}
}

// DocOption configures Open.
type DocOption func(*docConfig)

type docConfig struct {
	storage Storage
	lenient bool
}

// WithStorage sets the storage the document reads from and writes to.
func WithStorage(s Storage) DocOption {
	return func(c *docConfig) {
		if s != nil {
			c.storage = s
		}
	}
}

// WithLenient makes loading skip malformed lines instead of failing.
// Skipped lines are reported by Warnings.
func WithLenient() DocOption {
	return func(c *docConfig) {
		c.lenient = true
	}
}

// file is the state shared by every handle of one open document.
type file struct {
	path    string
	section string
	option  Option
	storage Storage

	out  writer // save
	tree *tree  // load

	err    error
	closed bool
}

// Document is a handle onto one scope of a state file section. The handle
// returned by Open addresses the section itself; Subsection and List hand
// their callbacks new handles scoped to the nested block or record, so a
// callback can never read or write a sibling's data.
//
// A Document is not safe for concurrent use. Protocol methods return the
// receiver for chaining; the first failure is kept and every later call
// becomes a no-op. Check it with Err or Close.
type Document struct {
	f      *file
	depth  int    // save: indentation depth of this scope's lines
	marked bool   // save: the next line starts a sequence element
	node   int    // load: mapping node backing this scope, or noNode
	prefix string // dotted path of this scope inside the section
}

// Open opens section of the state file at path. For LoadFromFile the file
// is read and the section is parsed immediately; lines of other sections are
// not parsed, so a malformed line elsewhere in the file does not fail the
// load. A missing file is an error matching fs.ErrNotExist. A missing section is not an error: every lookup in it
// reports "not found". For SaveToFile nothing is read until Close.
func Open(path, section string, option Option, opts ...DocOption) (*Document, error) {
	cfg := docConfig{storage: DefaultStorage()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !validKey(section) {
		return nil, fmt.Errorf("%w: section name %q", ErrInvalidKey, section)
	}
	if option != SaveToFile && option != LoadFromFile {
		return nil, fmt.Errorf("unknown option %d", option)
	}

	f := &file{
		path:    path,
		section: section,
		option:  option,
		storage: cfg.storage,
	}
	d := &Document{f: f, depth: 1, node: noNode}

	if option == SaveToFile {
		return d, nil
	}

	data, err := cfg.storage.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	t, err := parseTree(path, isolateSection(string(data), section), cfg.lenient)
	if err != nil {
		return nil, err
	}
	f.tree = t

	if n, ok := t.lookup(t.root, section); ok {
		switch t.nodes[n].kind {
		case kindMapping:
			d.node = n
		case kindEmpty:
		default:
			return nil, structureError(path, section, t.nodes[n].line,
				fmt.Sprintf("expected a section, found %s", t.nodes[n].kind))
		}
	}
	return d, nil
}

// Serialize opens section of path, runs fn on it, and closes it.
func Serialize(path, section string, option Option, fn func(*Document), opts ...DocOption) error {
	d, err := Open(path, section, option, opts...)
	if err != nil {
		return err
	}
	if fn != nil {
		fn(d)
	}
	return d.Close()
}

// Save writes section of path as described by fn.
func Save(path, section string, fn func(*Document), opts ...DocOption) error {
	return Serialize(path, section, SaveToFile, fn, opts...)
}

// Load fills the data described by fn from section of path.
func Load(path, section string, fn func(*Document), opts ...DocOption) error {
	return Serialize(path, section, LoadFromFile, fn, opts...)
}

// Option returns the direction of the document.
func (d *Document) Option() Option {
	return d.f.option
}

// Saving reports whether the document writes.
func (d *Document) Saving() bool {
	return d.f.option == SaveToFile
}

// Loading reports whether the document reads.
func (d *Document) Loading() bool {
	return d.f.option == LoadFromFile
}

// Path returns the file path of the document.
func (d *Document) Path() string {
	return d.f.path
}

// Section returns the top-level section name of the document.
func (d *Document) Section() string {
	return d.f.section
}

// Scope returns the dotted path of this handle inside the section.
func (d *Document) Scope() string {
	return d.prefix
}

// Err returns the first error recorded by a protocol call.
func (d *Document) Err() error {
	return d.f.err
}

// Warnings returns the lines skipped while loading in lenient mode.
func (d *Document) Warnings() []string {
	if d.f.tree == nil {
		return nil
	}
	return append([]string(nil), d.f.tree.warnings...)
}

// Has reports whether key exists in the current scope. It is always false
// when saving.
func (d *Document) Has(key string) bool {
	if d.f.tree == nil {
		return false
	}
	_, ok := d.f.tree.lookup(d.node, key)
	return ok
}

// Close finishes the document. When saving, the section is written into the
// file, replacing any previous version of it and keeping every other
// section. Nothing is written if a protocol call failed. Closing a loading
// document only reports the recorded error. Close is idempotent.
func (d *Document) Close() error {
	f := d.f
	if f.closed {
		if errors.Is(f.err, ErrClosed) {
			return nil
		}
		return f.err
	}
	f.closed = true

	if f.option == LoadFromFile || f.err != nil {
		return f.err
	}

	existing, err := f.storage.ReadFile(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", f.path, err)
	}

	body := f.section + ":\n" + f.out.String()
	content := spliceSection(string(existing), f.section, body)
	if err := f.storage.WriteFile(f.path, []byte(content)); err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return nil
}

// ok reports whether protocol calls may proceed.
func (d *Document) ok() bool {
	if d.f.closed {
		d.fail(ErrClosed)
		return false
	}
	return d.f.err == nil
}

func (d *Document) fail(err error) {
	if d.f.err == nil {
		d.f.err = err
	}
}

// writeLine writes text at this handle's depth, consuming a pending element
// marker.
func (d *Document) writeLine(text string) {
	d.f.out.line(d.depth, d.marked, text)
	d.marked = false
}

// child returns a handle for a nested scope.
func (d *Document) child(depth, node int, prefix string, marked bool) *Document {
	return &Document{f: d.f, depth: depth, node: node, prefix: prefix, marked: marked}
}

// key returns the dotted path of key in this scope.
func (d *Document) key(key string) string {
	if d.prefix == "" {
		return key
	}
	return d.prefix + "." + key
}

func (d *Document) lineOf(n int) int {
	if n == noNode || d.f.tree == nil {
		return 0
	}
	return d.f.tree.nodes[n].line
}
