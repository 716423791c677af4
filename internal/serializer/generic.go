package serializer

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Decode parses a whole state file into untyped values: sections become
// map[string]any, sequences []any, and scalars bool, int64, float64 or
// string. Headers with nothing under them decode to nil.
func Decode(path string, data []byte, opts ...DocOption) (map[string]any, error) {
	cfg := docConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	t, err := parseTree(path, string(data), cfg.lenient)
	if err != nil {
		return nil, err
	}
	m, _ := t.toAny(t.root).(map[string]any)
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// SectionNames returns the top-level section names of a state file in file
// order.
func SectionNames(path string, data []byte, opts ...DocOption) ([]string, error) {
	cfg := docConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	t, err := parseTree(path, string(data), cfg.lenient)
	if err != nil {
		return nil, err
	}
	root := &t.nodes[t.root]
	names := make([]string, 0, len(root.fields))
	for _, f := range root.fields {
		names = append(names, f.key)
	}
	return names, nil
}

// Raw is the on-disk text of a scalar, quotes included. Saving a Raw writes
// the text unchanged, so values read with RawFields are written back exactly
// as they were.
type Raw string

// Value returns the typed value Decode would produce for r.
func (r Raw) Value() any {
	return inferScalar(string(r))
}

func (t *tree) toAny(n int) any {
	return t.toValue(n, false)
}

func (t *tree) toValue(n int, raw bool) any {
	nd := &t.nodes[n]
	switch nd.kind {
	case kindScalar:
		if raw {
			return Raw(nd.value)
		}
		return inferScalar(nd.value)
	case kindMapping:
		m := make(map[string]any, len(nd.fields))
		for _, f := range nd.fields {
			m[f.key] = t.toValue(f.node, raw)
		}
		return m
	case kindSequence:
		s := make([]any, len(nd.items))
		for i, item := range nd.items {
			s[i] = t.toValue(item, raw)
		}
		return s
	default:
		return nil
	}
}

// inferScalar picks the narrowest type for bare text. Quoted text is always
// a string.
func inferScalar(raw string) any {
	if len(raw) > 0 && raw[0] == '"' {
		if s, err := unquote(raw); err == nil {
			return s
		}
		return raw
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// Value saves or loads an untyped value. When saving, maps with string keys
// become subsections (keys in sorted order), slices of maps become record
// lists, other slices become sequences, nil becomes an empty header, and
// everything else is written as an entry. When loading, v must be a *any
// and receives what Decode would produce for the key; a missing key leaves
// it untouched.
func (d *Document) Value(key string, v any) *Document {
	if !d.ok() {
		return d
	}
	if d.Loading() {
		p, ok := v.(*any)
		if !ok || p == nil {
			d.fail(&ValueError{Key: d.key(key), Type: fmt.Sprintf("%T", v), Err: ErrInvalidTarget})
			return d
		}
		if n, found := d.f.tree.lookup(d.node, key); found {
			*p = d.f.tree.toAny(n)
		}
		return d
	}

	if !validKey(key) {
		d.fail(&ValueError{Key: d.key(key), Type: fmt.Sprintf("%T", v), Err: ErrInvalidKey})
		return d
	}

	switch val := v.(type) {
	case nil:
		d.writeLine(key + ":")
	case map[string]any:
		d.Subsection(key, func(sub *Document) {
			sub.Fields(&val)
		})
	case []map[string]any:
		d.List(key, val, func(rec *Document, i int) {
			rec.Fields(&val[i])
		})
	case []any:
		d.saveAnySlice(key, val)
	default:
		d.Entry(key, v)
	}
	return d
}

func (d *Document) saveAnySlice(key string, s []any) {
	records := 0
	for _, e := range s {
		if _, ok := e.(map[string]any); ok {
			records++
		}
	}

	switch {
	case records == len(s) && records > 0:
		d.List(key, s, func(rec *Document, i int) {
			m := s[i].(map[string]any)
			rec.Fields(&m)
		})
	case records == 0:
		d.writeLine(key + ":")
		for i, e := range s {
			if e == nil {
				d.f.out.line(d.depth+1, false, "-")
				continue
			}
			rv := reflect.ValueOf(e)
			if !isScalarType(rv.Type()) {
				d.fail(&ValueError{Key: d.elementKey(key, i), Type: rv.Type().String(), Err: ErrUnsupportedType})
				return
			}
			text, err := encodeScalar(rv)
			if err != nil {
				d.fail(&ValueError{Key: d.elementKey(key, i), Type: rv.Type().String(), Err: err})
				return
			}
			d.f.out.line(d.depth+1, false, elementMarker+text)
		}
	default:
		d.fail(&ValueError{Key: d.key(key), Type: "[]any", Err: fmt.Errorf("%w: mixed records and scalars", ErrUnsupportedType)})
	}
}

// Fields saves or loads every key of the current scope as untyped values.
// When saving, keys are written in sorted order. When loading, *m is
// replaced by the scope's content; an empty or missing scope yields an
// empty map.
func (d *Document) Fields(m *map[string]any) *Document {
	return d.fields(m, false)
}

// RawFields is Fields with scalars loaded as Raw instead of typed values.
// Use it to rewrite a scope without reformatting the values it does not
// change.
func (d *Document) RawFields(m *map[string]any) *Document {
	return d.fields(m, true)
}

func (d *Document) fields(m *map[string]any, raw bool) *Document {
	if !d.ok() {
		return d
	}
	if m == nil {
		d.fail(&ValueError{Key: d.prefix, Type: "*map[string]any", Err: ErrInvalidTarget})
		return d
	}

	if d.Loading() {
		out := make(map[string]any)
		if d.node != noNode {
			for _, f := range d.f.tree.nodes[d.node].fields {
				out[f.key] = d.f.tree.toValue(f.node, raw)
			}
		}
		*m = out
		return d
	}

	keys := make([]string, 0, len(*m))
	for k := range *m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d.Value(k, (*m)[k])
		if d.f.err != nil {
			break
		}
	}
	return d
}
