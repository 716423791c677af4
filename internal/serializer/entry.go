package serializer

import (
	"fmt"
	"reflect"
	"sort"
)

// Entry saves or loads one named value in the current scope.
//
// Supported values are booleans, integers, floats, strings, time.Duration,
// types implementing encoding.TextMarshaler and encoding.TextUnmarshaler,
// slices of those (written as a sequence), and string-keyed maps of those
// (written as a nested block of entries).
//
// When saving, v may be a value or a pointer. When loading, v must be a
// non-nil pointer. A key that is not in the file leaves *v untouched. A
// loaded sequence or map replaces the previous content of *v.
func (d *Document) Entry(key string, v any) *Document {
	if !d.ok() {
		return d
	}
	if !validKey(key) {
		d.fail(&ValueError{Key: d.key(key), Type: fmt.Sprintf("%T", v), Err: ErrInvalidKey})
		return d
	}

	if d.Saving() {
		d.saveEntry(key, v)
	} else {
		d.loadEntry(key, v)
	}
	return d
}

func (d *Document) saveEntry(key string, v any) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.Type().Implements(textMarshalerType) {
		if rv.IsNil() {
			break
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		d.fail(&ValueError{Key: d.key(key), Type: fmt.Sprintf("%T", v), Err: ErrUnsupportedType})
		return
	}

	t := rv.Type()
	switch {
	case isScalarType(t):
		s, err := encodeScalar(rv)
		if err != nil {
			d.fail(&ValueError{Key: d.key(key), Type: t.String(), Err: err})
			return
		}
		d.writeLine(key + ": " + s)

	case isSequenceType(t):
		d.writeLine(key + ":")
		for i := 0; i < rv.Len(); i++ {
			s, err := encodeScalar(rv.Index(i))
			if err != nil {
				d.fail(&ValueError{Key: fmt.Sprintf("%s[%d]", d.key(key), i), Type: t.Elem().String(), Err: err})
				return
			}
			d.f.out.line(d.depth+1, false, elementMarker+s)
		}

	case isMapType(t):
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

		d.writeLine(key + ":")
		for _, k := range keys {
			name := k.String()
			if !validKey(name) {
				d.fail(&ValueError{Key: d.key(key) + "." + name, Type: t.String(), Err: ErrInvalidKey})
				return
			}
			s, err := encodeScalar(rv.MapIndex(k))
			if err != nil {
				d.fail(&ValueError{Key: d.key(key) + "." + name, Type: t.Elem().String(), Err: err})
				return
			}
			d.f.out.line(d.depth+1, false, name+": "+s)
		}

	default:
		d.fail(&ValueError{Key: d.key(key), Type: t.String(), Err: ErrUnsupportedType})
	}
}

func (d *Document) loadEntry(key string, v any) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		d.fail(&ValueError{Key: d.key(key), Type: fmt.Sprintf("%T", v), Err: ErrInvalidTarget})
		return
	}
	target := rv.Elem()
	t := target.Type()

	n, found := d.f.tree.lookup(d.node, key)
	if !found {
		return
	}
	nd := &d.f.tree.nodes[n]

	switch {
	case isScalarType(t):
		switch nd.kind {
		case kindScalar:
			tmp := reflect.New(t).Elem()
			if err := decodeScalar(nd.value, tmp); err != nil {
				d.fail(&ValueError{Key: d.key(key), Line: nd.line, Type: t.String(), Err: err})
				return
			}
			target.Set(tmp)
		case kindEmpty:
			// "key:" with nothing under it carries no value.
		default:
			d.fail(structureError(d.f.path, d.key(key), nd.line, fmt.Sprintf("expected a scalar, found %s", nd.kind)))
		}

	case isSequenceType(t):
		switch nd.kind {
		case kindEmpty:
			target.Set(reflect.MakeSlice(t, 0, 0))
		case kindSequence:
			out := reflect.MakeSlice(t, len(nd.items), len(nd.items))
			for i, item := range nd.items {
				in := &d.f.tree.nodes[item]
				switch in.kind {
				case kindScalar:
					if err := decodeScalar(in.value, out.Index(i)); err != nil {
						d.fail(&ValueError{Key: fmt.Sprintf("%s[%d]", d.key(key), i), Line: in.line, Type: t.Elem().String(), Err: err})
						return
					}
				case kindEmpty:
					// A bare "-" is the zero value.
				default:
					d.fail(structureError(d.f.path, fmt.Sprintf("%s[%d]", d.key(key), i), in.line,
						fmt.Sprintf("expected a scalar element, found %s", in.kind)))
					return
				}
			}
			target.Set(out)
		default:
			d.fail(structureError(d.f.path, d.key(key), nd.line, fmt.Sprintf("expected a sequence, found %s", nd.kind)))
		}

	case isMapType(t):
		switch nd.kind {
		case kindEmpty:
			target.Set(reflect.MakeMap(t))
		case kindMapping:
			out := reflect.MakeMapWithSize(t, len(nd.fields))
			for _, fl := range nd.fields {
				in := &d.f.tree.nodes[fl.node]
				if in.kind != kindScalar {
					d.fail(structureError(d.f.path, d.key(key)+"."+fl.key, in.line,
						fmt.Sprintf("expected a scalar, found %s", in.kind)))
					return
				}
				elem := reflect.New(t.Elem()).Elem()
				if err := decodeScalar(in.value, elem); err != nil {
					d.fail(&ValueError{Key: d.key(key) + "." + fl.key, Line: in.line, Type: t.Elem().String(), Err: err})
					return
				}
				out.SetMapIndex(reflect.ValueOf(fl.key).Convert(t.Key()), elem)
			}
			target.Set(out)
		default:
			d.fail(structureError(d.f.path, d.key(key), nd.line, fmt.Sprintf("expected a section, found %s", nd.kind)))
		}

	default:
		d.fail(&ValueError{Key: d.key(key), Type: t.String(), Err: ErrUnsupportedType})
	}
}
