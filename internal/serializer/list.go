package serializer

import (
	"fmt"
	"reflect"
)

// List saves or loads a sequence of records called name. items is a pointer
// to a slice (a plain slice is accepted when saving). fn is called once per
// element with a handle scoped to that record and the element index; it
// describes the record's fields with Entry, Subsection and List.
//
// When loading, every element is checked to be a record before fn runs.
// The slice is then resized to the number of stored records, keeping the
// elements below the new length, and fn fills each one. A list that is
// absent from the file leaves the slice untouched; a present but empty list
// empties it. A stored element that is not a record fails the whole call
// with ErrStructuralMismatch and leaves the slice unchanged.
func (d *Document) List(name string, items any, fn func(d *Document, index int)) *Document {
	if !d.ok() {
		return d
	}
	if !validKey(name) {
		d.fail(&ValueError{Key: d.key(name), Type: fmt.Sprintf("%T", items), Err: ErrInvalidKey})
		return d
	}

	if d.Saving() {
		d.saveList(name, items, fn)
	} else {
		d.loadList(name, items, fn)
	}
	return d
}

// elementKey names element i of the list name for error messages.
func (d *Document) elementKey(name string, i int) string {
	return fmt.Sprintf("%s[%d]", d.key(name), i)
}

func (d *Document) saveList(name string, items any, fn func(*Document, int)) {
	rv := reflect.ValueOf(items)
	if rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		d.fail(&ValueError{Key: d.key(name), Type: fmt.Sprintf("%T", items), Err: ErrInvalidTarget})
		return
	}

	d.writeLine(name + ":")

	// Record fields sit one unit right of the marker, which itself sits one
	// unit under the header.
	depth := d.depth + 2
	for i := 0; i < rv.Len(); i++ {
		record := d.child(depth, noNode, d.elementKey(name, i), true)
		if fn != nil {
			fn(record, i)
		}
		if d.f.err != nil {
			return
		}
		if record.marked {
			d.f.out.emptyElement(depth)
		}
	}
}

func (d *Document) loadList(name string, items any, fn func(*Document, int)) {
	rv := reflect.ValueOf(items)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		d.fail(&ValueError{Key: d.key(name), Type: fmt.Sprintf("%T", items), Err: ErrInvalidTarget})
		return
	}

	n, found := d.f.tree.lookup(d.node, name)
	if !found {
		return
	}

	// Resolve every record scope before touching the caller's slice.
	var scopes []int
	switch nd := &d.f.tree.nodes[n]; nd.kind {
	case kindEmpty:
	case kindSequence:
		scopes = make([]int, len(nd.items))
		for i, item := range nd.items {
			switch in := &d.f.tree.nodes[item]; in.kind {
			case kindMapping:
				scopes[i] = item
			case kindEmpty:
				scopes[i] = noNode
			default:
				d.fail(structureError(d.f.path, d.elementKey(name, i), in.line,
					fmt.Sprintf("expected a record, found %s", in.kind)))
				return
			}
		}
	default:
		d.fail(structureError(d.f.path, d.key(name), nd.line, fmt.Sprintf("expected a record list, found %s", nd.kind)))
		return
	}

	slice := rv.Elem()
	resized := reflect.MakeSlice(slice.Type(), len(scopes), len(scopes))
	reflect.Copy(resized, slice)
	slice.Set(resized)

	if fn == nil {
		return
	}
	depth := d.depth + 2
	for i, scope := range scopes {
		fn(d.child(depth, scope, d.elementKey(name, i), false), i)
		if d.f.err != nil {
			return
		}
	}
}
