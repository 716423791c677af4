package serializer

import "fmt"

// Subsection saves or loads the nested block called name. fn receives a
// handle scoped to the block. When loading, a block that is not in the file
// still runs fn against an empty scope, so every lookup inside it reports
// "not found" and the caller's defaults survive.
func (d *Document) Subsection(name string, fn func(*Document)) *Document {
	if !d.ok() {
		return d
	}
	if !validKey(name) {
		d.fail(&ValueError{Key: d.key(name), Type: "section", Err: ErrInvalidKey})
		return d
	}

	if d.Saving() {
		d.writeLine(name + ":")
		if fn != nil {
			fn(d.child(d.depth+1, noNode, d.key(name), false))
		}
		return d
	}

	scope := noNode
	if n, found := d.f.tree.lookup(d.node, name); found {
		switch nd := &d.f.tree.nodes[n]; nd.kind {
		case kindMapping:
			scope = n
		case kindEmpty:
		default:
			d.fail(structureError(d.f.path, d.key(name), nd.line, fmt.Sprintf("expected a section, found %s", nd.kind)))
			return d
		}
	}
	if fn != nil {
		fn(d.child(d.depth+1, scope, d.key(name), false))
	}
	return d
}
