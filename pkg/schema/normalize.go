package schema

// UnwrapOne removes a single wrapper level. The returned node is a shallow
// copy of the inner schema whose metadata is the inner metadata overlaid by
// the wrapper's own (wrapper wins). Effects unwrap to their pre-transform
// inner schema. Non-wrapper nodes are returned unchanged.
func UnwrapOne(node *Node) (*Node, error) {
	if node == nil {
		return nil, schemaErr("", "", "nil schema node")
	}
	if !node.kind.IsWrapper() {
		return node, nil
	}
	if node.inner == nil {
		return nil, schemaErr(node.kind, "", "wrapper carries no inner schema")
	}
	out := node.inner.clone()
	out.meta = node.inner.meta.overlay(node.meta)
	return out, nil
}

// UnwrapDeep repeats UnwrapOne until a non-wrapper kind is reached.
func UnwrapDeep(node *Node) (*Node, error) {
	res, err := Resolve(node)
	if err != nil {
		return nil, err
	}
	return res.Node, nil
}

// Resolution is the outcome of fully unwrapping a node together with what
// the crossed wrappers imply for the field.
type Resolution struct {
	Node *Node
	// Required is false once an optional or nullable wrapper was crossed.
	Required bool
	Nullable bool
	// Default is the outermost default wrapper, if any.
	Default *Node
	// Effects lists the crossed effects payloads, outermost first.
	Effects []Effect
}

// Resolve unwraps node iteratively. A wrapper chain that revisits a node or
// ends in a nil inner schema fails with a *SchemaError instead of looping.
func Resolve(node *Node) (Resolution, error) {
	if node == nil {
		return Resolution{}, schemaErr("", "", "nil schema node")
	}

	res := Resolution{Required: true}
	var acc Metadata
	seen := make(map[*Node]struct{})
	current := node
	for current.kind.IsWrapper() {
		if _, ok := seen[current]; ok {
			return Resolution{}, schemaErr(current.kind, "", "wrapper chain is cyclic")
		}
		seen[current] = struct{}{}

		switch current.kind {
		case KindOptional:
			res.Required = false
		case KindNullable:
			res.Required = false
			res.Nullable = true
		case KindDefault:
			if res.Default == nil {
				res.Default = current
			}
		case KindEffects:
			if eff, ok := current.Effect(); ok {
				res.Effects = append(res.Effects, eff)
			}
		}

		acc = current.meta.overlay(acc)
		if current.inner == nil {
			return Resolution{}, schemaErr(current.kind, "", "wrapper carries no inner schema")
		}
		current = current.inner
	}

	if current == node {
		res.Node = node
		return res, nil
	}
	out := current.clone()
	out.meta = current.meta.overlay(acc)
	res.Node = out
	return res, nil
}

// FormRoot returns the schema a form is built from: an object or a
// discriminated union, optionally behind effects wrappers.
func FormRoot(node *Node) (*Node, error) {
	if node == nil {
		return nil, schemaErr("", "", "nil schema node")
	}
	var acc Metadata
	seen := make(map[*Node]struct{})
	current := node
	for current.kind == KindEffects {
		if _, ok := seen[current]; ok {
			return nil, schemaErr(current.kind, "", "wrapper chain is cyclic")
		}
		seen[current] = struct{}{}
		if current.inner == nil {
			return nil, schemaErr(current.kind, "", "wrapper carries no inner schema")
		}
		acc = current.meta.overlay(acc)
		current = current.inner
	}
	switch current.kind {
	case KindObject, KindDiscriminatedUnion:
	default:
		return nil, schemaErr(current.kind, "", "form root must be an object or discriminated union")
	}
	if current == node {
		return node, nil
	}
	out := current.clone()
	out.meta = current.meta.overlay(acc)
	return out, nil
}
