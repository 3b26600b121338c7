package patch

import (
	"strconv"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Apply returns a new tree with the event applied. The input tree is never
// mutated and the result shares no container with it. Missing intermediate
// containers never cause an error: removals become no-ops and updates
// materialize them.
func Apply(tree any, event Event) (any, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	next := Clone(tree)
	switch event.Op {
	case OpUpdate, OpArrayAdd:
		return set(next, event.Path, Clone(event.Value)), nil
	case OpRemove:
		return unset(next, event.Path, false), nil
	case OpArrayRemove:
		return unset(next, event.Path, true), nil
	}
	return next, nil
}

// Diff is the event applied to an empty object: the minimal tree describing
// what the event touched.
func Diff(event Event) any {
	out, err := Apply(map[string]any{}, event)
	if err != nil {
		return nil
	}
	return out
}

// set writes value at path inside container and returns the (possibly new)
// container. Missing or scalar children are replaced by a container of the
// shape the next segment needs. Slices may grow, so callers always store the
// return value.
func set(container any, path fieldpath.Path, value any) any {
	if len(path) == 0 {
		return value
	}
	seg := path[0]
	rest := path[1:]

	if seg.IsIndex() {
		list, ok := container.([]any)
		if !ok {
			if m, isMap := container.(map[string]any); isMap && m != nil {
				key := strconv.Itoa(seg.Index())
				m[key] = set(m[key], rest, value)
				return m
			}
			list = nil
		}
		for len(list) <= seg.Index() {
			list = append(list, nil)
		}
		list[seg.Index()] = set(list[seg.Index()], rest, value)
		return list
	}

	m, ok := container.(map[string]any)
	if !ok || m == nil {
		m = make(map[string]any)
	}
	m[seg.Key()] = set(m[seg.Key()], rest, value)
	return m
}

// unset removes the value at path. splice selects array-remove semantics for
// sequence parents; otherwise the slot is left as a nil hole.
func unset(tree any, path fieldpath.Path, splice bool) any {
	parentPath, last, ok := path.Parent()
	if !ok {
		return tree
	}

	parent, found := lookup(tree, parentPath)
	if !found || parent == nil {
		return tree
	}

	switch typed := parent.(type) {
	case []any:
		if !last.IsIndex() {
			return tree
		}
		idx := last.Index()
		if idx >= len(typed) {
			return tree
		}
		if !splice {
			typed[idx] = nil
			return tree
		}
		spliced := make([]any, 0, len(typed)-1)
		spliced = append(spliced, typed[:idx]...)
		spliced = append(spliced, typed[idx+1:]...)
		if len(parentPath) == 0 {
			return spliced
		}
		return set(tree, parentPath, spliced)
	case map[string]any:
		key := last.Key()
		if last.IsIndex() {
			key = strconv.Itoa(last.Index())
		}
		delete(typed, key)
	}
	return tree
}
