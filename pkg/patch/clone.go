package patch

import (
	"strconv"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Clone deep-copies the containers of a data tree. Maps and slices are
// rebuilt; every other value is treated as an immutable scalar.
func Clone(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		if typed == nil {
			return typed
		}
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = Clone(value)
		}
		return out
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = Clone(value)
		}
		return out
	default:
		return v
	}
}

// Get returns the value stored at path. ok is false when any hop is missing;
// a nil hole inside a sequence reports ok=true with a nil value.
func Get(tree any, path fieldpath.Path) (any, bool) {
	return lookup(tree, path)
}

func lookup(tree any, path fieldpath.Path) (any, bool) {
	current := tree
	for _, seg := range path {
		switch typed := current.(type) {
		case map[string]any:
			key := seg.Key()
			if seg.IsIndex() {
				key = strconv.Itoa(seg.Index())
			}
			next, ok := typed[key]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			if !seg.IsIndex() || seg.Index() >= len(typed) {
				return nil, false
			}
			current = typed[seg.Index()]
		default:
			return nil, false
		}
	}
	return current, true
}
