package orchestrator

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Transformer rewrites a converted schema before a form is built from it.
// Schema nodes are immutable, so implementations return the replacement.
type Transformer interface {
	Transform(ctx context.Context, node *schema.Node) (*schema.Node, error)
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, node *schema.Node) (*schema.Node, error)

// Transform executes the wrapped function. A nil func leaves node unchanged.
func (fn TransformerFunc) Transform(ctx context.Context, node *schema.Node) (*schema.Node, error) {
	if fn == nil {
		return node, nil
	}
	return fn(ctx, node)
}

// RefineField returns a Transformer that checks the named top level field
// whenever it holds a value. OpenAPI has no way to express refinements, so
// callers attach them after conversion. Issues are reported at the field.
func RefineField(name string, check func(any) bool, message string) Transformer {
	return TransformerFunc(func(_ context.Context, node *schema.Node) (*schema.Node, error) {
		root := func(value any) bool {
			obj, ok := value.(map[string]any)
			if !ok {
				return true
			}
			v, present := obj[name]
			if !present || v == nil {
				return true
			}
			return check(v)
		}
		return node.Refine(root, message, schema.RefinePath(name)), nil
	})
}
