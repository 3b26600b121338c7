package render

import (
	"github.com/goliatone/go-formengine/pkg/conditions"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// Unit is whatever a renderer produces for one node. The engine passes units
// back as children and never inspects them.
type Unit any

// Renderer turns resolved props into a renderable unit. It is called once per
// visible schema node, children first.
type Renderer interface {
	RenderNode(props Props, children []Unit) (Unit, error)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(props Props, children []Unit) (Unit, error)

// RenderNode calls fn.
func (fn RendererFunc) RenderNode(props Props, children []Unit) (Unit, error) {
	return fn(props, children)
}

// Dispatcher applies a change event to the form that owns the context.
type Dispatcher func(event patch.Event) error

// Context is the explicit form context handed to rendering code: the current
// data snapshot, its errors and visibility, and the patch dispatch handle.
type Context struct {
	Value    any
	Errors   validation.Errors
	Conds    conditions.Map
	Dispatch Dispatcher
}

// Visible reports whether the serialized path is visible.
func (c Context) Visible(name string) bool {
	return c.Conds.Visible(name)
}

func (c Context) dispatch(event patch.Event) error {
	if c.Dispatch == nil {
		return nil
	}
	return c.Dispatch(event)
}
