// Package jsontree renders a form as a JSON document describing its visible
// nodes in order, for client-side renderers that hydrate the form
// themselves.
package jsontree

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formengine/pkg/form"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/widgets"
)

// Option customises the renderer configuration.
type Option func(*Renderer)

// WithWidgets replaces the widget registry used to fill Element.Widget.
func WithWidgets(registry *widgets.Registry) Option {
	return func(r *Renderer) {
		r.widgets = registry
	}
}

// WithLocalizer translates labels through l.
func WithLocalizer(l *render.Localizer) Option {
	return func(r *Renderer) {
		r.walkOpts = append(r.walkOpts, render.WithLocalizer(l))
	}
}

// WithIndent pretty-prints the output with indent per level.
func WithIndent(indent string) Option {
	return func(r *Renderer) {
		r.indent = indent
	}
}

// Document is the top-level payload.
type Document struct {
	State string   `json:"state"`
	Value any      `json:"value"`
	Root  *Element `json:"root"`
}

// Element is one visible node. Children keep the walk order.
type Element struct {
	Role        render.Role `json:"role"`
	Kind        string      `json:"kind"`
	Name        string      `json:"name"`
	Widget      string      `json:"widget,omitempty"`
	Label       string      `json:"label,omitempty"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Required    bool        `json:"required"`
	Nullable    bool        `json:"nullable,omitempty"`
	Value       any         `json:"value,omitempty"`
	Error       string      `json:"error,omitempty"`
	Options     []Choice    `json:"options,omitempty"`
	Rules       *Rules      `json:"rules,omitempty"`
	Children    []*Element  `json:"children,omitempty"`
}

// Choice is one selectable option.
type Choice struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// Rules carries the client-checkable constraints of a node.
type Rules struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Integer   bool     `json:"integer,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	MinItems  *int     `json:"minItems,omitempty"`
	MaxItems  *int     `json:"maxItems,omitempty"`
}

func (r *Rules) empty() bool {
	return r.Min == nil && r.Max == nil && !r.Integer && r.MinLength == nil &&
		r.MaxLength == nil && r.Pattern == "" && r.MinItems == nil && r.MaxItems == nil
}

// Renderer builds Elements. Every unit it returns is an *Element.
type Renderer struct {
	widgets  *widgets.Registry
	walkOpts []render.WalkOption
	indent   string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a renderer applying any provided options.
func New(options ...Option) *Renderer {
	r := &Renderer{widgets: widgets.NewRegistry()}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Name identifies the renderer.
func (r *Renderer) Name() string {
	return "json"
}

// ContentType returns the MIME type for generated documents.
func (r *Renderer) ContentType() string {
	return "application/json"
}

// Tree walks f and returns its document without encoding it.
func (r *Renderer) Tree(f *form.Form) (Document, error) {
	if f == nil {
		return Document{}, fmt.Errorf("json renderer: form is nil")
	}
	unit, err := f.Render(r, r.walkOpts...)
	if err != nil {
		return Document{}, fmt.Errorf("json renderer: %w", err)
	}
	root, _ := unit.(*Element)
	return Document{State: string(f.State()), Value: f.Data(), Root: root}, nil
}

// Render walks f and encodes its document.
func (r *Renderer) Render(f *form.Form) ([]byte, error) {
	doc, err := r.Tree(f)
	if err != nil {
		return nil, err
	}
	var out []byte
	if r.indent != "" {
		out, err = json.MarshalIndent(doc, "", r.indent)
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return nil, fmt.Errorf("json renderer: marshal: %w", err)
	}
	return out, nil
}

// RenderNode implements render.Renderer.
func (r *Renderer) RenderNode(props render.Props, children []render.Unit) (render.Unit, error) {
	el := &Element{
		Role:        props.Role,
		Kind:        string(props.Kind),
		Name:        props.Name,
		Label:       props.Label,
		Title:       props.Title,
		Description: props.Description,
		Placeholder: props.Placeholder,
		Required:    props.Required,
		Nullable:    props.Nullable,
		Error:       props.Error,
	}
	if props.Role == render.RoleField || props.Role == render.RoleDiscriminator || props.Role == render.RoleMultiChoice {
		el.Value = props.Value
		if name, ok := r.widgets.Resolve(props); ok && widgets.Supports(name, props.Kind) {
			el.Widget = name
		}
	}
	for _, opt := range props.Options {
		el.Options = append(el.Options, Choice{Value: opt.Value, Label: opt.Label})
	}

	rules := &Rules{
		Min:       props.Min,
		Max:       props.Max,
		Integer:   props.Integer,
		MinLength: props.MinLength,
		MaxLength: props.MaxLength,
		Pattern:   props.Pattern,
		MinItems:  props.MinItems,
		MaxItems:  props.MaxItems,
	}
	if !rules.empty() {
		el.Rules = rules
	}

	for _, child := range children {
		switch c := child.(type) {
		case nil:
		case *Element:
			el.Children = append(el.Children, c)
		default:
			return nil, fmt.Errorf("json renderer: unexpected unit %T", child)
		}
	}
	return el, nil
}
