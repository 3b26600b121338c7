package schema

import (
	"maps"
	"slices"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/patch"
)

// Metadata is the wrapper-mergeable information attached to a node.
type Metadata struct {
	Description string
	Annotations map[string]any
}

// overlay returns m with every non-empty entry of top written over it.
func (m Metadata) overlay(top Metadata) Metadata {
	out := Metadata{Description: m.Description}
	if top.Description != "" {
		out.Description = top.Description
	}
	if len(m.Annotations) > 0 || len(top.Annotations) > 0 {
		out.Annotations = make(map[string]any, len(m.Annotations)+len(top.Annotations))
		maps.Copy(out.Annotations, m.Annotations)
		maps.Copy(out.Annotations, top.Annotations)
	}
	return out
}

// Field is one named entry of an object shape.
type Field struct {
	Name string
	Node *Node
}

// F pairs a field name with its schema for Object.
func F(name string, node *Node) Field {
	return Field{Name: name, Node: node}
}

// Lengths bounds the element count of an array. Nil means undeclared.
type Lengths struct {
	Min   *int
	Max   *int
	Exact *int
}

// Checks holds the leaf constraints forwarded to the validator.
type Checks struct {
	Min       *float64
	Max       *float64
	Integer   bool
	MinLength *int
	MaxLength *int
	Pattern   string
}

func (c Checks) empty() bool {
	return c.Min == nil && c.Max == nil && !c.Integer &&
		c.MinLength == nil && c.MaxLength == nil && c.Pattern == ""
}

func (c Checks) numeric() bool {
	return c.Min != nil || c.Max != nil || c.Integer
}

func (c Checks) textual() bool {
	return c.MinLength != nil || c.MaxLength != nil || c.Pattern != ""
}

// DefaultFunc produces a fresh default value on every call.
type DefaultFunc func() any

// TransformFunc maps a validated value to the output value.
type TransformFunc func(value any) any

// Refinement is a custom check run after structural validation succeeds.
// Path is relative to the node the refinement is attached to.
type Refinement struct {
	Check   func(value any) bool
	Message string
	Path    fieldpath.Path
}

// RefineOption customises a Refinement.
type RefineOption func(*Refinement)

// RefinePath reports the refinement's issue at a child path.
func RefinePath(parts ...any) RefineOption {
	return func(r *Refinement) {
		r.Path = fieldpath.Of(parts...)
	}
}

// Effect is the refinement/transform payload of an effects wrapper.
type Effect struct {
	Refinements []Refinement
	Transform   TransformFunc
}

// Node is an immutable schema node. Builders return new nodes and never
// modify their receiver.
type Node struct {
	kind          Kind
	meta          Metadata
	inner         *Node
	element       *Node
	fields        []Field
	discriminator string
	variants      []*Node
	literal       any
	enum          []string
	lengths       Lengths
	checks        Checks
	effect        *Effect
	produce       DefaultFunc
}

func newNode(kind Kind) *Node {
	return &Node{kind: kind}
}

func (n *Node) clone() *Node {
	out := *n
	return &out
}

func wrap(kind Kind, inner *Node) *Node {
	return &Node{kind: kind, inner: inner}
}

func String() *Node  { return newNode(KindString) }
func Number() *Node  { return newNode(KindNumber) }
func Boolean() *Node { return newNode(KindBoolean) }
func Date() *Node    { return newNode(KindDate) }

// Literal accepts a single scalar value.
func Literal(value any) *Node {
	n := newNode(KindLiteral)
	n.literal = value
	return n
}

// Enum lists the allowed string values in display order.
func Enum(values ...string) *Node {
	n := newNode(KindEnum)
	n.enum = slices.Clone(values)
	return n
}

func Array(element *Node) *Node {
	n := newNode(KindArray)
	n.element = element
	return n
}

// Object declares fields in rendering and default-derivation order.
func Object(fields ...Field) *Node {
	n := newNode(KindObject)
	n.fields = slices.Clone(fields)
	return n
}

// DiscriminatedUnion selects among object variants by the literal value of
// the discriminator field.
func DiscriminatedUnion(discriminator string, variants ...*Node) *Node {
	n := newNode(KindDiscriminatedUnion)
	n.discriminator = discriminator
	n.variants = slices.Clone(variants)
	return n
}

func (n *Node) Optional() *Node { return wrap(KindOptional, n) }
func (n *Node) Nullable() *Node { return wrap(KindNullable, n) }

// Default wraps n with a default producer used when the value is absent.
func (n *Node) Default(producer DefaultFunc) *Node {
	out := wrap(KindDefault, n)
	out.produce = producer
	return out
}

// DefaultTo is Default with a constant; every call yields a deep copy.
func (n *Node) DefaultTo(value any) *Node {
	return n.Default(func() any { return patch.Clone(value) })
}

// Refine wraps n in an effects node carrying one refinement.
func (n *Node) Refine(check func(value any) bool, message string, opts ...RefineOption) *Node {
	ref := Refinement{Check: check, Message: message}
	for _, opt := range opts {
		if opt != nil {
			opt(&ref)
		}
	}
	out := wrap(KindEffects, n)
	out.effect = &Effect{Refinements: []Refinement{ref}}
	return out
}

// Transform wraps n in an effects node mapping the validated value.
func (n *Node) Transform(fn TransformFunc) *Node {
	out := wrap(KindEffects, n)
	out.effect = &Effect{Transform: fn}
	return out
}

func (n *Node) Describe(text string) *Node {
	out := n.clone()
	out.meta = n.meta.overlay(Metadata{Description: text})
	return out
}

func (n *Node) Annotate(key string, value any) *Node {
	out := n.clone()
	out.meta = n.meta.overlay(Metadata{Annotations: map[string]any{key: value}})
	return out
}

func (n *Node) withChecks(fn func(*Checks)) *Node {
	out := n.clone()
	fn(&out.checks)
	return out
}

func (n *Node) Min(v float64) *Node {
	return n.withChecks(func(c *Checks) { c.Min = &v })
}

func (n *Node) Max(v float64) *Node {
	return n.withChecks(func(c *Checks) { c.Max = &v })
}

func (n *Node) Int() *Node {
	return n.withChecks(func(c *Checks) { c.Integer = true })
}

func (n *Node) MinLength(v int) *Node {
	return n.withChecks(func(c *Checks) { c.MinLength = &v })
}

func (n *Node) MaxLength(v int) *Node {
	return n.withChecks(func(c *Checks) { c.MaxLength = &v })
}

func (n *Node) Pattern(expr string) *Node {
	return n.withChecks(func(c *Checks) { c.Pattern = expr })
}

// NonEmpty requires one character for strings and one element for arrays.
func (n *Node) NonEmpty() *Node {
	if n.kind == KindArray {
		return n.MinItems(1)
	}
	return n.MinLength(1)
}

func (n *Node) MinItems(v int) *Node {
	out := n.clone()
	out.lengths.Min = &v
	return out
}

func (n *Node) MaxItems(v int) *Node {
	out := n.clone()
	out.lengths.Max = &v
	return out
}

// Length declares an exact element count.
func (n *Node) Length(v int) *Node {
	out := n.clone()
	out.lengths.Exact = &v
	return out
}

// Kind returns the node tag; a nil node has the empty kind.
func (n *Node) Kind() Kind {
	if n == nil {
		return ""
	}
	return n.kind
}

// Metadata returns a copy of the node metadata.
func (n *Node) Metadata() Metadata {
	if n == nil {
		return Metadata{}
	}
	return n.meta.overlay(Metadata{})
}

// Description is a shortcut for Metadata().Description.
func (n *Node) Description() string {
	if n == nil {
		return ""
	}
	return n.meta.Description
}

// Annotation returns a single annotation value.
func (n *Node) Annotation(key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	v, ok := n.meta.Annotations[key]
	return v, ok
}

// Inner returns the wrapped schema of a wrapper node.
func (n *Node) Inner() *Node {
	if n == nil {
		return nil
	}
	return n.inner
}

func (n *Node) Element() *Node {
	if n == nil {
		return nil
	}
	return n.element
}

// Shape returns the object fields in declaration order.
func (n *Node) Shape() []Field {
	if n == nil {
		return nil
	}
	return slices.Clone(n.fields)
}

// Field looks up an object field by name.
func (n *Node) Field(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for _, f := range n.fields {
		if f.Name == name {
			return f.Node, true
		}
	}
	return nil, false
}

func (n *Node) Variants() []*Node {
	if n == nil {
		return nil
	}
	return slices.Clone(n.variants)
}

func (n *Node) Discriminator() string {
	if n == nil {
		return ""
	}
	return n.discriminator
}

func (n *Node) LiteralValue() any {
	if n == nil {
		return nil
	}
	return n.literal
}

func (n *Node) EnumValues() []string {
	if n == nil {
		return nil
	}
	return slices.Clone(n.enum)
}

func (n *Node) Lengths() Lengths {
	if n == nil {
		return Lengths{}
	}
	return n.lengths
}

func (n *Node) Checks() Checks {
	if n == nil {
		return Checks{}
	}
	return n.checks
}

// Effect returns the effects payload; ok is false for other kinds.
func (n *Node) Effect() (Effect, bool) {
	if n == nil || n.effect == nil {
		return Effect{}, false
	}
	return Effect{
		Refinements: slices.Clone(n.effect.Refinements),
		Transform:   n.effect.Transform,
	}, true
}

// DefaultValue invokes the producer of a default wrapper.
func (n *Node) DefaultValue() (any, bool) {
	if n == nil || n.kind != KindDefault || n.produce == nil {
		return nil, false
	}
	return n.produce(), true
}
