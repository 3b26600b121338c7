package openapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// ErrComponentNotFound is returned when a document has no schema component
// with the requested name.
var ErrComponentNotFound = errors.New("openapi: component not found")

// orderExtension sorts object properties; properties without it come last,
// by name.
const orderExtension = "x-order"

// ParseOption configures document parsing.
type ParseOption func(*parseConfig)

type parseConfig struct {
	validate bool
}

// WithDocumentValidation validates the whole document with kin-openapi
// before converting. Examples are not validated.
func WithDocumentValidation() ParseOption {
	return func(cfg *parseConfig) {
		cfg.validate = true
	}
}

// Parse loads raw (JSON or YAML) with kin-openapi. External references are
// not followed.
func Parse(ctx context.Context, raw []byte, opts ...ParseOption) (*openapi3.T, error) {
	cfg := parseConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = false

	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if cfg.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return spec, nil
}

// Components lists the schema component names of raw in sorted order.
func Components(ctx context.Context, raw []byte, opts ...ParseOption) ([]string, error) {
	spec, err := Parse(ctx, raw, opts...)
	if err != nil {
		return nil, err
	}
	schemas := componentSchemas(spec)
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FromOpenAPI converts the schema component named component of raw.
func FromOpenAPI(ctx context.Context, raw []byte, component string, opts ...ParseOption) (*schema.Node, error) {
	spec, err := Parse(ctx, raw, opts...)
	if err != nil {
		return nil, err
	}
	ref, ok := componentSchemas(spec)[component]
	if !ok || ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, component)
	}
	return FromSchemaRef(ref)
}

// FromDocument converts a component of a loaded document.
func FromDocument(ctx context.Context, doc Document, component string, opts ...ParseOption) (*schema.Node, error) {
	node, err := FromOpenAPI(ctx, doc.raw, component, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Location(), err)
	}
	return node, nil
}

func componentSchemas(spec *openapi3.T) openapi3.Schemas {
	if spec == nil || spec.Components == nil {
		return nil
	}
	return spec.Components.Schemas
}

// FromSchemaRef converts a resolved schema reference. Recursive references
// cannot be expressed as a form and are reported as *schema.SchemaError.
func FromSchemaRef(ref *openapi3.SchemaRef) (*schema.Node, error) {
	c := &converter{visiting: make(map[*openapi3.Schema]bool)}
	return c.convert(ref, "")
}

type converter struct {
	visiting map[*openapi3.Schema]bool
}

func (c *converter) convert(ref *openapi3.SchemaRef, at string) (*schema.Node, error) {
	if ref == nil || ref.Value == nil {
		reason := "missing schema"
		if ref != nil && ref.Ref != "" {
			reason = fmt.Sprintf("unresolved reference %q", ref.Ref)
		}
		return nil, &schema.SchemaError{Path: at, Reason: reason}
	}
	src := ref.Value
	if c.visiting[src] {
		return nil, &schema.SchemaError{Path: at, Reason: fmt.Sprintf("recursive reference %q", ref.Ref)}
	}
	c.visiting[src] = true
	defer delete(c.visiting, src)

	node, err := c.base(src, at)
	if err != nil {
		return nil, err
	}

	if src.Description != "" {
		node = node.Describe(src.Description)
	}
	if src.Title != "" {
		node = node.Annotate("title", src.Title)
	}
	for _, key := range extensionKeys(src.Extensions) {
		node = node.Annotate(key, src.Extensions[key])
	}
	if src.Nullable || hasType(src.Type, "null") {
		node = node.Nullable()
	}
	if src.Default != nil {
		node = node.DefaultTo(src.Default)
	}
	return node, nil
}

func (c *converter) base(src *openapi3.Schema, at string) (*schema.Node, error) {
	if len(src.OneOf) > 0 {
		return c.union(src, at)
	}
	if len(src.Enum) > 0 {
		return enum(src, at)
	}

	switch {
	case hasType(src.Type, openapi3.TypeString):
		if src.Format == "date" || src.Format == "date-time" {
			return schema.Date(), nil
		}
		node := schema.String()
		if src.Format != "" {
			node = node.Annotate("format", src.Format)
		}
		if src.MinLength > 0 {
			node = node.MinLength(int(src.MinLength))
		}
		if src.MaxLength != nil {
			node = node.MaxLength(int(*src.MaxLength))
		}
		if src.Pattern != "" {
			node = node.Pattern(src.Pattern)
		}
		return node, nil

	case hasType(src.Type, openapi3.TypeInteger), hasType(src.Type, openapi3.TypeNumber):
		node := schema.Number()
		if hasType(src.Type, openapi3.TypeInteger) {
			node = node.Int()
		}
		if src.Min != nil {
			node = node.Min(*src.Min)
		}
		if src.Max != nil {
			node = node.Max(*src.Max)
		}
		return node, nil

	case hasType(src.Type, openapi3.TypeBoolean):
		return schema.Boolean(), nil

	case hasType(src.Type, openapi3.TypeArray):
		if src.Items == nil {
			return nil, &schema.SchemaError{Kind: schema.KindArray, Path: at, Reason: "array without items"}
		}
		element, err := c.convert(src.Items, at+"[]")
		if err != nil {
			return nil, err
		}
		node := schema.Array(element)
		if src.MinItems > 0 {
			node = node.MinItems(int(src.MinItems))
		}
		if src.MaxItems != nil {
			node = node.MaxItems(int(*src.MaxItems))
		}
		return node, nil

	case hasType(src.Type, openapi3.TypeObject), len(src.Properties) > 0, len(src.AllOf) > 0:
		return c.object(src, at)

	default:
		return nil, &schema.SchemaError{Path: at, Reason: fmt.Sprintf("unsupported schema type %v", typeNames(src.Type))}
	}
}

type property struct {
	name     string
	ref      *openapi3.SchemaRef
	order    float64
	required bool
}

// object merges the properties of src and of its allOf members.
func (c *converter) object(src *openapi3.Schema, at string) (*schema.Node, error) {
	props := make(map[string]*property)
	if err := c.collect(src, props, at); err != nil {
		return nil, err
	}

	list := make([]*property, 0, len(props))
	for _, p := range props {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].order != list[j].order {
			return list[i].order < list[j].order
		}
		return list[i].name < list[j].name
	})

	fields := make([]schema.Field, 0, len(list))
	for _, p := range list {
		child, err := c.convert(p.ref, joinPath(at, p.name))
		if err != nil {
			return nil, err
		}
		if !p.required && p.ref.Value.Default == nil {
			child = child.Optional()
		}
		fields = append(fields, schema.F(p.name, child))
	}
	return schema.Object(fields...), nil
}

func (c *converter) collect(src *openapi3.Schema, props map[string]*property, at string) error {
	for _, member := range src.AllOf {
		if member == nil || member.Value == nil {
			return &schema.SchemaError{Path: at, Reason: "unresolved allOf member"}
		}
		if c.visiting[member.Value] {
			return &schema.SchemaError{Path: at, Reason: fmt.Sprintf("recursive reference %q", member.Ref)}
		}
		c.visiting[member.Value] = true
		err := c.collect(member.Value, props, at)
		delete(c.visiting, member.Value)
		if err != nil {
			return err
		}
	}
	for name, ref := range src.Properties {
		p := &property{name: name, ref: ref, order: math.Inf(1)}
		if ref != nil && ref.Value != nil {
			if v, ok := toFloat(ref.Value.Extensions[orderExtension]); ok {
				p.order = v
			}
		}
		if prev, ok := props[name]; ok {
			p.required = prev.required
		}
		props[name] = p
	}
	for _, name := range src.Required {
		if p, ok := props[name]; ok {
			p.required = true
		}
	}
	return nil
}

func (c *converter) union(src *openapi3.Schema, at string) (*schema.Node, error) {
	if src.Discriminator == nil || src.Discriminator.PropertyName == "" {
		return nil, &schema.SchemaError{Kind: schema.KindDiscriminatedUnion, Path: at, Reason: "oneOf without discriminator"}
	}
	variants := make([]*schema.Node, 0, len(src.OneOf))
	for _, ref := range src.OneOf {
		variant, err := c.convert(ref, at)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return schema.DiscriminatedUnion(src.Discriminator.PropertyName, variants...), nil
}

// enum maps a single value to a literal and string values to an enum.
func enum(src *openapi3.Schema, at string) (*schema.Node, error) {
	if len(src.Enum) == 1 {
		return schema.Literal(src.Enum[0]), nil
	}
	values := make([]string, 0, len(src.Enum))
	for _, v := range src.Enum {
		s, ok := v.(string)
		if !ok {
			return nil, &schema.SchemaError{Kind: schema.KindEnum, Path: at, Reason: fmt.Sprintf("enum value %v is not a string", v)}
		}
		values = append(values, s)
	}
	return schema.Enum(values...), nil
}

func extensionKeys(ext map[string]any) []string {
	keys := make([]string, 0, len(ext))
	for key := range ext {
		if strings.HasPrefix(key, "x-") && key != orderExtension {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func hasType(types *openapi3.Types, name string) bool {
	if types == nil {
		return false
	}
	for _, t := range types.Slice() {
		if t == name {
			return true
		}
	}
	return false
}

func typeNames(types *openapi3.Types) []string {
	if types == nil {
		return nil
	}
	return types.Slice()
}

func joinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
