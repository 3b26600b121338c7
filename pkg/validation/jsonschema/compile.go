package jsonschema

import (
	"fmt"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// dateFormat is registered on every compiler; it accepts RFC 3339 timestamps
// and plain calendar dates.
const dateFormat = "form-date"

// Document compiles node into a Draft 2020-12 JSON Schema document. Effects
// contribute nothing structurally; their refinements and transforms run
// after structural validation.
func Document(node *schema.Node) (map[string]any, error) {
	doc, err := compileNode(node)
	if err != nil {
		return nil, err
	}
	doc["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return doc, nil
}

func compileNode(node *schema.Node) (map[string]any, error) {
	if node == nil {
		return nil, &schema.SchemaError{Reason: "nil schema node"}
	}
	switch node.Kind() {
	case schema.KindOptional, schema.KindDefault, schema.KindEffects:
		return compileNode(node.Inner())
	case schema.KindNullable:
		inner, err := compileNode(node.Inner())
		if err != nil {
			return nil, err
		}
		return allowNull(inner), nil
	case schema.KindString:
		return compileString(node), nil
	case schema.KindNumber:
		return compileNumber(node), nil
	case schema.KindBoolean:
		return map[string]any{"type": "boolean"}, nil
	case schema.KindDate:
		return map[string]any{"type": "string", "format": dateFormat}, nil
	case schema.KindLiteral:
		return map[string]any{"const": node.LiteralValue()}, nil
	case schema.KindEnum:
		values := node.EnumValues()
		enum := make([]any, len(values))
		for i, v := range values {
			enum[i] = v
		}
		return map[string]any{"type": "string", "enum": enum}, nil
	case schema.KindArray:
		return compileArray(node)
	case schema.KindObject:
		return compileObject(node)
	case schema.KindDiscriminatedUnion:
		return compileUnion(node)
	default:
		return nil, &schema.SchemaError{Kind: node.Kind(), Reason: "unsupported kind"}
	}
}

func compileString(node *schema.Node) map[string]any {
	out := map[string]any{"type": "string"}
	checks := node.Checks()
	if checks.MinLength != nil {
		out["minLength"] = *checks.MinLength
	}
	if checks.MaxLength != nil {
		out["maxLength"] = *checks.MaxLength
	}
	if checks.Pattern != "" {
		out["pattern"] = checks.Pattern
	}
	return out
}

func compileNumber(node *schema.Node) map[string]any {
	out := map[string]any{"type": "number"}
	checks := node.Checks()
	if checks.Integer {
		out["type"] = "integer"
	}
	if checks.Min != nil {
		out["minimum"] = *checks.Min
	}
	if checks.Max != nil {
		out["maximum"] = *checks.Max
	}
	return out
}

func compileArray(node *schema.Node) (map[string]any, error) {
	items, err := compileNode(node.Element())
	if err != nil {
		return nil, err
	}
	// sequence holes are absent elements
	if optional(node.Element()) {
		items = allowNull(items)
	}
	out := map[string]any{"type": "array", "items": items}
	lengths := node.Lengths()
	if lengths.Min != nil {
		out["minItems"] = *lengths.Min
	}
	if lengths.Max != nil {
		out["maxItems"] = *lengths.Max
	}
	if lengths.Exact != nil {
		out["minItems"] = *lengths.Exact
		out["maxItems"] = *lengths.Exact
	}
	return out, nil
}

func compileObject(node *schema.Node) (map[string]any, error) {
	props := make(map[string]any)
	required := make([]any, 0)
	for _, field := range node.Shape() {
		child, err := compileNode(field.Node)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		props[field.Name] = child
		if !optional(field.Node) {
			required = append(required, field.Name)
		}
	}
	out := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		out["required"] = required
	}
	return out, nil
}

// compileUnion checks the discriminator first, then applies the matching
// variant through if/then so only that variant's issues are reported.
func compileUnion(node *schema.Node) (map[string]any, error) {
	disc := node.Discriminator()
	literals, err := schema.DiscriminatorOptions(node)
	if err != nil {
		return nil, err
	}
	branches := make([]any, 0, len(literals))
	for i, variant := range node.Variants() {
		then, err := compileNode(variant)
		if err != nil {
			return nil, err
		}
		branches = append(branches, map[string]any{
			"if": map[string]any{
				"type":       "object",
				"required":   []any{disc},
				"properties": map[string]any{disc: map[string]any{"const": literals[i]}},
			},
			"then": then,
		})
	}
	return map[string]any{
		"type":       "object",
		"required":   []any{disc},
		"properties": map[string]any{disc: map[string]any{"enum": literals}},
		"allOf":      branches,
	}, nil
}

// optional reports whether a field may be absent: an optional or default
// wrapper sits somewhere on its wrapper chain.
func optional(node *schema.Node) bool {
	for current := node; current != nil && current.Kind().IsWrapper(); current = current.Inner() {
		switch current.Kind() {
		case schema.KindOptional, schema.KindDefault:
			return true
		}
	}
	return false
}

func allowNull(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	if c, ok := out["const"]; ok {
		delete(out, "const")
		out["enum"] = []any{c, nil}
	}
	if enum, ok := out["enum"].([]any); ok {
		out["enum"] = append(append([]any{}, enum...), nil)
	}
	switch t := out["type"].(type) {
	case string:
		out["type"] = []any{t, "null"}
	case []any:
		out["type"] = append(append([]any{}, t...), "null")
	}
	return out
}
