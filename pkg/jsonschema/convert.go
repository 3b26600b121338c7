package jsonschema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

var supportedKeywords = map[string]struct{}{
	"$schema":              {},
	"$id":                  {},
	"$defs":                {},
	"$anchor":              {},
	"$comment":             {},
	"type":                 {},
	"properties":           {},
	"required":             {},
	"additionalProperties": {},
	"items":                {},
	"minItems":             {},
	"maxItems":             {},
	"oneOf":                {},
	"enum":                 {},
	"const":                {},
	"title":                {},
	"description":          {},
	"examples":             {},
	"default":              {},
	"minimum":              {},
	"maximum":              {},
	"exclusiveMinimum":     {},
	"exclusiveMaximum":     {},
	"minLength":            {},
	"maxLength":            {},
	"pattern":              {},
	"format":               {},
}

const (
	// orderExtension sorts object properties; properties without it come
	// last, by name.
	orderExtension = "x-order"
	// discriminatorExtension names the discriminator of a oneOf.
	discriminatorExtension = "x-discriminator"
	// DefaultDiscriminator is used when a oneOf has no x-discriminator.
	DefaultDiscriminator = "_type"
)

// convert turns a resolved payload into a schema node. at is the JSON
// pointer of payload, used in errors.
func convert(node any, at string) (*schema.Node, error) {
	payload, ok := node.(map[string]any)
	if !ok {
		return nil, &schema.SchemaError{Path: at, Reason: "schema must be an object"}
	}
	if ref := strings.TrimSpace(readString(payload, "$ref")); ref != "" {
		return nil, &schema.SchemaError{Path: at, Reason: fmt.Sprintf("unresolved $ref %q", ref)}
	}
	if err := validateKeywords(payload, at); err != nil {
		return nil, err
	}

	typ, nullable, err := schemaType(payload, at)
	if err != nil {
		return nil, err
	}
	out, err := base(payload, typ, at)
	if err != nil {
		return nil, err
	}

	if description := strings.TrimSpace(readString(payload, "description")); description != "" {
		out = out.Describe(description)
	}
	if title := strings.TrimSpace(readString(payload, "title")); title != "" {
		out = out.Annotate("title", title)
	}
	for _, key := range sortedKeys(payload) {
		if isVendorExtension(key) && key != orderExtension && key != discriminatorExtension {
			out = out.Annotate(key, payload[key])
		}
	}
	if out, err = exclusiveBounds(payload, out, at); err != nil {
		return nil, err
	}
	if nullable {
		out = out.Nullable()
	}
	if value, ok := payload["default"]; ok {
		out = out.DefaultTo(value)
	}
	return out, nil
}

func base(payload map[string]any, typ, at string) (*schema.Node, error) {
	if _, ok := payload["oneOf"]; ok {
		return union(payload, at)
	}
	if value, ok := payload["const"]; ok {
		return schema.Literal(value), nil
	}
	if _, ok := payload["enum"]; ok {
		return enum(payload, at)
	}
	if typ == "" {
		if _, ok := payload["properties"]; ok {
			typ = "object"
		}
	}

	switch typ {
	case "string":
		return stringNode(payload, at)
	case "integer", "number":
		return numberNode(payload, typ == "integer", at)
	case "boolean":
		return schema.Boolean(), nil
	case "array":
		return arrayNode(payload, at)
	case "object":
		return object(payload, at)
	case "":
		return nil, &schema.SchemaError{Path: at, Reason: "schema has no type"}
	default:
		return nil, &schema.SchemaError{Path: at, Reason: fmt.Sprintf("unsupported type %q", typ)}
	}
}

// schemaType reads "type". A two-entry list with "null" marks the schema
// nullable; other lists are rejected.
func schemaType(payload map[string]any, at string) (string, bool, error) {
	switch typed := payload["type"].(type) {
	case nil:
		return "", false, nil
	case string:
		return strings.TrimSpace(typed), false, nil
	case []any:
		var names []string
		nullable := false
		for _, entry := range typed {
			name, ok := entry.(string)
			if !ok {
				return "", false, &schema.SchemaError{Path: at, Reason: "type entries must be strings"}
			}
			if name == "null" {
				nullable = true
				continue
			}
			names = append(names, name)
		}
		if len(names) != 1 {
			return "", false, &schema.SchemaError{Path: at, Reason: fmt.Sprintf("unsupported type union %v", typed)}
		}
		return names[0], nullable, nil
	default:
		return "", false, &schema.SchemaError{Path: at, Reason: "type must be a string or a list"}
	}
}

func stringNode(payload map[string]any, at string) (*schema.Node, error) {
	format := strings.TrimSpace(readString(payload, "format"))
	if format == "date" || format == "date-time" {
		return schema.Date(), nil
	}
	node := schema.String()
	if format != "" {
		node = node.Annotate("format", format)
	}
	if raw, ok := payload["minLength"]; ok {
		value, ok := toInt(raw)
		if !ok {
			return nil, &schema.SchemaError{Path: at, Reason: "minLength must be an integer"}
		}
		if value > 0 {
			node = node.MinLength(value)
		}
	}
	if raw, ok := payload["maxLength"]; ok {
		value, ok := toInt(raw)
		if !ok {
			return nil, &schema.SchemaError{Path: at, Reason: "maxLength must be an integer"}
		}
		node = node.MaxLength(value)
	}
	if raw, ok := payload["pattern"]; ok {
		pattern, ok := raw.(string)
		if !ok {
			return nil, &schema.SchemaError{Path: at, Reason: "pattern must be a string"}
		}
		node = node.Pattern(pattern)
	}
	return node, nil
}

func numberNode(payload map[string]any, integer bool, at string) (*schema.Node, error) {
	node := schema.Number()
	if integer {
		node = node.Int()
	}
	for _, key := range []string{"minimum", "maximum"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		bound, ok := toFloat(raw)
		if !ok {
			return nil, &schema.SchemaError{Path: at, Reason: key + " must be a number"}
		}
		if key == "minimum" {
			node = node.Min(bound)
		} else {
			node = node.Max(bound)
		}
	}
	return node, nil
}

// exclusiveBounds wraps node in refinements for exclusiveMinimum and
// exclusiveMaximum, which have no check of their own.
func exclusiveBounds(payload map[string]any, node *schema.Node, at string) (*schema.Node, error) {
	for _, key := range []string{"exclusiveMinimum", "exclusiveMaximum"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		bound, ok := toFloat(raw)
		if !ok {
			return nil, &schema.SchemaError{Path: at, Reason: key + " must be a number"}
		}
		text := strconv.FormatFloat(bound, 'f', -1, 64)
		if key == "exclusiveMinimum" {
			node = node.Refine(func(v any) bool {
				n, ok := toFloat(v)
				return !ok || n > bound
			}, "must be greater than "+text)
			continue
		}
		node = node.Refine(func(v any) bool {
			n, ok := toFloat(v)
			return !ok || n < bound
		}, "must be less than "+text)
	}
	return node, nil
}

func arrayNode(payload map[string]any, at string) (*schema.Node, error) {
	raw, ok := payload["items"]
	if !ok {
		return nil, &schema.SchemaError{Kind: schema.KindArray, Path: at, Reason: "array without items"}
	}
	if _, tuple := raw.([]any); tuple {
		return nil, &schema.SchemaError{Kind: schema.KindArray, Path: at, Reason: "tuple items are not supported"}
	}
	element, err := convert(raw, joinPath(at, "items"))
	if err != nil {
		return nil, err
	}
	node := schema.Array(element)
	for _, key := range []string{"minItems", "maxItems"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		value, ok := toInt(raw)
		if !ok {
			return nil, &schema.SchemaError{Kind: schema.KindArray, Path: at, Reason: key + " must be an integer"}
		}
		if key == "minItems" && value > 0 {
			node = node.MinItems(value)
		}
		if key == "maxItems" {
			node = node.MaxItems(value)
		}
	}
	return node, nil
}

type property struct {
	name     string
	payload  any
	order    float64
	required bool
}

// object orders properties by x-order, then name. Properties that are not
// required and carry no default become optional.
func object(payload map[string]any, at string) (*schema.Node, error) {
	required, err := requiredSet(payload, at)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if raw, ok := payload["properties"]; ok {
		props, ok = raw.(map[string]any)
		if !ok {
			return nil, &schema.SchemaError{Kind: schema.KindObject, Path: at, Reason: "properties must be an object"}
		}
	}

	list := make([]property, 0, len(props))
	for name, child := range props {
		p := property{name: name, payload: child, order: math.Inf(1), required: required[name]}
		if m, ok := child.(map[string]any); ok {
			if v, ok := toFloat(m[orderExtension]); ok {
				p.order = v
			}
		}
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
		child, err := convert(p.payload, joinPath(at, "properties", p.name))
		if err != nil {
			return nil, err
		}
		m, _ := p.payload.(map[string]any)
		_, hasDefault := m["default"]
		if !p.required && !hasDefault {
			child = child.Optional()
		}
		fields = append(fields, schema.F(p.name, child))
	}
	return schema.Object(fields...), nil
}

func requiredSet(payload map[string]any, at string) (map[string]bool, error) {
	raw, ok := payload["required"]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &schema.SchemaError{Path: at, Reason: "required must be an array"}
	}
	out := make(map[string]bool, len(list))
	for idx, item := range list {
		name, ok := item.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, &schema.SchemaError{Path: at, Reason: fmt.Sprintf("required[%d] must be a string", idx)}
		}
		out[name] = true
	}
	return out, nil
}

// union converts a oneOf of object variants. Every variant must pin the
// discriminator property with a const or a single-value enum.
func union(payload map[string]any, at string) (*schema.Node, error) {
	discriminator := DefaultDiscriminator
	if name := strings.TrimSpace(readString(payload, discriminatorExtension)); name != "" {
		discriminator = name
	}
	list, ok := payload["oneOf"].([]any)
	if !ok || len(list) == 0 {
		return nil, &schema.SchemaError{Kind: schema.KindDiscriminatedUnion, Path: at, Reason: "oneOf must be a non-empty array"}
	}

	variants := make([]*schema.Node, 0, len(list))
	for idx, entry := range list {
		variantAt := joinPath(at, "oneOf", strconv.Itoa(idx))
		if err := pinDiscriminator(entry, discriminator, variantAt); err != nil {
			return nil, err
		}
		variant, err := convert(entry, variantAt)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return schema.DiscriminatedUnion(discriminator, variants...), nil
}

// pinDiscriminator checks the variant's discriminator property and marks it
// required, so it converts to a literal field.
func pinDiscriminator(entry any, discriminator, at string) error {
	variant, ok := entry.(map[string]any)
	if !ok {
		return &schema.SchemaError{Kind: schema.KindDiscriminatedUnion, Path: at, Reason: "oneOf variant must be an object"}
	}
	if typ, _ := variant["type"].(string); typ != "" && typ != "object" {
		return &schema.SchemaError{Kind: schema.KindDiscriminatedUnion, Path: at, Reason: "oneOf variant must be an object"}
	}
	props, _ := variant["properties"].(map[string]any)
	prop, _ := props[discriminator].(map[string]any)
	if prop == nil {
		return &schema.SchemaError{Kind: schema.KindDiscriminatedUnion, Path: at, Reason: fmt.Sprintf("oneOf variant missing %s discriminator", discriminator)}
	}
	if _, ok := prop["const"]; !ok {
		values, _ := prop["enum"].([]any)
		if len(values) != 1 {
			return &schema.SchemaError{Kind: schema.KindDiscriminatedUnion, Path: at, Reason: fmt.Sprintf("%s must be a const", discriminator)}
		}
	}

	required, _ := variant["required"].([]any)
	for _, name := range required {
		if name == discriminator {
			return nil
		}
	}
	variant["required"] = append(append([]any(nil), required...), discriminator)
	return nil
}

func enum(payload map[string]any, at string) (*schema.Node, error) {
	values, ok := payload["enum"].([]any)
	if !ok || len(values) == 0 {
		return nil, &schema.SchemaError{Kind: schema.KindEnum, Path: at, Reason: "enum must be a non-empty array"}
	}
	if len(values) == 1 {
		return schema.Literal(values[0]), nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, &schema.SchemaError{Kind: schema.KindEnum, Path: at, Reason: fmt.Sprintf("enum value %v is not a string", v)}
		}
		out = append(out, s)
	}
	return schema.Enum(out...), nil
}

func validateKeywords(payload map[string]any, at string) error {
	for _, key := range sortedKeys(payload) {
		if isVendorExtension(key) {
			continue
		}
		if _, ok := supportedKeywords[key]; ok {
			continue
		}
		return &schema.SchemaError{Path: at, Reason: fmt.Sprintf("unsupported keyword %q", key)}
	}
	return nil
}

func isVendorExtension(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "x-")
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
		return 0, false
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

func joinPath(path string, segments ...string) string {
	if path == "" || path == "#" {
		path = "#"
	}
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		path = path + "/" + escapeJSONPointer(segment)
	}
	return path
}

func escapeJSONPointer(value string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(value)
}

func sortedKeys(payload map[string]any) []string {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
