package schema

import (
	"reflect"
)

// VariantLiteral returns the discriminator literal declared by one variant
// of a discriminated union.
func VariantLiteral(discriminator string, variant *Node) (any, error) {
	obj, err := UnwrapDeep(variant)
	if err != nil {
		return nil, err
	}
	if obj.kind != KindObject {
		return nil, schemaErr(obj.kind, "", "union variant must be an object")
	}
	field, ok := obj.Field(discriminator)
	if !ok {
		return nil, schemaErr(obj.kind, discriminator, "union variant is missing its discriminator field")
	}
	lit, err := UnwrapDeep(field)
	if err != nil {
		return nil, err
	}
	if lit.kind != KindLiteral {
		return nil, schemaErr(lit.kind, discriminator, "discriminator field must be a literal")
	}
	return lit.literal, nil
}

// DiscriminatorOptions lists the variant literals in declaration order.
func DiscriminatorOptions(union *Node) ([]any, error) {
	if union.Kind() != KindDiscriminatedUnion {
		return nil, schemaErr(union.Kind(), "", "expected a discriminated union")
	}
	out := make([]any, 0, len(union.variants))
	for _, variant := range union.variants {
		lit, err := VariantLiteral(union.discriminator, variant)
		if err != nil {
			return nil, err
		}
		out = append(out, lit)
	}
	return out, nil
}

// SelectVariant picks the variant whose discriminator literal equals
// value[discriminator]. An absent or unmatched discriminator selects nothing
// and is not an error.
func SelectVariant(union *Node, value any) (*Node, bool, error) {
	if union.Kind() != KindDiscriminatedUnion {
		return nil, false, schemaErr(union.Kind(), "", "expected a discriminated union")
	}
	record, ok := value.(map[string]any)
	if !ok {
		return nil, false, nil
	}
	current, ok := record[union.discriminator]
	if !ok {
		return nil, false, nil
	}
	for _, variant := range union.variants {
		lit, err := VariantLiteral(union.discriminator, variant)
		if err != nil {
			return nil, false, err
		}
		if LiteralEqual(lit, current) {
			return variant, true, nil
		}
	}
	return nil, false, nil
}

// LiteralEqual compares scalar values, treating all numeric types alike.
// Non-scalar values never compare equal.
func LiteralEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a.(type) {
	case string, bool:
		return reflect.TypeOf(a) == reflect.TypeOf(b) && a == b
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func isScalar(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := toFloat(v); ok {
		return true
	}
	switch v.(type) {
	case string, bool:
		return true
	}
	return false
}
