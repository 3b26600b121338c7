// Package defaults derives the initial data tree for a schema.
package defaults

import (
	"fmt"

	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// For returns the default value for node. present is false when the policy
// yields "absent": the caller must omit the value rather than store nil.
//
//	string, number, date, enum     absent
//	boolean                        false
//	literal                        the literal value
//	array of enum                  empty sequence
//	array                          exact ?? min ?? 0 elements, each defaulted
//	object                         declared fields, absent ones omitted
//	default wrapper                the producer's value
//	optional, nullable, effects    the inner schema's default
//	discriminated union            absent
func For(node *schema.Node) (value any, present bool, err error) {
	if node == nil {
		return nil, false, &schema.SchemaError{Reason: "nil schema node"}
	}

	switch node.Kind() {
	case schema.KindString, schema.KindNumber, schema.KindDate, schema.KindEnum:
		return nil, false, nil

	case schema.KindBoolean:
		return false, true, nil

	case schema.KindLiteral:
		return node.LiteralValue(), true, nil

	case schema.KindDiscriminatedUnion:
		return nil, false, nil

	case schema.KindDefault:
		v, ok := node.DefaultValue()
		if !ok {
			return nil, false, &schema.SchemaError{Kind: node.Kind(), Reason: "default wrapper has no producer"}
		}
		return v, true, nil

	case schema.KindOptional, schema.KindNullable, schema.KindEffects:
		inner, err := schema.UnwrapOne(node)
		if err != nil {
			return nil, false, err
		}
		return For(inner)

	case schema.KindArray:
		return forArray(node)

	case schema.KindObject:
		return forObject(node)

	default:
		return nil, false, &schema.SchemaError{
			Kind:   node.Kind(),
			Reason: fmt.Sprintf("cannot derive a default for kind %q", node.Kind()),
		}
	}
}

func forArray(node *schema.Node) (any, bool, error) {
	element := node.Element()
	elemKind, err := directKind(element)
	if err != nil {
		return nil, false, err
	}
	if elemKind == schema.KindEnum {
		return []any{}, true, nil
	}

	size := 0
	lengths := node.Lengths()
	switch {
	case lengths.Exact != nil:
		size = *lengths.Exact
	case lengths.Min != nil:
		size = *lengths.Min
	}

	out := make([]any, size)
	for i := range out {
		v, present, err := For(element)
		if err != nil {
			return nil, false, err
		}
		if present {
			out[i] = v
		}
	}
	return out, true, nil
}

func forObject(node *schema.Node) (any, bool, error) {
	out := make(map[string]any)
	for _, field := range node.Shape() {
		v, present, err := For(field.Node)
		if err != nil {
			return nil, false, fmt.Errorf("defaults: field %q: %w", field.Name, err)
		}
		if present {
			out[field.Name] = v
		}
	}
	return out, true, nil
}

func directKind(element *schema.Node) (schema.Kind, error) {
	if element == nil {
		return "", &schema.SchemaError{Kind: schema.KindArray, Reason: "array has no element schema"}
	}
	return element.Kind(), nil
}

// ForForm returns the initial data tree of a form. A non-nil override wins
// and is deep-copied; otherwise the form root's default is used, with an
// absent root becoming an empty object.
func ForForm(node *schema.Node, override any) (any, error) {
	if override != nil {
		return patch.Clone(override), nil
	}
	root, err := schema.FormRoot(node)
	if err != nil {
		return nil, err
	}
	v, present, err := For(root)
	if err != nil {
		return nil, err
	}
	if !present {
		return map[string]any{}, nil
	}
	return v, nil
}
