package jsonschema

import (
	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// producer builds the output value: defaults fill absent fields, refinements
// run on subtrees without structural issues, transforms map passing values.
// Unknown object keys are dropped.
type producer struct {
	structural []validation.Issue
	issues     []validation.Issue
}

// blocked reports whether a structural issue sits at or below at.
func (p *producer) blocked(at fieldpath.Path) bool {
	for _, issue := range p.structural {
		if issue.Path.HasPrefix(at) {
			return true
		}
	}
	for _, issue := range p.issues {
		if issue.Path.HasPrefix(at) {
			return true
		}
	}
	return false
}

func (p *producer) produce(node *schema.Node, value any, present bool, at fieldpath.Path) (any, bool) {
	switch node.Kind() {
	case schema.KindOptional:
		if !present {
			return nil, false
		}
		return p.produce(node.Inner(), value, present, at)
	case schema.KindNullable:
		if present && value == nil {
			return nil, true
		}
		return p.produce(node.Inner(), value, present, at)
	case schema.KindDefault:
		if !present {
			value, present = node.DefaultValue()
		}
		return p.produce(node.Inner(), value, present, at)
	case schema.KindEffects:
		out, ok := p.produce(node.Inner(), value, present, at)
		if !ok || p.blocked(at) {
			return out, ok
		}
		effect, _ := node.Effect()
		for _, refinement := range effect.Refinements {
			if refinement.Check(out) {
				continue
			}
			p.issues = append(p.issues, validation.Issue{
				Path:    at.Append(refinement.Path...),
				Message: refinement.Message,
				Code:    "custom",
			})
		}
		if p.blocked(at) || effect.Transform == nil {
			return out, ok
		}
		return effect.Transform(out), true
	case schema.KindObject:
		record, ok := value.(map[string]any)
		if !ok {
			return patch.Clone(value), present
		}
		out := make(map[string]any, len(record))
		for _, field := range node.Shape() {
			child, has := record[field.Name]
			if v, keep := p.produce(field.Node, child, has, at.Child(field.Name)); keep {
				out[field.Name] = v
			}
		}
		return out, true
	case schema.KindArray:
		items, ok := value.([]any)
		if !ok {
			return patch.Clone(value), present
		}
		out := make([]any, len(items))
		for i, item := range items {
			// a nil slot is an absent element
			v, _ := p.produce(node.Element(), item, item != nil, at.At(i))
			out[i] = v
		}
		return out, true
	case schema.KindDiscriminatedUnion:
		variant, ok, err := schema.SelectVariant(node, value)
		if err != nil || !ok {
			return patch.Clone(value), present
		}
		return p.produce(variant, value, present, at)
	default:
		return value, present
	}
}
