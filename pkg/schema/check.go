package schema

import (
	"errors"
	"regexp"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Check verifies the invariants the normalizer, default deriver and form
// rely on. Call it once when a schema is built; every problem is reported as
// a *SchemaError carrying the location of the offending node.
func Check(node *Node) error {
	c := checker{
		active:   make(map[*Node]struct{}),
		verified: make(map[*Node]struct{}),
	}
	return c.walk(node, "")
}

// checker tracks the nodes on the current descent, to reject cycles, and
// the nodes already verified, so shared subtrees are checked once.
type checker struct {
	active   map[*Node]struct{}
	verified map[*Node]struct{}
}

func join(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

func (c checker) walk(node *Node, at string) error {
	var chain []*Node
	defer func() {
		for _, n := range chain {
			delete(c.active, n)
		}
	}()

	for {
		if node == nil {
			return schemaErr("", at, "nil schema node")
		}
		if _, ok := c.verified[node]; ok {
			break
		}
		if _, ok := c.active[node]; ok {
			return schemaErr(node.kind, at, "schema is self-referential")
		}
		c.active[node] = struct{}{}
		chain = append(chain, node)

		if !node.kind.Valid() {
			return schemaErr(node.kind, at, "unknown kind")
		}
		if err := c.checkConstraints(node, at); err != nil {
			return err
		}
		if !node.kind.IsWrapper() {
			if err := c.walkStructure(node, at); err != nil {
				return err
			}
			break
		}
		if err := checkWrapper(node, at); err != nil {
			return err
		}
		node = node.inner
	}

	for _, n := range chain {
		c.verified[n] = struct{}{}
	}
	return nil
}

func checkWrapper(node *Node, at string) error {
	if node.inner == nil {
		return schemaErr(node.kind, at, "wrapper carries no inner schema")
	}
	switch node.kind {
	case KindDefault:
		if node.produce == nil {
			return schemaErr(node.kind, at, "default wrapper has no producer")
		}
	case KindEffects:
		if node.effect == nil {
			return schemaErr(node.kind, at, "effects wrapper has no effect")
		}
		for _, ref := range node.effect.Refinements {
			if ref.Check == nil {
				return schemaErr(node.kind, at, "refinement has no check")
			}
		}
	}
	return nil
}

func (c checker) walkStructure(node *Node, at string) error {
	switch node.kind {
	case KindLiteral:
		if !isScalar(node.literal) {
			return schemaErr(node.kind, at, "literal must be a scalar, got %T", node.literal)
		}

	case KindEnum:
		if len(node.enum) == 0 {
			return schemaErr(node.kind, at, "enum declares no values")
		}
		seen := make(map[string]struct{}, len(node.enum))
		for _, v := range node.enum {
			if _, dup := seen[v]; dup {
				return schemaErr(node.kind, at, "duplicate enum value %q", v)
			}
			seen[v] = struct{}{}
		}

	case KindArray:
		if node.element == nil {
			return schemaErr(node.kind, at, "array has no element schema")
		}
		return c.walk(node.element, at+"[*]")

	case KindObject:
		names := make(map[string]struct{}, len(node.fields))
		for _, field := range node.fields {
			if !fieldpath.ValidKey(field.Name) {
				return schemaErr(node.kind, at, "field name %q is not path-safe", field.Name)
			}
			if _, dup := names[field.Name]; dup {
				return schemaErr(node.kind, at, "duplicate field %q", field.Name)
			}
			names[field.Name] = struct{}{}
			if err := c.walk(field.Node, join(at, field.Name)); err != nil {
				return err
			}
		}

	case KindDiscriminatedUnion:
		if !fieldpath.ValidKey(node.discriminator) {
			return schemaErr(node.kind, at, "discriminator %q is not path-safe", node.discriminator)
		}
		if len(node.variants) == 0 {
			return schemaErr(node.kind, at, "union declares no variants")
		}
		var literals []any
		for _, variant := range node.variants {
			if err := c.walk(variant, at); err != nil {
				return err
			}
			lit, err := VariantLiteral(node.discriminator, variant)
			if err != nil {
				var se *SchemaError
				if errors.As(err, &se) && se.Path == node.discriminator {
					se.Path = join(at, node.discriminator)
				}
				return err
			}
			for _, prev := range literals {
				if LiteralEqual(prev, lit) {
					return schemaErr(node.kind, at, "duplicate discriminator value %v", lit)
				}
			}
			literals = append(literals, lit)
		}
	}
	return nil
}

func (c checker) checkConstraints(node *Node, at string) error {
	checks := node.checks
	if !checks.empty() {
		switch {
		case checks.numeric() && node.kind != KindNumber:
			return schemaErr(node.kind, at, "numeric bounds apply to numbers only")
		case checks.textual() && node.kind != KindString:
			return schemaErr(node.kind, at, "length and pattern checks apply to strings only")
		}
		if checks.Min != nil && checks.Max != nil && *checks.Min > *checks.Max {
			return schemaErr(node.kind, at, "min %v exceeds max %v", *checks.Min, *checks.Max)
		}
		if err := checkBounds(node.kind, at, checks.MinLength, checks.MaxLength); err != nil {
			return err
		}
		if checks.Pattern != "" {
			if _, err := regexp.Compile(checks.Pattern); err != nil {
				return schemaErr(node.kind, at, "invalid pattern: %v", err)
			}
		}
	}

	l := node.lengths
	if l.Min == nil && l.Max == nil && l.Exact == nil {
		return nil
	}
	if node.kind != KindArray {
		return schemaErr(node.kind, at, "item counts apply to arrays only")
	}
	if err := checkBounds(node.kind, at, l.Min, l.Max); err != nil {
		return err
	}
	if l.Exact != nil {
		if *l.Exact < 0 {
			return schemaErr(node.kind, at, "negative exact length")
		}
		if (l.Min != nil && *l.Exact < *l.Min) || (l.Max != nil && *l.Exact > *l.Max) {
			return schemaErr(node.kind, at, "exact length %d outside min/max", *l.Exact)
		}
	}
	return nil
}

func checkBounds(kind Kind, at string, lo, hi *int) error {
	if (lo != nil && *lo < 0) || (hi != nil && *hi < 0) {
		return schemaErr(kind, at, "negative length bound")
	}
	if lo != nil && hi != nil && *lo > *hi {
		return schemaErr(kind, at, "min length %d exceeds max %d", *lo, *hi)
	}
	return nil
}
