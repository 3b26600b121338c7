package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/uischema"
)

// Violation is a UI schema entry that does not line up with the schema it
// decorates. Renderers silently ignore such entries, so they are usually
// typos.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Lint checks the UI schema selected by req against the converted schema.
func (o *Orchestrator) Lint(ctx context.Context, req Request) ([]Violation, error) {
	node, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}
	ui, err := o.UISchema(req)
	if err != nil {
		return nil, err
	}
	return Lint(node, ui)
}

// Lint reports UI schema keys with no schema counterpart: unknown fields,
// element templates outside arrays, variant entries with no matching
// discriminator literal and option labels for values an enum lacks.
// Violations are sorted by path, then message.
func Lint(node *schema.Node, ui *uischema.Node) ([]Violation, error) {
	var out []Violation
	if err := lintNode(node, ui, "", &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Message < out[j].Message
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func lintNode(node *schema.Node, ui *uischema.Node, at string, out *[]Violation) error {
	if ui == nil {
		return nil
	}
	base, err := schema.UnwrapDeep(node)
	if err != nil {
		return err
	}
	report := func(path, format string, args ...any) {
		*out = append(*out, Violation{Path: path, Message: fmt.Sprintf(format, args...)})
	}
	kind := base.Kind()

	if len(ui.Fields) > 0 {
		switch kind {
		case schema.KindObject:
			for _, name := range sortedKeys(ui.Fields) {
				child, ok := base.Field(name)
				if !ok {
					report(join(at, name), "no such field in the schema")
					continue
				}
				if err := lintNode(child, ui.Fields[name], join(at, name), out); err != nil {
					return err
				}
			}
		case schema.KindDiscriminatedUnion:
			report(at, "fields on a union apply to no variant; use elements")
		default:
			report(at, "fields given for a %s", kind)
		}
	}

	if ui.Element != nil {
		if kind == schema.KindArray {
			if err := lintNode(base.Element(), ui.Element, at+"[]", out); err != nil {
				return err
			}
		} else {
			report(at, "element given for a %s", kind)
		}
	}

	if kind == schema.KindDiscriminatedUnion {
		variants := make(map[string]*schema.Node, len(base.Variants()))
		for _, variant := range base.Variants() {
			lit, err := schema.VariantLiteral(base.Discriminator(), variant)
			if err != nil {
				return err
			}
			variants[literalKey(lit)] = variant
		}
		for _, key := range sortedKeys(ui.Elements) {
			variant, ok := variants[key]
			if !ok {
				report(at, "no variant with %s %q", base.Discriminator(), key)
				continue
			}
			if err := lintNode(variant, ui.Elements[key], at, out); err != nil {
				return err
			}
		}
		if ui.Discriminator != nil {
			lintOptionLabels(ui.Discriminator.OptionLabels, variants, join(at, base.Discriminator()), report)
		}
	} else {
		if len(ui.Elements) > 0 {
			report(at, "elements given for a %s", kind)
		}
		if ui.Discriminator != nil {
			report(at, "discriminator given for a %s", kind)
		}
	}

	if ui.UI != nil && len(ui.UI.OptionLabels) > 0 {
		values := make(map[string]bool)
		if kind == schema.KindEnum {
			for _, v := range base.EnumValues() {
				values[v] = true
			}
		}
		if len(values) == 0 {
			report(at, "option labels given for a %s", kind)
		} else {
			lintOptionLabels(ui.UI.OptionLabels, values, at, report)
		}
	}
	return nil
}

func lintOptionLabels[V any](labels map[string]string, known map[string]V, at string, report func(path, format string, args ...any)) {
	for _, key := range sortedKeys(labels) {
		if _, ok := known[key]; !ok {
			report(at, "option label for unknown value %q", key)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func join(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// literalKey matches the key the UI schema uses for a variant literal.
func literalKey(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
