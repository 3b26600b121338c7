package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goliatone/go-formengine/pkg/defaults"
	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/uischema"
)

// WalkOption configures Walk.
type WalkOption func(*walker)

// WithRegistry resolves UI-schema component names against registry. Nodes
// naming an unknown component fall back to the default renderer.
func WithRegistry(registry *Registry) WalkOption {
	return func(w *walker) {
		w.registry = registry
	}
}

// WithLocalizer translates labels, descriptions and placeholders.
func WithLocalizer(l *Localizer) WalkOption {
	return func(w *walker) {
		w.localizer = l
	}
}

type walker struct {
	ctx       Context
	renderer  Renderer
	registry  *Registry
	localizer *Localizer
}

// Walk renders the form rooted at node. Wrappers are unwrapped, invisible
// nodes are skipped along with their subtree, and renderer is called once
// per visible node. The returned unit is the root's.
func Walk(ctx Context, node *schema.Node, ui *uischema.Node, renderer Renderer, opts ...WalkOption) (Unit, error) {
	if renderer == nil {
		return nil, fmt.Errorf("render: renderer is required")
	}
	root, err := schema.FormRoot(node)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	w := &walker{ctx: ctx, renderer: renderer}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	unit, _, err := w.visit(root, ui, nil, ctx.Value, ctx.Value != nil, true)
	return unit, err
}

func (w *walker) visit(node *schema.Node, ui *uischema.Node, at fieldpath.Path, value any, present, required bool) (Unit, bool, error) {
	res, err := schema.Resolve(node)
	if err != nil {
		return nil, false, fmt.Errorf("render: %s: %w", at, err)
	}
	name := at.String()
	if name != "" && !w.ctx.Visible(name) {
		return nil, false, nil
	}

	props := w.base(res, ui, at, value, present, required && res.Required)
	switch res.Node.Kind() {
	case schema.KindObject:
		return w.object(res.Node, ui, props)
	case schema.KindDiscriminatedUnion:
		return w.union(res.Node, ui, props)
	case schema.KindArray:
		return w.array(res.Node, ui, props)
	case schema.KindLiteral:
		return nil, false, nil
	case schema.KindString, schema.KindNumber, schema.KindBoolean, schema.KindDate, schema.KindEnum:
		return w.leaf(res.Node, ui, props)
	default:
		return nil, false, fmt.Errorf("render: %s: unsupported kind %q", name, res.Node.Kind())
	}
}

func (w *walker) base(res schema.Resolution, ui *uischema.Node, at fieldpath.Path, value any, present, required bool) Props {
	name := at.String()
	uiProps := w.localizer.props(ui.Props())
	description := uiProps.Description
	if description == "" {
		description = res.Node.Description()
	}
	return Props{
		Kind:        res.Node.Kind(),
		Name:        name,
		Path:        at,
		Value:       value,
		Present:     present,
		Label:       uiProps.DisplayLabel(uischema.HumanizeLabel(name)),
		Title:       uiProps.Title,
		Description: description,
		Placeholder: uiProps.Placeholder,
		Required:    required,
		Nullable:    res.Nullable,
		Error:       w.ctx.Errors.First(name),
		Issues:      w.ctx.Errors.At(name),
		UI:          uiProps,
		Annotations: res.Node.Metadata().Annotations,
	}
}

func (w *walker) emit(props Props, children []Unit) (Unit, bool, error) {
	renderer := w.renderer
	if component := props.UI.Component; component != "" && w.registry != nil {
		if custom, err := w.registry.Get(component); err == nil {
			renderer = custom
		}
	}
	unit, err := renderer.RenderNode(props, children)
	if err != nil {
		return nil, false, fmt.Errorf("render: %s: %w", props.Name, err)
	}
	return unit, true, nil
}

func (w *walker) object(node *schema.Node, ui *uischema.Node, props Props) (Unit, bool, error) {
	props.Role = RoleGroup
	if len(props.Path) == 0 {
		props.Role = RoleRoot
	}
	record, _ := props.Value.(map[string]any)
	var children []Unit
	for _, field := range node.Shape() {
		child, has := record[field.Name]
		unit, ok, err := w.visit(field.Node, ui.Field(field.Name), props.Path.Child(field.Name), child, has, true)
		if err != nil {
			return nil, false, err
		}
		if ok {
			children = append(children, unit)
		}
	}
	at := props.Path
	props.OnChange = func(v any) error {
		if len(at) == 0 {
			return nil
		}
		return w.ctx.dispatch(patch.Update(at, v))
	}
	return w.emit(props, children)
}

// union renders the discriminator selector, then the selected variant at
// the union's own path. No selection renders the selector alone.
func (w *walker) union(node *schema.Node, ui *uischema.Node, props Props) (Unit, bool, error) {
	literals, err := schema.DiscriminatorOptions(node)
	if err != nil {
		return nil, false, fmt.Errorf("render: %s: %w", props.Name, err)
	}
	disc := node.Discriminator()
	discPath := props.Path.Child(disc)
	current, hasCurrent := any(nil), false
	if record, ok := props.Value.(map[string]any); ok {
		current, hasCurrent = record[disc]
	}

	selector := Props{
		Role:        RoleDiscriminator,
		Kind:        schema.KindEnum,
		Name:        discPath.String(),
		Path:        discPath,
		Value:       current,
		Present:     hasCurrent,
		Label:       uischema.HumanizeLabel(discPath.String()),
		Description: disc,
		Required:    true,
		Error:       w.ctx.Errors.First(discPath.String()),
		Issues:      w.ctx.Errors.At(discPath.String()),
	}
	if ui != nil && ui.Discriminator != nil {
		selector.UI = w.localizer.props(*ui.Discriminator)
		selector.Label = selector.UI.DisplayLabel(selector.Label)
	}
	for _, lit := range literals {
		label := literalKey(lit)
		if l := ui.Variant(literalKey(lit)).Props().OptionLabel; l != "" {
			label = w.localizer.text(l)
		}
		selector.Options = append(selector.Options, Option{Value: lit, Label: label})
	}
	selector.OnChange = w.enumChange(discPath)

	var children []Unit
	unit, ok, err := w.emit(selector, nil)
	if err != nil {
		return nil, false, err
	}
	if ok {
		children = append(children, unit)
	}

	variant, selected, err := schema.SelectVariant(node, props.Value)
	if err != nil {
		return nil, false, fmt.Errorf("render: %s: %w", props.Name, err)
	}
	if selected {
		lit, _ := schema.VariantLiteral(disc, variant)
		unit, ok, err := w.visit(variant, ui.Variant(literalKey(lit)), props.Path, props.Value, props.Present, props.Required)
		if err != nil {
			return nil, false, err
		}
		if ok {
			children = append(children, unit)
		}
	}

	props.Role = RoleUnion
	return w.emit(props, children)
}

func (w *walker) array(node *schema.Node, ui *uischema.Node, props Props) (Unit, bool, error) {
	element := node.Element()
	elemRes, err := schema.Resolve(element)
	if err != nil {
		return nil, false, fmt.Errorf("render: %s: %w", props.Name, err)
	}
	lengths := node.Lengths()
	props.MinItems, props.MaxItems = lengths.Min, lengths.Max
	if lengths.Exact != nil {
		props.MinItems, props.MaxItems = lengths.Exact, lengths.Exact
	}
	items, _ := props.Value.([]any)
	props.Len = len(items)
	at := props.Path

	if elemRes.Node.Kind() == schema.KindEnum {
		props.Role = RoleMultiChoice
		props.Options = w.enumOptions(elemRes.Node, ui.Template())
		props.OnChange = func(v any) error {
			return w.ctx.dispatch(patch.Update(at, v))
		}
		return w.emit(props, nil)
	}

	props.Role = RoleList
	var children []Unit
	for i, item := range items {
		unit, ok, err := w.visit(element, ui.Template(), at.At(i), item, item != nil, true)
		if err != nil {
			return nil, false, err
		}
		if ok {
			children = append(children, unit)
		}
	}
	props.Add = func(v any) error {
		if v == nil {
			def, _, err := defaults.For(element)
			if err != nil {
				return err
			}
			v = def
		}
		return w.ctx.dispatch(patch.ArrayAdd(at.At(len(items)), v))
	}
	props.RemoveAt = func(i int) error {
		return w.ctx.dispatch(patch.ArrayRemove(at.At(i)))
	}
	props.Grow = func(n int) error {
		if n <= len(items) {
			return nil
		}
		grown := make([]any, len(items), n)
		copy(grown, items)
		for len(grown) < n {
			def, _, err := defaults.For(element)
			if err != nil {
				return err
			}
			grown = append(grown, def)
		}
		return w.ctx.dispatch(patch.Update(at, grown))
	}
	return w.emit(props, children)
}

func (w *walker) leaf(node *schema.Node, ui *uischema.Node, props Props) (Unit, bool, error) {
	props.Role = RoleField
	at := props.Path
	switch node.Kind() {
	case schema.KindString:
		checks := node.Checks()
		props.MinLength, props.MaxLength, props.Pattern = checks.MinLength, checks.MaxLength, checks.Pattern
		required := props.Required
		props.OnChange = func(v any) error {
			if isEmptyString(v) && !required {
				return w.ctx.dispatch(patch.Remove(at))
			}
			if v == nil {
				v = ""
			}
			return w.ctx.dispatch(patch.Update(at, v))
		}
	case schema.KindEnum:
		props.Options = w.enumOptions(node, ui)
		props.OnChange = w.enumChange(at)
	case schema.KindNumber:
		checks := node.Checks()
		props.Min, props.Max, props.Integer = checks.Min, checks.Max, checks.Integer
		props.OnChange = func(v any) error {
			if isEmptyNumber(v) {
				return w.ctx.dispatch(patch.Remove(at))
			}
			return w.ctx.dispatch(patch.Update(at, v))
		}
	default:
		props.OnChange = func(v any) error {
			return w.ctx.dispatch(patch.Update(at, v))
		}
	}
	return w.emit(props, nil)
}

func (w *walker) enumChange(at fieldpath.Path) func(any) error {
	return func(v any) error {
		if isEmptyString(v) {
			return w.ctx.dispatch(patch.Remove(at))
		}
		return w.ctx.dispatch(patch.Update(at, v))
	}
}

func (w *walker) enumOptions(node *schema.Node, ui *uischema.Node) []Option {
	labels := ui.Props().OptionLabels
	values := node.EnumValues()
	out := make([]Option, 0, len(values))
	for _, v := range values {
		label := v
		if l, ok := labels[v]; ok && l != "" {
			label = w.localizer.text(l)
		}
		out = append(out, Option{Value: v, Label: label})
	}
	return out
}

func isEmptyString(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func isEmptyNumber(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(n)
	case float32:
		return math.IsNaN(float64(n))
	}
	return false
}

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
