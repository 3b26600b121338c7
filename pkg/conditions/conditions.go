// Package conditions extracts visibility conditions from a UI schema and
// evaluates them against the current form data.
package conditions

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/patch"
	"github.com/goliatone/go-formengine/pkg/uischema"
	"github.com/goliatone/go-formengine/pkg/visibility"
	"github.com/goliatone/go-formengine/pkg/visibility/expr"
)

// Entry is one declared condition keyed by the data path it governs.
type Entry struct {
	Path fieldpath.Path
	Cond *uischema.Condition
}

// Name is the serialized path.
func (e Entry) Name() string {
	return e.Path.String()
}

// Result is an evaluated condition.
type Result struct {
	Path    fieldpath.Path
	Visible bool
}

func (r Result) Name() string {
	return r.Path.String()
}

// Extract walks ui once and collects every declared condition. Object fields
// extend the path; an array's element template and a union's variant nodes
// describe the same location as their parent, so conditions declared on
// their fields are keyed relative to the array or union path and are shared
// by every index. Conditions on the root, on a template itself and on a
// variant itself are not collected. Entries come out sorted by path.
func Extract(ui *uischema.Node) []Entry {
	var out []Entry
	extract(ui, fieldpath.Path{}, &out)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name() < out[j].Name()
	})
	return out
}

// ExtractMap is Extract keyed by serialized path. When several entries
// govern the same path the last one in walk order wins; Resolve evaluates
// all of them.
func ExtractMap(ui *uischema.Node) map[string]*uischema.Condition {
	entries := Extract(ui)
	out := make(map[string]*uischema.Condition, len(entries))
	for _, entry := range entries {
		out[entry.Name()] = entry.Cond
	}
	return out
}

func extract(node *uischema.Node, at fieldpath.Path, out *[]Entry) {
	if node == nil {
		return
	}
	names := make([]string, 0, len(node.Fields))
	for name := range node.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := node.Fields[name]
		path := at.Child(name)
		if cond := child.Cond(); cond != nil {
			*out = append(*out, Entry{Path: path, Cond: cond})
		}
		extract(child, path, out)
	}

	extract(node.Element, at, out)

	variants := make([]string, 0, len(node.Elements))
	for literal := range node.Elements {
		variants = append(variants, literal)
	}
	sort.Strings(variants)
	for _, literal := range variants {
		extract(node.Elements[literal], at, out)
	}
}

// Map holds the visibility of every governed path, keyed by serialized path.
type Map map[string]bool

// Visible reports whether name is visible. Paths without a condition are.
func (m Map) Visible(name string) bool {
	v, ok := m[name]
	return !ok || v
}

// Hidden lists hidden paths in sorted order.
func (m Map) Hidden() []string {
	var out []string
	for name, visible := range m {
		if !visible {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEvaluator swaps the rule evaluator used for textual conditions.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(r *Resolver) {
		if evaluator != nil {
			r.evaluator = evaluator
		}
	}
}

// WithExtras exposes additional values to rules under the `extras.` prefix.
func WithExtras(extras map[string]any) Option {
	return func(r *Resolver) {
		r.extras = patch.Clone(extras).(map[string]any)
	}
}

// Resolver evaluates conditions. The zero value is not usable; build one with
// NewResolver.
type Resolver struct {
	evaluator visibility.Evaluator
	extras    map[string]any
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{evaluator: expr.New()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var defaultResolver = NewResolver()

// Resolve evaluates every extracted condition against the whole data tree.
// Static conditions are returned as-is without invoking anything.
func (r *Resolver) Resolve(ui *uischema.Node, data any) ([]Result, error) {
	entries := Extract(ui)
	if len(entries) == 0 {
		return nil, nil
	}

	snapshot := patch.Clone(data)
	ctx := visibility.Context{Data: snapshot, Extras: r.extras}
	out := make([]Result, 0, len(entries))
	for _, entry := range entries {
		visible, err := r.evaluate(entry, snapshot, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, Result{Path: entry.Path, Visible: visible})
	}
	return out, nil
}

func (r *Resolver) evaluate(entry Entry, data any, ctx visibility.Context) (bool, error) {
	cond := entry.Cond
	switch cond.Kind() {
	case uischema.ConditionPredicate:
		fn := cond.Predicate()
		if fn == nil {
			return true, nil
		}
		return fn(data), nil
	case uischema.ConditionRule:
		visible, err := r.evaluator.Eval(entry.Name(), cond.RuleText(), ctx)
		if err != nil {
			return false, fmt.Errorf("conditions: %s: %w", entry.Name(), err)
		}
		return visible, nil
	default:
		v, _ := cond.StaticValue()
		return v, nil
	}
}

// ResolveMap folds Resolve into a Map. A path governed by several entries is
// visible only when all of them are.
func (r *Resolver) ResolveMap(ui *uischema.Node, data any) (Map, error) {
	results, err := r.Resolve(ui, data)
	if err != nil {
		return nil, err
	}
	out := make(Map, len(results))
	for _, res := range results {
		name := res.Name()
		if prev, ok := out[name]; ok {
			out[name] = prev && res.Visible
			continue
		}
		out[name] = res.Visible
	}
	return out, nil
}

// StripHidden recomputes conditions and returns a copy of data with every
// hidden path removed. Hidden sequence slots become holes.
func (r *Resolver) StripHidden(data any, ui *uischema.Node) (any, error) {
	conds, err := r.ResolveMap(ui, data)
	if err != nil {
		return nil, err
	}
	return Strip(data, conds)
}

// Strip removes every hidden path of conds from a copy of data.
func Strip(data any, conds Map) (any, error) {
	out := patch.Clone(data)
	for _, name := range conds.Hidden() {
		path, err := fieldpath.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("conditions: %w", err)
		}
		out, err = patch.Apply(out, patch.Remove(path))
		if err != nil {
			return nil, fmt.Errorf("conditions: strip %s: %w", name, err)
		}
	}
	return out, nil
}

// Resolve evaluates with the default resolver.
func Resolve(ui *uischema.Node, data any) ([]Result, error) {
	return defaultResolver.Resolve(ui, data)
}

// ResolveMap evaluates with the default resolver.
func ResolveMap(ui *uischema.Node, data any) (Map, error) {
	return defaultResolver.ResolveMap(ui, data)
}

// StripHidden strips with the default resolver.
func StripHidden(data any, ui *uischema.Node) (any, error) {
	return defaultResolver.StripHidden(data, ui)
}
