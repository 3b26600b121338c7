// Package widgets picks the input widget a renderer draws for a node.
package widgets

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/schema"
)

// Built-in widget identifiers understood by the bundled renderers.
const (
	WidgetEmail    = "email"
	WidgetURL      = "url"
	WidgetPassword = "password"
	WidgetTextarea = "textarea"
	WidgetRadio    = "radio"
	WidgetToggle   = "toggle"
)

// LongText is the maximum length above which strings get a textarea.
const LongText = 256

// Matcher decides whether a widget should handle the supplied node.
type Matcher func(props render.Props) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for nodes based on explicit hints or registered
// matchers. Higher priority wins; ties fall back to registration order. An
// empty registry only honours explicit hints.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher with the provided name and priority. Higher
// priority values take precedence.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for props. A "widget" entry in the UI
// props' extra map wins, then an "x-widget" or "widget" schema annotation,
// then the matchers.
func (r *Registry) Resolve(props render.Props) (string, bool) {
	if explicit := Explicit(props); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(props) {
			return entry.name, true
		}
	}
	return "", false
}

// Explicit returns the widget requested by the UI schema or the schema
// annotations, or "".
func Explicit(props render.Props) string {
	if name := text(props.UI.Extra["widget"]); name != "" {
		return name
	}
	for _, key := range []string{"x-widget", "widget"} {
		if name := text(props.Annotations[key]); name != "" {
			return name
		}
	}
	return ""
}

// Format returns the lower-cased "format" annotation of props.
func Format(props render.Props) string {
	return strings.ToLower(text(props.Annotations["format"]))
}

// Supports reports whether a built-in widget can draw a node of kind. Names
// the package does not define are assumed to support every kind.
func Supports(widget string, kind schema.Kind) bool {
	switch widget {
	case WidgetEmail, WidgetURL, WidgetPassword, WidgetTextarea:
		return kind == schema.KindString
	case WidgetRadio:
		return kind == schema.KindEnum
	case WidgetToggle:
		return kind == schema.KindBoolean
	default:
		return true
	}
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func (r *Registry) registerBuiltins() {
	isString := func(props render.Props) bool {
		return props.Role == render.RoleField && props.Kind == schema.KindString
	}

	r.Register(WidgetEmail, 60, func(props render.Props) bool {
		return isString(props) && Format(props) == "email"
	})

	r.Register(WidgetURL, 60, func(props render.Props) bool {
		if !isString(props) {
			return false
		}
		format := Format(props)
		return format == "uri" || format == "url"
	})

	r.Register(WidgetPassword, 60, func(props render.Props) bool {
		return isString(props) && Format(props) == "password"
	})

	r.Register(WidgetTextarea, 50, func(props render.Props) bool {
		if !isString(props) {
			return false
		}
		if format := Format(props); format == "textarea" || format == "markdown" {
			return true
		}
		return props.MaxLength != nil && *props.MaxLength > LongText
	})
}
