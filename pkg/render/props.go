package render

import (
	"github.com/goliatone/go-formengine/pkg/fieldpath"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/uischema"
	"github.com/goliatone/go-formengine/pkg/validation"
)

// Role tells renderers what a Props value stands for beyond its kind.
type Role string

const (
	RoleRoot          Role = "root"
	RoleGroup         Role = "group"
	RoleList          Role = "list"
	RoleMultiChoice   Role = "multiChoice"
	RoleUnion         Role = "union"
	RoleDiscriminator Role = "discriminator"
	RoleField         Role = "field"
)

// Option is one selectable value of an enum, a multi-choice list or a
// discriminator.
type Option struct {
	Value any
	Label string
}

// Props are the resolved properties for one visible node.
type Props struct {
	Role Role
	Kind schema.Kind
	Name string
	Path fieldpath.Path

	Value   any
	Present bool

	Label       string
	Title       string
	Description string
	Placeholder string
	Required    bool
	Nullable    bool

	// Error is the first issue message at Name; Issues holds all of them.
	Error  string
	Issues []validation.Issue

	Options []Option

	Min, Max *float64
	Integer  bool

	MinLength, MaxLength *int
	Pattern              string

	MinItems, MaxItems *int
	Len                int

	UI uischema.Props
	// Annotations are the schema annotations of the unwrapped node.
	Annotations map[string]any

	OnChange func(value any) error
	Add      func(value any) error
	RemoveAt func(index int) error
	// Grow pads a list with element defaults up to n items in one event.
	Grow     func(n int) error
}

// OptionLabel returns the label for value, falling back to its text.
func (p Props) OptionLabel(value any) string {
	for _, opt := range p.Options {
		if schema.LiteralEqual(opt.Value, value) {
			return opt.Label
		}
	}
	return literalKey(value)
}

// Selected reports whether value is the current value, or part of it for
// multi-choice lists.
func (p Props) Selected(value any) bool {
	if list, ok := p.Value.([]any); ok {
		for _, item := range list {
			if schema.LiteralEqual(item, value) {
				return true
			}
		}
		return false
	}
	return p.Present && schema.LiteralEqual(p.Value, value)
}
