package uischema

import (
	"maps"
)

// Node mirrors the data shape of a form. Object fields live under Fields,
// the shared per-element template of an array under Element, and the
// per-variant nodes of a discriminated union under Elements keyed by the
// variant's discriminator value. Element and Elements never extend the data
// path: they describe the same location as their parent.
type Node struct {
	UI            *Props           `json:"ui,omitempty" yaml:"ui,omitempty"`
	Fields        map[string]*Node `json:"fields,omitempty" yaml:"fields,omitempty"`
	Element       *Node            `json:"element,omitempty" yaml:"element,omitempty"`
	Elements      map[string]*Node `json:"elements,omitempty" yaml:"elements,omitempty"`
	Discriminator *Props           `json:"discriminator,omitempty" yaml:"discriminator,omitempty"`
}

// Props is the per-node display configuration. Only Cond is consumed by the
// engine; everything else is passed through to renderers.
type Props struct {
	Label        string            `json:"label,omitempty" yaml:"label,omitempty"`
	Title        string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder  string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Icon         string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	OptionLabel  string            `json:"optionLabel,omitempty" yaml:"optionLabel,omitempty"`
	OptionLabels map[string]string `json:"optionLabels,omitempty" yaml:"optionLabels,omitempty"`
	Component    string            `json:"component,omitempty" yaml:"component,omitempty"`
	Cond         *Condition        `json:"cond,omitempty" yaml:"cond,omitempty"`
	Extra        map[string]any    `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Field returns the UI node of an object field; nil-safe.
func (n *Node) Field(name string) *Node {
	if n == nil {
		return nil
	}
	return n.Fields[name]
}

// Variant returns the UI node of a union variant; nil-safe.
func (n *Node) Variant(literal string) *Node {
	if n == nil {
		return nil
	}
	return n.Elements[literal]
}

// Template returns the array element template; nil-safe.
func (n *Node) Template() *Node {
	if n == nil {
		return nil
	}
	return n.Element
}

// Props returns the node's display props, or the zero value.
func (n *Node) Props() Props {
	if n == nil || n.UI == nil {
		return Props{}
	}
	return *n.UI
}

// Cond returns the declared visibility condition, if any.
func (n *Node) Cond() *Condition {
	if n == nil || n.UI == nil {
		return nil
	}
	return n.UI.Cond
}

// Clone deep-copies the node tree. Conditions are immutable and shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		UI:            n.UI.clone(),
		Element:       n.Element.Clone(),
		Discriminator: n.Discriminator.clone(),
	}
	if n.Fields != nil {
		out.Fields = make(map[string]*Node, len(n.Fields))
		for k, v := range n.Fields {
			out.Fields[k] = v.Clone()
		}
	}
	if n.Elements != nil {
		out.Elements = make(map[string]*Node, len(n.Elements))
		for k, v := range n.Elements {
			out.Elements[k] = v.Clone()
		}
	}
	return out
}

func (p *Props) clone() *Props {
	if p == nil {
		return nil
	}
	out := *p
	out.OptionLabels = maps.Clone(p.OptionLabels)
	out.Extra = maps.Clone(p.Extra)
	return &out
}

// DisplayLabel picks the label shown for a field: Label, then Title, then
// the fallback (usually the field name).
func (p Props) DisplayLabel(fallback string) string {
	switch {
	case p.Label != "":
		return p.Label
	case p.Title != "":
		return p.Title
	default:
		return fallback
	}
}
